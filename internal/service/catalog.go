package service

import (
	"context"
	"strings"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/quiz"
)

type CatalogAPI interface {
	ListCourses(ctx context.Context, page, size int) ([]models.Course, error)
	SearchCourses(ctx context.Context, query string, page, size int) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	ListCourseFeedback(ctx context.Context, courseID string) ([]models.CourseFeedback, error)
}

const catalogPageSize = 200

type Catalog struct {
	api CatalogAPI
}

func NewCatalog(api CatalogAPI) *Catalog {
	return &Catalog{api: api}
}

// Browse lists courses, or searches when query is non-blank.
func (c *Catalog) Browse(ctx context.Context, query string) ([]models.Course, error) {
	if q := strings.TrimSpace(query); q != "" {
		return c.api.SearchCourses(ctx, q, 0, catalogPageSize)
	}
	return c.api.ListCourses(ctx, 0, catalogPageSize)
}

// CourseFilter narrows a listing the way the home page filters do.
// Empty fields match everything.
type CourseFilter struct {
	Platform   string
	Duration   string
	Difficulty string
}

func (f CourseFilter) Apply(courses []models.Course) []models.Course {
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if f.Platform != "" && !strings.EqualFold(c.Platform, f.Platform) {
			continue
		}
		if f.Duration != "" && !strings.EqualFold(c.Duration, f.Duration) {
			continue
		}
		if f.Difficulty != "" && !strings.EqualFold(c.DifficultyLevel, f.Difficulty) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ByDomain lists courses carrying any tag of the domain group.
func (c *Catalog) ByDomain(ctx context.Context, d quiz.Domain) ([]models.Course, error) {
	all, err := c.api.ListCourses(ctx, 0, catalogPageSize)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(d.Tags))
	for _, t := range d.Tags {
		want[strings.ToLower(t)] = true
	}
	out := []models.Course{}
	for _, course := range all {
		for _, t := range course.Tags {
			if want[strings.ToLower(strings.TrimSpace(t))] {
				out = append(out, course)
				break
			}
		}
	}
	return out, nil
}

type CourseDetail struct {
	Course    *models.Course
	Feedbacks []models.CourseFeedback
}

// Detail loads a course; feedback is best effort.
func (c *Catalog) Detail(ctx context.Context, id string) (*CourseDetail, error) {
	course, err := c.api.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	fb, err := c.api.ListCourseFeedback(ctx, id)
	if err != nil {
		fb = nil
	}
	return &CourseDetail{Course: course, Feedbacks: fb}, nil
}
