package service

import (
	"context"

	"github.com/courspresso/courspresso-web/internal/models"
)

type SavedAPI interface {
	ListSavedCourses(ctx context.Context) ([]models.SavedCourse, error)
	SaveCourse(ctx context.Context, courseID string) error
	RemoveSavedCourse(ctx context.Context, courseID string) error
}

type SavedCourses struct {
	api SavedAPI
}

func NewSavedCourses(api SavedAPI) *SavedCourses {
	return &SavedCourses{api: api}
}

func (s *SavedCourses) List(ctx context.Context) ([]models.SavedCourse, error) {
	saved, err := s.api.ListSavedCourses(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		saved = []models.SavedCourse{}
	}
	return saved, nil
}

func (s *SavedCourses) Set(ctx context.Context) (models.SavedSet, error) {
	saved, err := s.api.ListSavedCourses(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewSavedSet(saved), nil
}

// Save is a no-op returning ErrAlreadySaved when the course is in the set.
func (s *SavedCourses) Save(ctx context.Context, courseID string) error {
	set, err := s.Set(ctx)
	if err != nil {
		return err
	}
	if set.Has(courseID) {
		return ErrAlreadySaved
	}
	return s.api.SaveCourse(ctx, courseID)
}

func (s *SavedCourses) Remove(ctx context.Context, courseID string) error {
	return s.api.RemoveSavedCourse(ctx, courseID)
}
