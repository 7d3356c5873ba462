package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/courspresso/courspresso-web/internal/models"
)

// courseList accepts either a bare JSON array or a paged {"content": [...]}.
type courseList []models.Course

func (l *courseList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = courseList{}
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var arr []models.Course
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var page struct {
		Content []models.Course `json:"content"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return fmt.Errorf("course list: %w", err)
	}
	if page.Content == nil {
		page.Content = []models.Course{}
	}
	*l = page.Content
	return nil
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

func (c *Client) ListCourses(ctx context.Context, page, size int) ([]models.Course, error) {
	var out courseList
	if err := c.do(ctx, http.MethodGet, "/courses", "/courses", pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchCourses(ctx context.Context, query string, page, size int) ([]models.Course, error) {
	q := pageQuery(page, size)
	q.Set("q", query)
	var out courseList
	if err := c.do(ctx, http.MethodGet, "/courses/search", "/courses/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodGet, "/courses/{id}", "/courses/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FilterCourses posts the quiz payload and returns the recommended courses.
func (c *Client) FilterCourses(ctx context.Context, p models.RecommendationPayload) ([]models.Course, error) {
	var out courseList
	if err := c.do(ctx, http.MethodPost, "/courses/filter", "/courses/filter", nil, p, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = courseList{}
	}
	return out, nil
}
