package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/courspresso/courspresso-web/internal/models"
)

func (c *Client) ListSavedCourses(ctx context.Context) ([]models.SavedCourse, error) {
	var out []models.SavedCourse
	if err := c.do(ctx, http.MethodGet, "/saved-courses", "/saved-courses", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveCourse(ctx context.Context, courseID string) error {
	q := url.Values{}
	q.Set("courseId", courseID)
	return c.do(ctx, http.MethodPost, "/saved-courses", "/saved-courses", q, struct{}{}, nil)
}

func (c *Client) RemoveSavedCourse(ctx context.Context, courseID string) error {
	return c.do(ctx, http.MethodDelete, "/saved-courses/{id}", "/saved-courses/"+url.PathEscape(courseID), nil, nil, nil)
}
