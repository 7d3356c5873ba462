package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/courspresso/courspresso-web/internal/models"
)

func (c *Client) SubmitFeedback(ctx context.Context, batch models.FeedbackBatch) error {
	return c.do(ctx, http.MethodPost, "/feedback", "/feedback", nil, batch, nil)
}

func (c *Client) ListFeedback(ctx context.Context) ([]models.CourseFeedback, error) {
	var out []models.CourseFeedback
	if err := c.do(ctx, http.MethodGet, "/feedback/all", "/feedback/all", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCourseFeedback(ctx context.Context, courseID string) ([]models.CourseFeedback, error) {
	var out []models.CourseFeedback
	err := c.do(ctx, http.MethodGet, "/feedback/all/{courseId}", "/feedback/all/"+url.PathEscape(courseID), nil, nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
