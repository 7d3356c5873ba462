package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/courspresso/courspresso-web/internal/models"
)

func (c *Client) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, "/profile/{userId}", "/profile/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProfile(ctx context.Context, userID string, p models.Profile) error {
	return c.do(ctx, http.MethodPost, "/profile/{userId}", "/profile/"+url.PathEscape(userID), nil, p, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, p models.Profile) error {
	return c.do(ctx, http.MethodPut, "/profile", "/profile", nil, p, nil)
}

// ProfileStatus reports whether the signed-in user has completed registration.
func (c *Client) ProfileStatus(ctx context.Context) (bool, error) {
	var done bool
	if err := c.do(ctx, http.MethodGet, "/profile/status", "/profile/status", nil, nil, &done); err != nil {
		return false, err
	}
	return done, nil
}
