package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/courspresso/courspresso-web/internal/models"
)

func (c *Client) AdminListCourses(ctx context.Context, page, size int) ([]models.Course, error) {
	var out courseList
	if err := c.do(ctx, http.MethodGet, "/admin/courses", "/admin/courses", pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminCreateCourse(ctx context.Context, nc models.NewCourse) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodPost, "/admin/courses", "/admin/courses", nil, nc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDeleteCourse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/courses/{id}", "/admin/courses/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) AdminDashboard(ctx context.Context) (*models.AdminStats, error) {
	var out models.AdminStats
	if err := c.do(ctx, http.MethodGet, "/admin/dashboard", "/admin/dashboard", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminListUsers returns non-admin accounts only.
func (c *Client) AdminListUsers(ctx context.Context) ([]models.AdminUser, error) {
	var all []models.AdminUser
	if err := c.do(ctx, http.MethodGet, "/admin/users", "/admin/users", nil, nil, &all); err != nil {
		return nil, err
	}
	users := make([]models.AdminUser, 0, len(all))
	for _, u := range all {
		if r, err := models.ParseRole(u.Role); err == nil && r == models.RoleAdmin {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (c *Client) AdminDeleteUser(ctx context.Context, username string) error {
	q := url.Values{}
	q.Set("username", username)
	return c.do(ctx, http.MethodDelete, "/admin/users", "/admin/users", q, nil, nil)
}
