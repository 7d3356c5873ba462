package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/utils"
)

type ProfileAPI interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	CreateProfile(ctx context.Context, userID string, p models.Profile) error
	UpdateProfile(ctx context.Context, p models.Profile) error
	ListSavedCourses(ctx context.Context) ([]models.SavedCourse, error)
}

type Profiles struct {
	api ProfileAPI
}

func NewProfiles(api ProfileAPI) *Profiles {
	return &Profiles{api: api}
}

type UserDashboard struct {
	Profile *models.Profile
	Saved   []models.SavedCourse
}

// Dashboard loads profile and saved courses in parallel. A missing user id
// is a precondition failure.
func (p *Profiles) Dashboard(ctx context.Context, userID string) (*UserDashboard, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: no stored user id", ErrPreconditionFailed)
	}
	var d UserDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prof, err := p.api.GetProfile(gctx, userID)
		d.Profile = prof
		return err
	})
	g.Go(func() error {
		saved, err := p.api.ListSavedCourses(gctx)
		d.Saved = saved
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Existing returns the stored profile, or nil when the user has none yet.
func (p *Profiles) Existing(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: no stored user id", ErrPreconditionFailed)
	}
	prof, err := p.api.GetProfile(ctx, userID)
	if errors.Is(err, backend.ErrNotFound) {
		return nil, nil
	}
	return prof, err
}

// Save creates the profile on first registration and updates it afterwards.
func (p *Profiles) Save(ctx context.Context, userID, email string, prof models.Profile, exists bool) error {
	if userID == "" {
		return fmt.Errorf("%w: no stored user id", ErrPreconditionFailed)
	}
	prof.Email = email
	if err := utils.ValidateStruct(prof); err != nil {
		return err
	}
	if exists {
		return p.api.UpdateProfile(ctx, prof)
	}
	return p.api.CreateProfile(ctx, userID, prof)
}

// SplitList turns "a, b,,c" into [a b c].
func SplitList(s string) []string {
	out := []string{}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
