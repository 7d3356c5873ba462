package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/feedback"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/quiz"
	"github.com/courspresso/courspresso-web/internal/service"
	"github.com/courspresso/courspresso-web/internal/store"
	"github.com/courspresso/courspresso-web/internal/utils"
	"github.com/courspresso/courspresso-web/internal/views"
)

var (
	difficulties = []string{
		string(models.DifficultyBeginner), string(models.DifficultyIntermediate), string(models.DifficultyAdvanced),
	}
	durations = []string{
		string(models.DurationOneToFourWeeks), string(models.DurationFourToEightWeeks), string(models.DurationEightPlusWeeks),
	}
	educationLevels = []string{"School", "Diploma", "Undergraduate", "Postgraduate"}
)

// Pinger is anything /health can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Views    *views.Renderer
	Storage  store.Storage
	Backend  Pinger
	Catalog  *service.Catalog
	Rec      *service.Recommender
	Saved    *service.SavedCourses
	Feedback *service.Feedback
	Accounts *service.Accounts
	Profiles *service.Profiles
	Admin    *service.Admin
	Log      *zap.Logger

	FeedbackRedirect time.Duration
	// CSRF is true when the gorilla/csrf middleware is installed.
	CSRF bool
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	if d.FeedbackRedirect <= 0 {
		d.FeedbackRedirect = 3 * time.Second
	}
	return &Handler{Deps: d}
}

// page builds the common template data and pops the pending flash message.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, title string, data any) views.Page {
	p := views.Page{Title: title, Data: data}
	if s := auth.GetSessionFromCtx(r.Context()); s != nil && s.IsAuthenticated() {
		p.Viewer = views.Viewer{
			Email:         s.Identity().Email,
			Role:          string(s.Role()),
			Authenticated: true,
			Admin:         s.Role() == models.RoleAdmin,
		}
	}
	if h.CSRF {
		p.CSRFField = csrf.TemplateField(r)
	}
	if id := auth.GetBrowserIDFromCtx(r.Context()); id != "" {
		msg, ok, err := store.GetItem(r.Context(), h.Storage, id, store.KeyFlash)
		if err == nil && ok {
			p.Flash = msg
			_ = h.Storage.RemoveItems(r.Context(), id, store.KeyFlash)
		}
	}
	return p
}

func (h *Handler) flash(r *http.Request, msg string) {
	id := auth.GetBrowserIDFromCtx(r.Context())
	if err := h.Storage.SetItems(r.Context(), id, map[string]string{store.KeyFlash: msg}); err != nil {
		h.Log.Warn("store flash", zap.Error(err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p views.Page) {
	h.Views.Render(w, r, status, name, p)
}

// savedSet is best effort: anonymous visitors and backend errors get an
// empty set.
func (h *Handler) savedSet(r *http.Request) models.SavedSet {
	s := auth.GetSessionFromCtx(r.Context())
	if s == nil || !s.IsAuthenticated() {
		return models.SavedSet{}
	}
	set, err := h.Saved.Set(r.Context())
	if err != nil {
		h.Log.Debug("load saved courses", zap.Error(err))
		return models.SavedSet{}
	}
	return set
}

// sessionLost reports whether err dropped the session mid-request, in
// which case the browser is sent to /login.
func (h *Handler) sessionLost(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	s := auth.GetSessionFromCtx(r.Context())
	if s != nil && s.IsAuthenticated() {
		return false
	}
	utils.Redirect(w, r, "/login")
	return true
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, utils.ErrValidation),
		errors.Is(err, quiz.ErrIncompleteLevel),
		errors.Is(err, feedback.ErrInvalidRating),
		errors.Is(err, feedback.ErrRatingRequired),
		errors.Is(err, feedback.ErrIncomplete),
		errors.Is(err, feedback.ErrNotLast):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backend.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrConflict), errors.Is(err, service.ErrAlreadySaved),
		errors.Is(err, service.ErrPreconditionFailed):
		return http.StatusConflict
	case errors.Is(err, backend.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// message turns err into text for the page. Validation errors already carry
// readable field messages.
func message(err error, fallback string) string {
	var be *backend.Error
	switch {
	case errors.Is(err, utils.ErrValidation):
		return err.Error()
	case errors.Is(err, backend.ErrBackendUnavailable):
		return "The course service is unavailable right now. Please try again shortly."
	case errors.As(err, &be):
		return backend.Message(err, fallback)
	}
	return fallback
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found", h.page(w, r, "Not found", nil))
}

func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "unauthorized", h.page(w, r, "Unauthorized", nil))
}
