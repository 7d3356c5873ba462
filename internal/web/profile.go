package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/service"
	"github.com/courspresso/courspresso-web/internal/utils"
)

// back returns a local redirect target from the form, or fallback.
func back(r *http.Request, fallback string) string {
	b := r.PostForm.Get("back")
	if !strings.HasPrefix(b, "/") || strings.HasPrefix(b, "//") {
		return fallback
	}
	return b
}

func (h *Handler) SaveCourse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.PostForm.Get("courseId"))
	dest := back(r, "/saved")
	if id == "" {
		http.Error(w, "courseId is required", http.StatusBadRequest)
		return
	}
	err := h.Saved.Save(r.Context(), id)
	switch {
	case err == nil:
		h.flash(r, "Course saved.")
	case errors.Is(err, service.ErrAlreadySaved):
		h.flash(r, "Already saved.")
	default:
		if h.sessionLost(w, r, err) {
			return
		}
		h.Log.Warn("save course", zap.String("course", id), zap.Error(err))
		h.flash(r, message(err, "Could not save the course."))
	}
	utils.Redirect(w, r, dest)
}

func (h *Handler) RemoveSavedCourse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	dest := back(r, "/saved")
	if err := h.Saved.Remove(r.Context(), id); err != nil {
		if h.sessionLost(w, r, err) {
			return
		}
		h.Log.Warn("remove saved course", zap.String("course", id), zap.Error(err))
		h.flash(r, message(err, "Could not remove the course."))
	} else {
		h.flash(r, "Course removed.")
	}
	utils.Redirect(w, r, dest)
}

type SavedData struct {
	Saved []models.SavedCourse
}

func (h *Handler) SavedPage(w http.ResponseWriter, r *http.Request) {
	data := &SavedData{}
	p := h.page(w, r, "Saved courses", data)
	saved, err := h.Saved.List(r.Context())
	if err != nil {
		if h.sessionLost(w, r, err) {
			return
		}
		p.Error = message(err, "Could not load saved courses.")
		h.render(w, r, statusFor(err), "saved", p)
		return
	}
	data.Saved = saved
	h.render(w, r, http.StatusOK, "saved", p)
}

type DashboardData struct {
	Dashboard    *service.UserDashboard
	Precondition bool
}

func (h *Handler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromCtx(r.Context())
	data := &DashboardData{}
	p := h.page(w, r, "Dashboard", data)

	d, err := h.Profiles.Dashboard(r.Context(), sess.UserID())
	switch {
	case errors.Is(err, service.ErrPreconditionFailed):
		data.Precondition = true
		h.render(w, r, http.StatusOK, "user_dashboard", p)
		return
	case errors.Is(err, backend.ErrNotFound):
		utils.Redirect(w, r, "/register")
		return
	case err != nil:
		if h.sessionLost(w, r, err) {
			return
		}
		p.Error = message(err, "Could not load your dashboard.")
		h.render(w, r, statusFor(err), "user_dashboard", p)
		return
	}
	if d.Profile == nil {
		utils.Redirect(w, r, "/register")
		return
	}
	data.Dashboard = d
	h.render(w, r, http.StatusOK, "user_dashboard", p)
}

type RegisterData struct {
	Profile         *models.Profile
	Exists          bool
	Platforms       []string
	Difficulties    []string
	EducationLevels []string
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, status int, data *RegisterData, msg string) {
	data.Platforms, data.Difficulties, data.EducationLevels = models.Platforms, difficulties, educationLevels
	title := "Registration"
	if data.Exists {
		title = "Profile"
	}
	p := h.page(w, r, title, data)
	p.Error = msg
	h.render(w, r, status, "register", p)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromCtx(r.Context())
	prof, err := h.Profiles.Existing(r.Context(), sess.UserID())
	if err != nil {
		if h.sessionLost(w, r, err) {
			return
		}
		h.renderRegister(w, r, statusFor(err), &RegisterData{Profile: &models.Profile{}}, message(err, "Could not load your profile."))
		return
	}
	data := &RegisterData{Profile: prof, Exists: prof != nil}
	if prof == nil {
		data.Profile = &models.Profile{}
	}
	h.renderRegister(w, r, http.StatusOK, data, "")
}

// RegisterSubmit creates the profile on first visit and updates it after.
func (h *Handler) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sess := auth.GetSessionFromCtx(ctx)
	f := r.PostForm
	prof := models.Profile{
		FullName:            strings.TrimSpace(f.Get("fullName")),
		PhoneNumber:         strings.TrimSpace(f.Get("phoneNumber")),
		EducationLevel:      f.Get("educationLevel"),
		PreferredPlatform:   f.Get("preferredPlatform"),
		PrimaryInterests:    service.SplitList(f.Get("primaryInterests")),
		LearningGoals:       strings.TrimSpace(f.Get("learningGoals")),
		PreferredDifficulty: f.Get("preferredDifficultyLevel"),
		Hobbies:             service.SplitList(f.Get("hobbies")),
	}

	existing, err := h.Profiles.Existing(ctx, sess.UserID())
	if err == nil {
		err = h.Profiles.Save(ctx, sess.UserID(), sess.Identity().Email, prof, existing != nil)
	}
	if err != nil {
		if h.sessionLost(w, r, err) {
			return
		}
		h.renderRegister(w, r, statusFor(err), &RegisterData{Profile: &prof, Exists: existing != nil}, message(err, "Could not save your profile."))
		return
	}
	h.flash(r, "Profile saved.")
	utils.Redirect(w, r, "/user-dashboard")
}
