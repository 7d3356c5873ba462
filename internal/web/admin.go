package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/service"
	"github.com/courspresso/courspresso-web/internal/utils"
)

const maxUploadSize = 10 << 20

type AdminData struct {
	Overview  *service.Overview
	Query     string
	Platforms []string
}

func (h *Handler) AdminPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	o := h.Admin.Overview(r.Context(), q)
	if h.sessionLost(w, r, o.StatsErr) {
		return
	}
	data := &AdminData{Overview: o, Query: q, Platforms: models.Platforms}
	h.render(w, r, http.StatusOK, "admin", h.page(w, r, "Admin", data))
}

// CreateCourse accepts the add-course form, with an optional image file.
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.flash(r, "The upload is too large.")
		utils.Redirect(w, r, "/admin")
		return
	}
	nc := models.NewCourse{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		URL:         r.FormValue("url"),
		Platform:    r.FormValue("platform"),
		Tutor:       r.FormValue("tutor"),
		ImageURL:    r.FormValue("imageUrl"),
	}

	var img *service.Image
	if file, hdr, err := r.FormFile("image"); err == nil {
		defer file.Close()
		img = &service.Image{Filename: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Body: file}
	}

	c, err := h.Admin.CreateCourse(r.Context(), nc, img)
	if err != nil {
		if h.sessionLost(w, r, err) {
			return
		}
		h.Log.Warn("create course", zap.Error(err))
		h.flash(r, message(err, "Could not add the course."))
		utils.Redirect(w, r, "/admin")
		return
	}
	h.Log.Info("course created", zap.String("id", c.ID), zap.String("title", c.Title))
	h.flash(r, "Course added.")
	utils.Redirect(w, r, "/admin")
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Admin.DeleteCourse(r.Context(), id); err != nil {
		if h.sessionLost(w, r, err) {
			return
		}
		h.Log.Warn("delete course", zap.String("id", id), zap.Error(err))
		h.flash(r, message(err, "Could not delete the course."))
	} else {
		h.flash(r, "Course deleted.")
	}
	utils.Redirect(w, r, "/admin")
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	if err := h.Admin.DeleteUser(r.Context(), username); err != nil {
		if h.sessionLost(w, r, err) {
			return
		}
		h.Log.Warn("delete user", zap.String("username", username), zap.Error(err))
		h.flash(r, message(err, "Could not delete the user."))
	} else {
		h.flash(r, "User deleted.")
	}
	utils.Redirect(w, r, "/admin")
}
