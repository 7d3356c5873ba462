package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/quiz"
	"github.com/courspresso/courspresso-web/internal/service"
)

type HomeData struct {
	Courses      []models.Course
	Query        string
	Filter       service.CourseFilter
	Saved        models.SavedSet
	Platforms    []string
	Difficulties []string
	Durations    []string
	Domains      []quiz.Domain
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := &HomeData{
		Query: q.Get("q"),
		Filter: service.CourseFilter{
			Platform:   q.Get("platform"),
			Duration:   q.Get("duration"),
			Difficulty: q.Get("difficulty"),
		},
		Platforms:    models.Platforms,
		Difficulties: difficulties,
		Durations:    durations,
		Domains:      quiz.Domains,
	}
	p := h.page(w, r, "Courses", data)

	courses, err := h.Catalog.Browse(r.Context(), data.Query)
	if err != nil {
		p.Error = message(err, "Could not load courses.")
		h.render(w, r, statusFor(err), "home", p)
		return
	}
	data.Courses = data.Filter.Apply(courses)
	data.Saved = h.savedSet(r)
	h.render(w, r, http.StatusOK, "home", p)
}

type CourseData struct {
	Course    *models.Course
	Feedbacks []models.CourseFeedback
	Saved     bool
}

func (h *Handler) Course(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := h.Catalog.Detail(r.Context(), id)
	if errors.Is(err, backend.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	data := &CourseData{}
	p := h.page(w, r, "Course", data)
	if err != nil {
		p.Error = message(err, "Could not load the course.")
		h.render(w, r, statusFor(err), "course", p)
		return
	}
	data.Course, data.Feedbacks = detail.Course, detail.Feedbacks
	data.Saved = h.savedSet(r).Has(id)
	p.Title = detail.Course.Title
	h.render(w, r, http.StatusOK, "course", p)
}

type DomainData struct {
	Domain  quiz.Domain
	Domains []quiz.Domain
	Courses []models.Course
	Saved   models.SavedSet
}

func (h *Handler) Domain(w http.ResponseWriter, r *http.Request) {
	d, ok := quiz.DomainBySlug(chi.URLParam(r, "slug"))
	if !ok {
		h.NotFound(w, r)
		return
	}
	others := make([]quiz.Domain, 0, len(quiz.Domains)-1)
	for _, o := range quiz.Domains {
		if o.Slug != d.Slug {
			others = append(others, o)
		}
	}
	data := &DomainData{Domain: d, Domains: others}
	p := h.page(w, r, d.Name, data)

	courses, err := h.Catalog.ByDomain(r.Context(), d)
	if err != nil {
		p.Error = message(err, "Could not load courses.")
		h.render(w, r, statusFor(err), "domain", p)
		return
	}
	data.Courses = courses
	data.Saved = h.savedSet(r)
	h.render(w, r, http.StatusOK, "domain", p)
}
