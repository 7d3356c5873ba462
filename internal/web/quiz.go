package web

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/quiz"
	"github.com/courspresso/courspresso-web/internal/service"
	"github.com/courspresso/courspresso-web/internal/utils"
)

type QuizData struct {
	Flow         *quiz.Flow
	Domains      []quiz.Domain
	Platforms    []string
	Difficulties []string
}

func (h *Handler) renderQuiz(w http.ResponseWriter, r *http.Request, status int, f *quiz.Flow, msg string) {
	data := &QuizData{Flow: f, Domains: quiz.Domains, Platforms: models.Platforms, Difficulties: difficulties}
	p := h.page(w, r, "Interest quiz", data)
	p.Error = msg
	h.render(w, r, status, "quiz", p)
}

func (h *Handler) Quiz(w http.ResponseWriter, r *http.Request) {
	f, err := h.Rec.LoadQuiz(r.Context(), auth.GetBrowserIDFromCtx(r.Context()))
	if err != nil {
		h.Log.Error("load quiz draft", zap.Error(err))
		f = quiz.New()
	}
	// a finished draft whose payload was never stored reopens the last level
	f.Done = false
	h.renderQuiz(w, r, http.StatusOK, f, "")
}

// QuizSubmit handles next and back. Finishing the last level stores the
// payload and sends the browser to /recommendations.
func (h *Handler) QuizSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	browserID := auth.GetBrowserIDFromCtx(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	f, err := h.Rec.LoadQuiz(ctx, browserID)
	if err != nil {
		h.Log.Error("load quiz draft", zap.Error(err))
		f = quiz.New()
	}
	f.Apply(r.PostForm)

	var stepErr error
	if r.PostForm.Get("action") == "back" {
		f.Back()
	} else {
		stepErr = f.Advance()
	}

	if stepErr == nil && f.Done {
		if _, err := h.Rec.CompleteQuiz(ctx, browserID, f); err != nil {
			h.Log.Error("complete quiz", zap.Error(err))
			h.renderQuiz(w, r, http.StatusInternalServerError, f, "Could not save your answers. Please try again.")
			return
		}
		utils.Redirect(w, r, "/recommendations")
		return
	}
	if err := h.Rec.SaveQuiz(ctx, browserID, f); err != nil {
		h.Log.Error("save quiz draft", zap.Error(err))
	}

	switch {
	case errors.Is(stepErr, quiz.ErrIncompleteLevel):
		h.renderQuiz(w, r, statusFor(stepErr), f, fmt.Sprintf("Please answer every question on level %d.", f.Level))
	case stepErr != nil:
		h.renderQuiz(w, r, http.StatusConflict, f, stepErr.Error())
	default:
		h.renderQuiz(w, r, http.StatusOK, f, "")
	}
}

type RecData struct {
	Courses      []models.Course
	Saved        models.SavedSet
	Precondition bool
}

// Recommendations fetches a fresh list for the stored quiz payload.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := &RecData{}
	p := h.page(w, r, "Recommendations", data)

	courses, err := h.Rec.Fetch(ctx, auth.GetBrowserIDFromCtx(ctx))
	switch {
	case errors.Is(err, service.ErrPreconditionFailed):
		data.Precondition = true
		h.render(w, r, http.StatusOK, "recommendations", p)
		return
	case err != nil:
		if h.sessionLost(w, r, err) {
			return
		}
		h.Log.Warn("fetch recommendations", zap.Error(err))
		p.Error = message(err, "Could not load recommendations.")
		h.render(w, r, statusFor(err), "recommendations", p)
		return
	}
	data.Courses = courses
	data.Saved = h.savedSet(r)
	h.render(w, r, http.StatusOK, "recommendations", p)
}

// RecommendationsCSV downloads the last stored list.
func (h *Handler) RecommendationsCSV(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Rec.Recommended(r.Context(), auth.GetBrowserIDFromCtx(r.Context()))
	if err != nil {
		h.Log.Error("read recommendations", zap.Error(err))
		http.Error(w, "could not read recommendations", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="recommendations.csv"`)
	if err := service.WriteCSV(w, courses); err != nil {
		h.Log.Warn("write csv", zap.Error(err))
	}
}
