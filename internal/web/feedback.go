package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/feedback"
	"github.com/courspresso/courspresso-web/internal/utils"
)

type FeedbackData struct {
	Flow            *feedback.Flow
	Current         feedback.Item
	RedirectSeconds int
}

func (h *Handler) renderFeedback(w http.ResponseWriter, r *http.Request, status int, f *feedback.Flow, msg string) {
	data := &FeedbackData{Flow: f, RedirectSeconds: int(h.FeedbackRedirect.Seconds())}
	data.Current, _ = f.Current()
	p := h.page(w, r, "Feedback", data)
	p.Error = msg
	h.render(w, r, status, "feedback", p)
}

func (h *Handler) FeedbackPage(w http.ResponseWriter, r *http.Request) {
	f, err := h.Feedback.Start(r.Context(), auth.GetBrowserIDFromCtx(r.Context()))
	if err != nil {
		h.Log.Error("start feedback", zap.Error(err))
		http.Error(w, "could not load feedback", http.StatusInternalServerError)
		return
	}
	h.renderFeedback(w, r, http.StatusOK, f, "")
}

// FeedbackSubmit records the current course's answers, then moves prev,
// next or submits the batch. After a successful submit the browser is sent
// home after a short delay.
func (h *Handler) FeedbackSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	browserID := auth.GetBrowserIDFromCtx(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	f, err := h.Feedback.Start(ctx, browserID)
	if err != nil {
		h.Log.Error("start feedback", zap.Error(err))
		http.Error(w, "could not load feedback", http.StatusInternalServerError)
		return
	}
	if f.State != feedback.StateCollecting {
		utils.Redirect(w, r, "/feedback")
		return
	}

	if v := r.PostForm.Get("rating"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			n = 0
		}
		if err := f.Rate(n); err != nil {
			h.renderFeedback(w, r, statusFor(err), f, "Rating must be between 1 and 5.")
			return
		}
	}
	_ = f.SetEnrolled(r.PostForm.Get("enrolled") == "true")
	_ = f.SetComments(r.PostForm.Get("comments"))

	var stepErr error
	switch r.PostForm.Get("action") {
	case "prev":
		f.Prev()
	case "submit":
		stepErr = h.Feedback.Submit(ctx, browserID, f)
		if stepErr == nil {
			w.Header().Set("Refresh", fmt.Sprintf("%d;url=/", int(h.FeedbackRedirect.Seconds())))
			h.renderFeedback(w, r, http.StatusOK, f, "")
			return
		}
		if h.sessionLost(w, r, stepErr) {
			return
		}
	default:
		stepErr = f.Next()
	}

	if err := h.Feedback.Save(ctx, browserID, f); err != nil {
		h.Log.Error("save feedback draft", zap.Error(err))
	}
	if stepErr != nil {
		h.renderFeedback(w, r, statusFor(stepErr), f, feedbackMessage(stepErr))
		return
	}
	h.renderFeedback(w, r, http.StatusOK, f, "")
}

func feedbackMessage(err error) string {
	switch {
	case errors.Is(err, feedback.ErrRatingRequired):
		return "Please rate this course before moving on."
	case errors.Is(err, feedback.ErrIncomplete):
		return "Please rate every course before submitting."
	case errors.Is(err, feedback.ErrNotLast):
		return "Go to the last course to submit."
	}
	return message(err, "Could not submit feedback. Please try again.")
}
