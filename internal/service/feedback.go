package service

import (
	"context"

	"github.com/courspresso/courspresso-web/internal/feedback"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/store"
)

type FeedbackAPI interface {
	SubmitFeedback(ctx context.Context, batch models.FeedbackBatch) error
}

type Feedback struct {
	api     FeedbackAPI
	storage store.Storage
}

func NewFeedback(api FeedbackAPI, s store.Storage) *Feedback {
	return &Feedback{api: api, storage: s}
}

// Start builds the flow over the stored recommendations, resuming a draft
// that still matches them.
func (f *Feedback) Start(ctx context.Context, browserID string) (*feedback.Flow, error) {
	var courses []models.Course
	if _, err := readJSON(ctx, f.storage, browserID, store.KeyRecommendedCourses, &courses); err != nil {
		return nil, err
	}
	draft, _, err := store.GetItem(ctx, f.storage, browserID, store.KeyFeedbackDraft)
	if err != nil {
		return nil, err
	}
	return feedback.Resume(draft, courses), nil
}

func (f *Feedback) Save(ctx context.Context, browserID string, flow *feedback.Flow) error {
	draft, err := flow.Marshal()
	if err != nil {
		return err
	}
	return f.storage.SetItems(ctx, browserID, map[string]string{store.KeyFeedbackDraft: draft})
}

// Submit posts the batch and, on success, closes the flow and drops both the
// draft and the recommendations it covered, so the batch cannot be posted twice.
func (f *Feedback) Submit(ctx context.Context, browserID string, flow *feedback.Flow) error {
	batch, err := flow.Submit()
	if err != nil {
		return err
	}
	if err := f.api.SubmitFeedback(ctx, batch); err != nil {
		return err
	}
	flow.MarkSubmitted()
	return f.storage.RemoveItems(ctx, browserID, store.KeyFeedbackDraft, store.KeyRecommendedCourses)
}
