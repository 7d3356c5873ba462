package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/quiz"
	"github.com/courspresso/courspresso-web/internal/session"
	"github.com/courspresso/courspresso-web/internal/store"
)

type FilterAPI interface {
	FilterCourses(ctx context.Context, p models.RecommendationPayload) ([]models.Course, error)
}

// Recommender owns the quiz hand-off keys: it stores the finished quiz
// payload and turns it into a persisted recommended course list.
type Recommender struct {
	api     FilterAPI
	storage store.Storage
	now     func() time.Time
}

func NewRecommender(api FilterAPI, s store.Storage) *Recommender {
	return &Recommender{api: api, storage: s, now: time.Now}
}

func (r *Recommender) LoadQuiz(ctx context.Context, browserID string) (*quiz.Flow, error) {
	draft, _, err := store.GetItem(ctx, r.storage, browserID, store.KeyQuizDraft)
	if err != nil {
		return nil, err
	}
	return quiz.Load(draft), nil
}

func (r *Recommender) SaveQuiz(ctx context.Context, browserID string, f *quiz.Flow) error {
	draft, err := f.Marshal()
	if err != nil {
		return err
	}
	return r.storage.SetItems(ctx, browserID, map[string]string{store.KeyQuizDraft: draft})
}

// CompleteQuiz persists the payload built from a finished flow and drops the draft.
func (r *Recommender) CompleteQuiz(ctx context.Context, browserID string, f *quiz.Flow) (models.RecommendationPayload, error) {
	if !f.Done {
		return models.RecommendationPayload{}, quiz.ErrIncompleteLevel
	}
	p := quiz.BuildPayload(f.Answers)
	if err := writeJSON(ctx, r.storage, browserID, store.KeyQuizPayload, p); err != nil {
		return p, err
	}
	return p, r.storage.RemoveItems(ctx, browserID, store.KeyQuizDraft)
}

// Fetch needs a live token and a stored quiz payload. The result is stored
// verbatim for the feedback step. Backend errors are returned as is; nothing
// is retried.
func (r *Recommender) Fetch(ctx context.Context, browserID string) ([]models.Course, error) {
	items, err := r.storage.GetItems(ctx, browserID, store.KeyToken, store.KeyQuizPayload)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(items[store.KeyToken], r.now()) {
		return nil, fmt.Errorf("%w: not signed in", ErrPreconditionFailed)
	}
	var p models.RecommendationPayload
	raw := items[store.KeyQuizPayload]
	if raw == "" || json.Unmarshal([]byte(raw), &p) != nil {
		return nil, fmt.Errorf("%w: quiz not completed", ErrPreconditionFailed)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Platforms == nil {
		p.Platforms = []string{}
	}

	courses, err := r.api.FilterCourses(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := writeJSON(ctx, r.storage, browserID, store.KeyRecommendedCourses, courses); err != nil {
		return nil, err
	}
	// a new list invalidates any half-finished feedback
	if err := r.storage.RemoveItems(ctx, browserID, store.KeyFeedbackDraft); err != nil {
		return nil, err
	}
	return courses, nil
}

// Recommended returns the last stored list; empty when there is none.
func (r *Recommender) Recommended(ctx context.Context, browserID string) ([]models.Course, error) {
	var courses []models.Course
	if _, err := readJSON(ctx, r.storage, browserID, store.KeyRecommendedCourses, &courses); err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// WriteCSV writes courses as Title,Description,Platform,Duration,URL.
func WriteCSV(w io.Writer, courses []models.Course) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Title", "Description", "Platform", "Duration", "URL"}); err != nil {
		return err
	}
	for _, c := range courses {
		if err := cw.Write([]string{c.Title, c.Description, c.Platform, c.Duration, c.URL}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
