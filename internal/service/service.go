package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/courspresso/courspresso-web/internal/store"
)

var (
	// ErrPreconditionFailed marks expected dead ends, such as a missing quiz
	// payload or user id. Views render them as a terminal state.
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrAlreadySaved       = errors.New("course already saved")
)

// handoffKeys are cleared on sign-out along with the token.
var handoffKeys = []string{
	store.KeyQuizDraft, store.KeyQuizPayload, store.KeyRecommendedCourses, store.KeyFeedbackDraft,
}

func readJSON(ctx context.Context, s store.Storage, browserID, key string, out any) (bool, error) {
	raw, ok, err := store.GetItem(ctx, s, browserID, key)
	if err != nil || !ok || raw == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, nil
	}
	return true, nil
}

func writeJSON(ctx context.Context, s store.Storage, browserID, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.SetItems(ctx, browserID, map[string]string{key: string(b)})
}
