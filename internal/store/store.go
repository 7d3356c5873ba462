package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courspresso/courspresso-web/internal/config"
)

// Keys written into browser storage.
const (
	KeyToken  = "token"
	KeyRole   = "role"
	KeyUserID = "userId"
	KeyEmail  = "email"

	KeyQuizDraft          = "quizDraft"
	KeyQuizPayload        = "quizPayload"
	KeyRecommendedCourses = "recommendedCourses"
	KeyFeedbackDraft      = "feedbackDraft"

	KeyPendingEmail = "pendingEmail"
	KeyOTPPurpose   = "otpPurpose"
	KeyResetToken   = "resetToken"

	// KeyFlash holds a one-shot message shown on the next page.
	KeyFlash = "flash"
)

var ErrEmptyBrowserID = errors.New("empty browser id")

// Storage is a per-browser key-value store. GetItems with no keys returns
// every item; missing keys are absent from the result, never an error.
// SetItems writes all items or none.
type Storage interface {
	GetItems(ctx context.Context, browserID string, keys ...string) (map[string]string, error)
	SetItems(ctx context.Context, browserID string, items map[string]string) error
	RemoveItems(ctx context.Context, browserID string, keys ...string) error
	Clear(ctx context.Context, browserID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Purger is implemented by backends that need explicit expiry of idle browsers.
type Purger interface {
	PurgeStale(ctx context.Context, now time.Time) (int64, error)
}

// Open builds the backend named by cfg.SessionDriver.
func Open(cfg *config.Config) (Storage, error) {
	switch cfg.SessionDriver {
	case "memory":
		return NewMemoryStore(cfg.SessionTTL), nil
	case "bolt":
		return NewBoltStore(cfg.BoltPath, cfg.SessionTTL)
	case "redis":
		return NewRedisStore(cfg.Redis, cfg.SessionTTL)
	case "postgres":
		return NewGormStore(cfg)
	}
	return nil, fmt.Errorf("unsupported session driver %q", cfg.SessionDriver)
}

// GetItem is a convenience wrapper for a single key.
func GetItem(ctx context.Context, s Storage, browserID, key string) (string, bool, error) {
	items, err := s.GetItems(ctx, browserID, key)
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}
