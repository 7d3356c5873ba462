package session

import (
	"context"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/store"
)

// Entry is what the token store persists for a signed-in browser.
type Entry struct {
	Identity models.Identity
	Role     models.Role
	Token    string
	UserID   string
}

// TokenStore is the single writer of persisted auth state.
type TokenStore interface {
	Get(ctx context.Context) (Entry, bool, error)
	Set(ctx context.Context, e Entry) error
	Clear(ctx context.Context) error
}

var tokenKeys = []string{store.KeyToken, store.KeyRole, store.KeyEmail, store.KeyUserID}

// BrowserTokenStore keeps the entry in one browser's storage.
type BrowserTokenStore struct {
	storage   store.Storage
	browserID string
}

func NewBrowserTokenStore(s store.Storage, browserID string) *BrowserTokenStore {
	return &BrowserTokenStore{storage: s, browserID: browserID}
}

// Get reports false when token, role or email is missing, or the stored
// role is not one we know.
func (t *BrowserTokenStore) Get(ctx context.Context) (Entry, bool, error) {
	items, err := t.storage.GetItems(ctx, t.browserID, tokenKeys...)
	if err != nil {
		return Entry{}, false, err
	}
	token, email, rawRole := items[store.KeyToken], items[store.KeyEmail], items[store.KeyRole]
	if token == "" || email == "" || rawRole == "" {
		return Entry{}, false, nil
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return Entry{}, false, nil
	}
	return Entry{
		Identity: models.Identity{Email: email},
		Role:     role,
		Token:    token,
		UserID:   items[store.KeyUserID],
	}, true, nil
}

func (t *BrowserTokenStore) Set(ctx context.Context, e Entry) error {
	return t.storage.SetItems(ctx, t.browserID, map[string]string{
		store.KeyToken:  e.Token,
		store.KeyRole:   string(e.Role),
		store.KeyEmail:  e.Identity.Email,
		store.KeyUserID: e.UserID,
	})
}

func (t *BrowserTokenStore) Clear(ctx context.Context) error {
	return t.storage.RemoveItems(ctx, t.browserID, tokenKeys...)
}
