package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/courspresso/courspresso-web/internal/models"
)

type State int

const (
	StateUninitialized State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "uninitialized"
}

var (
	ErrTokenExpired    = errors.New("token expired or undecodable")
	ErrMissingIdentity = errors.New("identity and role are required")
)

// AuthSession is a cached view of the token store for one browser. It
// starts Uninitialized; Resolve settles it to Anonymous or Authenticated.
type AuthSession struct {
	mu     sync.RWMutex
	tokens TokenStore
	now    func() time.Time

	state State
	entry Entry
}

func NewAuthSession(tokens TokenStore) *AuthSession {
	return &AuthSession{tokens: tokens, now: time.Now}
}

// Resolve is the page-load transition. A storage read error still settles
// the session as Anonymous and is returned for logging.
func (s *AuthSession) Resolve(ctx context.Context) error {
	e, ok, err := s.tokens.Get(ctx)
	if err == nil && ok && !IsExpired(e.Token, s.now()) {
		s.set(StateAuthenticated, e)
		return nil
	}
	s.set(StateAnonymous, Entry{})
	if err != nil {
		return err
	}
	return s.tokens.Clear(ctx)
}

func (s *AuthSession) Login(ctx context.Context, identity models.Identity, role models.Role, token, userID string) error {
	if identity.Email == "" || role == "" {
		return ErrMissingIdentity
	}
	if IsExpired(token, s.now()) {
		return ErrTokenExpired
	}
	e := Entry{Identity: identity, Role: role, Token: token, UserID: userID}
	if err := s.tokens.Set(ctx, e); err != nil {
		return err
	}
	s.set(StateAuthenticated, e)
	return nil
}

// Logout is idempotent.
func (s *AuthSession) Logout(ctx context.Context) error {
	s.set(StateAnonymous, Entry{})
	return s.tokens.Clear(ctx)
}

// Invalidate drops the session after the backend rejected its token. The
// in-memory state is anonymous even when clearing storage fails.
func (s *AuthSession) Invalidate(ctx context.Context) error {
	return s.Logout(ctx)
}

func (s *AuthSession) set(st State, e Entry) {
	s.mu.Lock()
	s.state, s.entry = st, e
	s.mu.Unlock()
}

func (s *AuthSession) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *AuthSession) Identity() models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Identity
}

func (s *AuthSession) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Role
}

func (s *AuthSession) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.UserID
}

// BearerToken is empty unless the session is Authenticated.
func (s *AuthSession) BearerToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return ""
	}
	return s.entry.Token
}

func (s *AuthSession) IsAuthenticated() bool { return s.State() == StateAuthenticated }

func (s *AuthSession) HasRole(r models.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.entry.Role == r
}

// Authorize runs the route gate against the current state.
func (s *AuthSession) Authorize(allowed ...models.Role) Decision {
	if s == nil {
		return DecisionPending
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Evaluate(s.state, s.entry.Role, allowed)
}
