package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/session"
	"github.com/courspresso/courspresso-web/internal/store"
	"github.com/courspresso/courspresso-web/internal/utils"
)

type ctxKey string

const (
	ctxSessionKey ctxKey = "authSession"
	ctxBrowserKey ctxKey = "browserID"
)

func GetSessionFromCtx(ctx context.Context) *session.AuthSession {
	if s, ok := ctx.Value(ctxSessionKey).(*session.AuthSession); ok {
		return s
	}
	return nil
}

func GetBrowserIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(ctxBrowserKey).(string)
	return id
}

// WithSession puts a resolved session on ctx. Handlers and tests use it
// when they build a context by hand.
func WithSession(ctx context.Context, browserID string, s *session.AuthSession) context.Context {
	ctx = context.WithValue(ctx, ctxBrowserKey, browserID)
	ctx = context.WithValue(ctx, ctxSessionKey, s)
	return backend.WithCredentials(ctx, s)
}

// SessionMiddleware identifies the browser and resolves its AuthSession
// before any route gate runs.
func SessionMiddleware(s store.Storage, cookies *BrowserCookies, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			browserID, err := cookies.BrowserID(w, r)
			if err != nil {
				log.Error("issue browser cookie", zap.Error(err))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			sess := session.NewAuthSession(session.NewBrowserTokenStore(s, browserID))
			if err := sess.Resolve(r.Context()); err != nil {
				log.Warn("resolve session", zap.String("browser", browserID), zap.Error(err))
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), browserID, sess)))
		})
	}
}

// RequireRoles gates a route on the resolved session, usage:
// RequireRoles(models.RoleAdmin).
func RequireRoles(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch GetSessionFromCtx(r.Context()).Authorize(allowedRoles...) {
			case session.DecisionAllow:
				next.ServeHTTP(w, r)
			case session.DecisionLogin:
				utils.Redirect(w, r, "/login")
			case session.DecisionUnauthorized:
				utils.Redirect(w, r, "/unauthorized")
			default:
				w.WriteHeader(http.StatusNoContent)
			}
		})
	}
}

// RedirectAuthenticated sends signed-in users away from the login and
// signup pages.
func RedirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSessionFromCtx(r.Context())
		if s != nil && s.IsAuthenticated() {
			dest := "/"
			if s.Role() == models.RoleAdmin {
				dest = "/admin"
			}
			utils.Redirect(w, r, dest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
