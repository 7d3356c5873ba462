package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/session"
	"github.com/courspresso/courspresso-web/internal/store"
)

func testCookies(t *testing.T) *BrowserCookies {
	c, err := NewBrowserCookies("test-secret", false, time.Hour)
	require.NoError(t, err)
	return c
}

func token(t *testing.T, exp time.Time) string {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@x.io", "role": "USER", "exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestCookieSealRoundTrip(t *testing.T) {
	c := testCookies(t)
	v, err := c.Seal("6f1c2a34-3f57-4a43-9d0b-1b6b7d0e0b8e")
	require.NoError(t, err)
	id, err := c.Open(v)
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a34-3f57-4a43-9d0b-1b6b7d0e0b8e", id)

	other, err := NewBrowserCookies("other-secret", false, time.Hour)
	require.NoError(t, err)
	_, err = other.Open(v)
	assert.ErrorIs(t, err, ErrBadCookie)

	_, err = c.Open("not-base64!!")
	assert.ErrorIs(t, err, ErrBadCookie)
}

func TestBrowserIDIssuesCookieOnce(t *testing.T) {
	c := testCookies(t)
	w := httptest.NewRecorder()
	id, err := c.BrowserID(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	again, err := c.BrowserID(w2, r)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Empty(t, w2.Result().Cookies())
}

func serveGated(t *testing.T, mem store.Storage, browserCookie *http.Cookie, htmx bool, roles ...models.Role) *httptest.ResponseRecorder {
	t.Helper()
	h := SessionMiddleware(mem, testCookies(t), zap.NewNop())(
		RequireRoles(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})))
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if browserCookie != nil {
		r.AddCookie(browserCookie)
	}
	if htmx {
		r.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func signedInBrowser(t *testing.T, mem store.Storage, role models.Role, exp time.Time) *http.Cookie {
	t.Helper()
	c := testCookies(t)
	id := "0b7e4f3c-2f1d-4e55-8a55-5a3c0f0e2d11"
	v, err := c.Seal(id)
	require.NoError(t, err)
	require.NoError(t, session.NewBrowserTokenStore(mem, id).Set(context.Background(), session.Entry{
		Identity: models.Identity{Email: "a@x.io"}, Role: role, Token: token(t, exp), UserID: "u1",
	}))
	return &http.Cookie{Name: BrowserCookieName, Value: v}
}

func TestFreshBrowserRedirectedToLogin(t *testing.T) {
	w := serveGated(t, store.NewMemoryStore(time.Hour), nil, false, models.RoleUser)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestUserOnAdminRouteUnauthorized(t *testing.T) {
	mem := store.NewMemoryStore(time.Hour)
	ck := signedInBrowser(t, mem, models.RoleUser, time.Now().Add(time.Hour))
	w := serveGated(t, mem, ck, false, models.RoleAdmin)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/unauthorized", w.Header().Get("Location"))

	w = serveGated(t, mem, ck, false, models.RoleUser)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestExpiredTokenClearedAndRedirected(t *testing.T) {
	mem := store.NewMemoryStore(time.Hour)
	ck := signedInBrowser(t, mem, models.RoleUser, time.Now().Add(-time.Minute))

	w := serveGated(t, mem, ck, true, models.RoleUser)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/login", w.Header().Get("HX-Redirect"))

	items, err := mem.GetItems(context.Background(), "0b7e4f3c-2f1d-4e55-8a55-5a3c0f0e2d11")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPendingSessionRendersNothing(t *testing.T) {
	h := RequireRoles(models.RoleUser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
