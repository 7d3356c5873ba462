package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/config"
	"github.com/courspresso/courspresso-web/internal/metrics"
	"github.com/courspresso/courspresso-web/internal/service"
	"github.com/courspresso/courspresso-web/internal/store"
	"github.com/courspresso/courspresso-web/internal/views"
	"github.com/courspresso/courspresso-web/internal/web"
)

func testServer(t *testing.T, csrfKey string) http.Handler {
	t.Helper()
	cfg := &config.Config{
		BindAddr:       ":0",
		AllowedOrigins: []string{"http://localhost:3000"},
		CSRFKey:        csrfKey,
		UploadDir:      t.TempDir(),
	}
	mem := store.NewMemoryStore(time.Hour)
	m := metrics.NewCollector("test")
	cookies, err := auth.NewBrowserCookies("secret", false, time.Hour)
	require.NoError(t, err)
	renderer, err := views.New(zap.NewNop())
	require.NoError(t, err)
	client := backend.NewClient(backend.Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	pages := web.NewHandler(web.Deps{
		Views:    renderer,
		Storage:  mem,
		Catalog:  service.NewCatalog(client),
		Rec:      service.NewRecommender(client, mem),
		Saved:    service.NewSavedCourses(client),
		Feedback: service.NewFeedback(client, mem),
		Accounts: service.NewAccounts(client, mem, zap.NewNop()),
		Profiles: service.NewProfiles(client),
		Admin:    service.NewAdmin(client, nil, zap.NewNop()),
		Log:      zap.NewNop(),
		CSRF:     csrfKey != "",
	})
	return NewServer(cfg, zap.NewNop(), m, mem, cookies, pages, nil).Router()
}

func TestHealthAndMetricsSkipBrowserCookie(t *testing.T) {
	h := testServer(t, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestPagesGetBrowserCookie(t *testing.T) {
	h := testServer(t, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quiz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, auth.BrowserCookieName, w.Result().Cookies()[0].Name)
}

func TestCSRFRejectsTokenlessPost(t *testing.T) {
	h := testServer(t, "0123456789abcdef0123456789abcdef")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="csrf_token"`)

	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{"loginId": {"a"}, "password": {"b"}}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	rl := NewRateLimiter(rdb, 1, time.Minute, nil, zap.NewNop())

	calls := 0
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 3, calls)
}

func TestRateLimiterBlocksAcrossConnections(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	rl := NewRateLimiter(rdb, 2, time.Minute, metrics.NewCollector("test"), zap.NewNop())
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	blocked := 0
	for port := 40000; port < 40010; port++ {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.RemoteAddr = fmt.Sprintf("203.0.113.7:%d", port)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code == http.StatusTooManyRequests {
			blocked++
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, 8, blocked)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:203.0.113.7:/login"))

	// another address and another path have their own windows
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "198.51.100.1:5000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	r = httptest.NewRequest(http.MethodPost, "/signup", nil)
	r.RemoteAddr = "203.0.113.7:40011"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// the window closes and the address may try again
	mr.FastForward(time.Minute + time.Second)
	r = httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "203.0.113.7:40012"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
