package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/courspresso/courspresso-web/internal/metrics"
	"github.com/courspresso/courspresso-web/internal/models"
)

type fakeCreds struct {
	token       string
	invalidated int32
	clearErr    error
}

func (f *fakeCreds) BearerToken() string { return f.token }
func (f *fakeCreds) Invalidate(context.Context) error {
	atomic.AddInt32(&f.invalidated, 1)
	f.token = ""
	return f.clearErr
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, Metrics: metrics.NewCollector("test")})
}

func TestBearerAttached(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	ctx := WithCredentials(context.Background(), &fakeCreds{token: "abc"})
	_, err := c.ListSavedCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)

	_, err = c.ListSavedCourses(WithCredentials(context.Background(), &fakeCreds{}))
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "anonymous calls carry no header")
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
		})
		creds := &fakeCreds{token: "stale"}
		_, err := c.ListSavedCourses(WithCredentials(context.Background(), creds))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "token expired", Message(err, ""))
		assert.Equal(t, int32(1), atomic.LoadInt32(&creds.invalidated))
	}
}

func TestUnauthorizedLogsFailedClear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	core, logs := observer.New(zap.InfoLevel)
	c := NewClient(Options{BaseURL: srv.URL, Logger: zap.New(core)})

	creds := &fakeCreds{token: "stale", clearErr: errors.New("storage down")}
	_, err := c.ListSavedCourses(WithCredentials(context.Background(), creds))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&creds.invalidated))

	failed := logs.FilterMessage("clear rejected token").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "storage down", failed[0].ContextMap()["error"])
}

func TestUnauthorizedWithoutTokenLeavesSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	creds := &fakeCreds{}
	_, err := c.Signin(WithCredentials(context.Background(), creds), "a@x.io", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, atomic.LoadInt32(&creds.invalidated))
}

func TestCourseListShapes(t *testing.T) {
	bodies := map[string]string{
		"array": `[{"id":"1","title":"Go"}]`,
		"page":  `{"content":[{"id":"1","title":"Go"}],"totalElements":1}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "0", r.URL.Query().Get("page"))
				assert.Equal(t, "200", r.URL.Query().Get("size"))
				_, _ = w.Write([]byte(body))
			})
			courses, err := c.ListCourses(context.Background(), 0, 200)
			require.NoError(t, err)
			require.Len(t, courses, 1)
			assert.Equal(t, "Go", courses[0].Title)
		})
	}
}

func TestFilterCoursesSendsPayload(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/courses/filter", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`null`))
	})
	out, err := c.FilterCourses(context.Background(), models.RecommendationPayload{
		Tags: []string{}, Platforms: []string{"Udemy"}, Difficulty: models.DifficultyBeginner, Duration: models.DurationEightPlusWeeks,
	})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, []any{}, got["tags"])
	assert.Equal(t, "", got["goal"])
}

func TestAdminListUsersDropsAdmins(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"username":"root","role":"ADMIN"},{"username":"amy","role":"USER"},{"username":"bo","role":"ROLE_ADMIN"}]`))
	})
	users, err := c.AdminListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "amy", users[0].Username)
}

func TestAdminDeleteUserQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "amy b", r.URL.Query().Get("username"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.AdminDeleteUser(context.Background(), "amy b"))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	for i := 0; i < 5; i++ {
		_, err := c.ListFeedback(context.Background())
		var be *Error
		require.True(t, errors.As(err, &be))
		assert.Equal(t, http.StatusBadGateway, be.Status)
	}
	_, err := c.ListFeedback(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits), "open breaker does not reach the backend")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for i := 0; i < 8; i++ {
		_, err := c.GetCourse(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestResetPasswordUsesStaticBearer(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	})
	require.NoError(t, c.ResetPassword(WithBearer(context.Background(), "reset-tok"), "a@x.io", "new-pass"))
	assert.Equal(t, "Bearer reset-tok", gotAuth)
}

func TestProfileStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`true`))
	})
	done, err := c.ProfileStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
}
