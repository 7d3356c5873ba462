package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/feedback"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/quiz"
	"github.com/courspresso/courspresso-web/internal/session"
	"github.com/courspresso/courspresso-web/internal/store"
	"github.com/courspresso/courspresso-web/internal/utils"
)

const browser = "b-1"

func jwtFor(t *testing.T, sub, role string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "role": role, "exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

// fakeBackend records requests and answers from a route table.
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]func(w http.ResponseWriter, r *http.Request)
	calls  []string
	bodies map[string][]byte
}

func newFakeBackend(t *testing.T) (*fakeBackend, *backend.Client) {
	fb := &fakeBackend{routes: map[string]func(http.ResponseWriter, *http.Request){}, bodies: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.calls = append(fb.calls, key)
		fb.bodies[key] = body
		h := fb.routes[key]
		fb.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, backend.NewClient(backend.Options{BaseURL: srv.URL})
}

func (f *fakeBackend) on(key string, h func(w http.ResponseWriter, r *http.Request)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key] = h
}

func (f *fakeBackend) body(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func (f *fakeBackend) hits(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func jsonReply(v any) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestRecommenderPreconditions(t *testing.T) {
	ctx := context.Background()
	_, client := newFakeBackend(t)
	mem := store.NewMemoryStore(time.Hour)
	r := NewRecommender(client, mem)

	_, err := r.Fetch(ctx, browser)
	assert.ErrorIs(t, err, ErrPreconditionFailed, "no token, no payload")

	require.NoError(t, mem.SetItems(ctx, browser, map[string]string{
		store.KeyToken: jwtFor(t, "a@x.io", "USER", time.Now().Add(time.Hour)),
	}))
	_, err = r.Fetch(ctx, browser)
	assert.ErrorIs(t, err, ErrPreconditionFailed, "no payload")

	require.NoError(t, mem.SetItems(ctx, browser, map[string]string{
		store.KeyToken:       jwtFor(t, "a@x.io", "USER", time.Now().Add(-time.Hour)),
		store.KeyQuizPayload: `{"tags":[]}`,
	}))
	_, err = r.Fetch(ctx, browser)
	assert.ErrorIs(t, err, ErrPreconditionFailed, "expired token")
}

func TestQuizToRecommendationsToFeedback(t *testing.T) {
	ctx := context.Background()
	fb, client := newFakeBackend(t)
	mem := store.NewMemoryStore(time.Hour)
	tok := jwtFor(t, "a@x.io", "USER", time.Now().Add(time.Hour))
	require.NoError(t, mem.SetItems(ctx, browser, map[string]string{store.KeyToken: tok}))

	fb.on("POST /courses/filter", jsonReply([]models.Course{{ID: "c1", Title: "Intro to Security"}, {ID: "c2", Title: "Blockchain"}}))
	fb.on("POST /feedback", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) })

	rec := NewRecommender(client, mem)
	f, err := rec.LoadQuiz(ctx, browser)
	require.NoError(t, err)
	f.Apply(map[string][]string{"interest": {"Cybersecurity"}, "learningStyle": {"video"}})
	require.NoError(t, f.Advance())
	require.NoError(t, rec.SaveQuiz(ctx, browser, f))

	f, err = rec.LoadQuiz(ctx, browser)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Level, "draft survives a page load")
	f.Apply(map[string][]string{"courseLength": {"short"}, "platforms": {"Udemy"}})
	require.NoError(t, f.Advance())
	f.Apply(map[string][]string{"difficulty": {"INTERMEDIATE"}})
	require.NoError(t, f.Advance())

	_, err = rec.CompleteQuiz(ctx, browser, f)
	require.NoError(t, err)
	_, ok, _ := store.GetItem(ctx, mem, browser, store.KeyQuizDraft)
	assert.False(t, ok)

	ctx = backend.WithBearer(ctx, tok)
	courses, err := rec.Fetch(ctx, browser)
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	assert.JSONEq(t,
		`{"tags":["Security","Cryptocurrency","Blockchain"],"platforms":["Udemy"],"difficulty":"INTERMEDIATE","duration":"ONE_TO_FOUR_WEEKS","goal":""}`,
		string(fb.body("POST /courses/filter")))

	stored, err := rec.Recommended(ctx, browser)
	require.NoError(t, err)
	assert.Equal(t, courses, stored)

	fs := NewFeedback(client, mem)
	flow, err := fs.Start(ctx, browser)
	require.NoError(t, err)
	require.Equal(t, feedback.StateCollecting, flow.State)
	require.NoError(t, flow.Rate(5))
	require.NoError(t, fs.Save(ctx, browser, flow))
	flow, err = fs.Start(ctx, browser)
	require.NoError(t, err)
	require.NoError(t, flow.Next())
	require.NoError(t, flow.Rate(3))
	require.NoError(t, fs.Submit(ctx, browser, flow))
	assert.Equal(t, feedback.StateSubmitted, flow.State)
	assert.JSONEq(t,
		`{"courseFeedbacks":[{"courseId":"c1","rating":5,"enrolled":false},{"courseId":"c2","rating":3,"enrolled":false}]}`,
		string(fb.body("POST /feedback")))

	_, ok, _ = store.GetItem(ctx, mem, browser, store.KeyFeedbackDraft)
	assert.False(t, ok)

	// a second visit finds nothing left to rate
	flow, err = fs.Start(ctx, browser)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateEmpty, flow.State)
	_, err = flow.Submit()
	assert.Error(t, err)
	assert.Equal(t, 1, fb.hits("POST /feedback"))
}

func TestFeedbackWithoutRecommendationsIsEmpty(t *testing.T) {
	_, client := newFakeBackend(t)
	flow, err := NewFeedback(client, store.NewMemoryStore(time.Hour)).Start(context.Background(), browser)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateEmpty, flow.State)
}

func TestFeedbackSubmitFailureKeepsFlowOpen(t *testing.T) {
	ctx := context.Background()
	fb, client := newFakeBackend(t)
	fb.on("POST /feedback", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	mem := store.NewMemoryStore(time.Hour)
	flow := feedback.New([]models.Course{{ID: "c1"}})
	require.NoError(t, flow.Rate(4))
	err := NewFeedback(client, mem).Submit(ctx, browser, flow)
	require.Error(t, err)
	assert.Equal(t, feedback.StateCollecting, flow.State)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.Course{
		{Title: "Go, fast", Description: `say "hi"`, Platform: "Udemy", Duration: "ONE_TO_FOUR_WEEKS", URL: "https://u/1"},
	}))
	assert.Equal(t, "Title,Description,Platform,Duration,URL\n\"Go, fast\",\"say \"\"hi\"\"\",Udemy,ONE_TO_FOUR_WEEKS,https://u/1\n", buf.String())
}

func TestSavedCoursesDuplicateIsNoop(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("GET /saved-courses", jsonReply([]models.SavedCourse{{CourseID: "c1"}}))
	var posts int
	fb.on("POST /saved-courses", func(w http.ResponseWriter, r *http.Request) {
		posts++
		assert.Equal(t, "c2", r.URL.Query().Get("courseId"))
	})
	s := NewSavedCourses(client)
	assert.ErrorIs(t, s.Save(context.Background(), "c1"), ErrAlreadySaved)
	require.NoError(t, s.Save(context.Background(), "c2"))
	assert.Equal(t, 1, posts)
}

func newSession(mem store.Storage) *session.AuthSession {
	return session.NewAuthSession(session.NewBrowserTokenStore(mem, browser))
}

func TestSignInDestinations(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		status func(http.ResponseWriter, *http.Request)
		want   string
	}{
		{"admin", "ADMIN", nil, "/admin"},
		{"registered user", "USER", jsonReply(true), "/user-dashboard"},
		{"new user", "USER", jsonReply(false), "/register"},
		{"status failure", "USER", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) }, "/register"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, client := newFakeBackend(t)
			tok := jwtFor(t, "a@x.io", tt.role, time.Now().Add(time.Hour))
			fb.on("POST /api/auth/signin", jsonReply(models.SigninResponse{UserID: "42", LoginID: "a@x.io", Role: tt.role, Token: tok}))
			var gotAuth string
			fb.on("GET /profile/status", func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				if tt.status != nil {
					tt.status(w, r)
				}
			})

			mem := store.NewMemoryStore(time.Hour)
			sess := newSession(mem)
			require.NoError(t, sess.Resolve(context.Background()))
			ctx := backend.WithCredentials(context.Background(), sess)

			dest, err := NewAccounts(client, mem, zap.NewNop()).SignIn(ctx, sess, SignInForm{LoginID: "a@x.io", Password: "pw"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, dest)
			assert.True(t, sess.IsAuthenticated())
			assert.Equal(t, "42", sess.UserID())
			if tt.role == "USER" {
				assert.Equal(t, "Bearer "+tok, gotAuth)
			}
			assert.JSONEq(t, `{"loginId":"a@x.io","password":"pw"}`, string(fb.body("POST /api/auth/signin")))
		})
	}
}

func TestSignInRejectsExpiredToken(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("POST /api/auth/signin", jsonReply(models.SigninResponse{Role: "USER", Token: jwtFor(t, "a@x.io", "USER", time.Now().Add(-time.Hour))}))
	mem := store.NewMemoryStore(time.Hour)
	sess := newSession(mem)
	_, err := NewAccounts(client, mem, zap.NewNop()).SignIn(context.Background(), sess, SignInForm{LoginID: "a", Password: "b"})
	assert.ErrorIs(t, err, session.ErrTokenExpired)
	assert.False(t, sess.IsAuthenticated())
}

func TestSignInValidation(t *testing.T) {
	_, client := newFakeBackend(t)
	mem := store.NewMemoryStore(time.Hour)
	_, err := NewAccounts(client, mem, zap.NewNop()).SignIn(context.Background(), newSession(mem), SignInForm{})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	fb, client := newFakeBackend(t)
	fb.on("POST /api/auth/request-otp", func(http.ResponseWriter, *http.Request) {})
	fb.on("POST /api/auth/verify-otp", jsonReply(map[string]string{"token": "reset-tok"}))
	var resetAuth string
	fb.on("POST /api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) { resetAuth = r.Header.Get("Authorization") })

	mem := store.NewMemoryStore(time.Hour)
	a := NewAccounts(client, mem, zap.NewNop())

	_, err := a.VerifyOTP(ctx, browser, "123456")
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	require.NoError(t, a.RequestPasswordReset(ctx, browser, "a@x.io"))
	email, purpose, ok, err := a.PendingOTP(ctx, browser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@x.io", email)
	assert.Equal(t, models.OTPPasswordReset, purpose)

	dest, err := a.VerifyOTP(ctx, browser, " 123456 ")
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", dest)
	assert.JSONEq(t, `{"email":"a@x.io","otp":"123456","purpose":"PASSWORD_RESET"}`, string(fb.body("POST /api/auth/verify-otp")))

	err = a.ResetPassword(ctx, browser, ResetForm{NewPassword: "secret1", Confirm: "nope"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	require.NoError(t, a.ResetPassword(ctx, browser, ResetForm{NewPassword: "secret1", Confirm: "secret1"}))
	assert.Equal(t, "Bearer reset-tok", resetAuth)
	items, err := mem.GetItems(ctx, browser)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSignUpThenVerify(t *testing.T) {
	ctx := context.Background()
	fb, client := newFakeBackend(t)
	fb.on("POST /api/auth/signup", func(http.ResponseWriter, *http.Request) {})
	fb.on("POST /api/auth/verify-otp", jsonReply(map[string]string{"message": "verified"}))
	mem := store.NewMemoryStore(time.Hour)
	a := NewAccounts(client, mem, zap.NewNop())

	require.NoError(t, a.SignUp(ctx, browser, SignUpForm{Email: "new@x.io", Username: "newbie", Password: "secret1"}))
	assert.JSONEq(t, `{"email":"new@x.io","username":"newbie","password":"secret1","role":"user","authProvider":"local"}`,
		string(fb.body("POST /api/auth/signup")))

	dest, err := a.VerifyOTP(ctx, browser, "999999")
	require.NoError(t, err)
	assert.Equal(t, "/login", dest)
	_, _, ok, err := a.PendingOTP(ctx, browser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignOutClearsHandoffKeys(t *testing.T) {
	ctx := context.Background()
	_, client := newFakeBackend(t)
	mem := store.NewMemoryStore(time.Hour)
	sess := newSession(mem)
	require.NoError(t, sess.Login(ctx, models.Identity{Email: "a@x.io"}, models.RoleUser, jwtFor(t, "a@x.io", "USER", time.Now().Add(time.Hour)), "1"))
	require.NoError(t, mem.SetItems(ctx, browser, map[string]string{store.KeyRecommendedCourses: "[]", store.KeyPendingEmail: "x"}))

	require.NoError(t, NewAccounts(client, mem, zap.NewNop()).SignOut(ctx, sess, browser))
	items, err := mem.GetItems(ctx, browser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{store.KeyPendingEmail: "x"}, items)
	assert.False(t, sess.IsAuthenticated())
}

func TestProfilesDashboard(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("GET /profile/42", jsonReply(models.Profile{FullName: "Ada"}))
	fb.on("GET /saved-courses", jsonReply([]models.SavedCourse{{CourseID: "c1", Title: "Go"}}))
	p := NewProfiles(client)

	_, err := p.Dashboard(context.Background(), "")
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	d, err := p.Dashboard(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Ada", d.Profile.FullName)
	assert.Len(t, d.Saved, 1)

	prof, err := p.Existing(context.Background(), "7")
	require.NoError(t, err)
	assert.Nil(t, prof)
}

func TestProfilesSave(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("POST /profile/42", func(http.ResponseWriter, *http.Request) {})
	p := NewProfiles(client)

	err := p.Save(context.Background(), "42", "a@x.io", models.Profile{FullName: "Ada", EducationLevel: "PhD"}, false)
	assert.ErrorIs(t, err, utils.ErrValidation)

	require.NoError(t, p.Save(context.Background(), "42", "a@x.io", models.Profile{
		FullName: "Ada", EducationLevel: "Postgraduate", PrimaryInterests: SplitList("AI, ,Go"),
	}, false))
	assert.Contains(t, string(fb.body("POST /profile/42")), `"primaryInterests":["AI","Go"]`)
}

func TestCatalogByDomain(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("GET /courses", jsonReply(map[string]any{"content": []models.Course{
		{ID: "1", Tags: []string{"security"}},
		{ID: "2", Tags: []string{"Python"}},
		{ID: "3"},
	}}))
	d, _ := quiz.DomainBySlug("cybersecurity")
	got, err := NewCatalog(client).ByDomain(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestCourseFilter(t *testing.T) {
	courses := []models.Course{
		{ID: "1", Platform: "Udemy", DifficultyLevel: "BEGINNER"},
		{ID: "2", Platform: "Coursera", DifficultyLevel: "BEGINNER"},
	}
	got := CourseFilter{Platform: "udemy"}.Apply(courses)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Len(t, CourseFilter{}.Apply(courses), 2)
}

type memImages struct {
	saved   map[string]string
	deleted []string
}

func (m *memImages) SaveFile(_ context.Context, subDir, name, _ string, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	key := subDir + "/" + name
	m.saved[key] = string(b)
	return key, nil
}
func (m *memImages) DeleteFile(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}
func (m *memImages) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestAdminCreateCourseWithImage(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("POST /admin/courses", jsonReply(models.Course{ID: "9"}))
	imgs := &memImages{saved: map[string]string{}}
	a := NewAdmin(client, imgs, zap.NewNop())

	c, err := a.CreateCourse(context.Background(), models.NewCourse{
		Title: "Go", Description: "d", URL: "https://go.dev", Platform: "udemy",
	}, &Image{Filename: "go.png", Body: strings.NewReader(pngBytes)})
	require.NoError(t, err)
	assert.Equal(t, "9", c.ID)
	assert.Contains(t, string(fb.body("POST /admin/courses")), `"imageUrl":"https://cdn.example.com/course-images/go.png"`)
	assert.Contains(t, string(fb.body("POST /admin/courses")), `"platform":"Udemy"`)

	assert.Equal(t, pngBytes, imgs.saved["course-images/go.png"])

	_, err = a.CreateCourse(context.Background(), models.NewCourse{Title: "x"}, &Image{Filename: "bad.png", Body: strings.NewReader(pngBytes)})
	assert.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{"course-images/bad.png"}, imgs.deleted)
}

const pngBytes = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func TestAdminCreateCourseRejectsNonImages(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("POST /admin/courses", jsonReply(models.Course{ID: "9"}))
	imgs := &memImages{saved: map[string]string{}}
	a := NewAdmin(client, imgs, zap.NewNop())
	nc := models.NewCourse{Title: "Go", Description: "d", URL: "https://go.dev", Platform: "Udemy"}

	for name, img := range map[string]*Image{
		"html file":            {Filename: "x.html", ContentType: "text/html", Body: strings.NewReader("<script>alert(1)</script>")},
		"html behind png name": {Filename: "x.png", ContentType: "image/png", Body: strings.NewReader("<html><script>alert(1)</script>")},
		"png behind svg name":  {Filename: "x.svg", ContentType: "image/svg+xml", Body: strings.NewReader(pngBytes)},
		"gif named as jpeg":    {Filename: "x.JPG", Body: strings.NewReader("GIF89a....")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.CreateCourse(context.Background(), nc, img)
			assert.ErrorIs(t, err, ErrUnsupportedImage)
			assert.ErrorIs(t, err, utils.ErrValidation)
		})
	}
	assert.Empty(t, imgs.saved)
	assert.Zero(t, fb.hits("POST /admin/courses"))
}

func TestAdminOverviewSectionsFailIndependently(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on("GET /admin/dashboard", jsonReply(models.AdminStats{TotalUsers: 3}))
	fb.on("GET /courses", jsonReply([]models.Course{{ID: "1"}}))
	o := NewAdmin(client, nil, zap.NewNop()).Overview(context.Background(), "")
	assert.NoError(t, o.StatsErr)
	assert.Equal(t, 3, o.Stats.TotalUsers)
	assert.Len(t, o.Courses, 1)
	assert.ErrorIs(t, o.UsersErr, backend.ErrNotFound)
}
