package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/config"
	"github.com/courspresso/courspresso-web/internal/metrics"
	"github.com/courspresso/courspresso-web/internal/store"
	"github.com/courspresso/courspresso-web/internal/web"
)

type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
	storage store.Storage
	cookies *auth.BrowserCookies
	pages   *web.Handler
	limiter *RateLimiter
}

// NewServer wires the router. limiter may be nil, which disables rate limiting.
func NewServer(cfg *config.Config, log *zap.Logger, m *metrics.Collector, s store.Storage,
	cookies *auth.BrowserCookies, pages *web.Handler, limiter *RateLimiter) *Server {
	return &Server{cfg: cfg, log: log, metrics: m, storage: s, cookies: cookies, pages: pages, limiter: limiter}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token", "HX-Request", "HX-Target", "HX-Current-URL"},
		ExposedHeaders:   []string{"HX-Redirect", "Refresh"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// no browser cookie for probes and scrapes
	r.Get("/health", s.pages.Health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	if !s.cfg.UseR2() {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.UploadDir)))
		r.With(middleware.SetHeader("X-Content-Type-Options", "nosniff")).Handle("/uploads/*", fs)
	}

	r.Group(func(r chi.Router) {
		if s.cfg.CSRFKey != "" {
			r.Use(s.csrf())
		}
		r.Use(auth.SessionMiddleware(s.storage, s.cookies, s.log))
		var limit func(http.Handler) http.Handler
		if s.limiter != nil {
			limit = s.limiter.Handler
		}
		s.pages.Routes(r, limit)
	})
	return r
}

// csrf protects every form post. Without TLS the request is marked
// plaintext so the referer check does not demand https.
func (s *Server) csrf() func(http.Handler) http.Handler {
	protect := csrf.Protect([]byte(s.cfg.CSRFKey),
		csrf.Secure(s.cfg.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName("csrf_token"),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.cfg.CookieSecure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
			s.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		}
		s.log.Info("request",
			zap.String("id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", elapsed),
		)
	})
}

func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.BindAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
