package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/config"
	"github.com/courspresso/courspresso-web/internal/logging"
	"github.com/courspresso/courspresso-web/internal/metrics"
	"github.com/courspresso/courspresso-web/internal/server"
	"github.com/courspresso/courspresso-web/internal/service"
	"github.com/courspresso/courspresso-web/internal/store"
	"github.com/courspresso/courspresso-web/internal/utils"
	"github.com/courspresso/courspresso-web/internal/views"
	"github.com/courspresso/courspresso-web/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	storage, err := store.Open(cfg)
	if err != nil {
		logger.Fatal("open browser storage", zap.String("driver", cfg.SessionDriver), zap.Error(err))
	}
	defer storage.Close()

	m := metrics.NewCollector("courspresso")
	client := backend.NewClient(backend.Options{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
		Metrics: m,
		Logger:  logger.Named("backend"),
	})

	cookies, err := auth.NewBrowserCookies(cfg.CookieSecret, cfg.CookieSecure, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("browser cookies", zap.Error(err))
	}
	renderer, err := views.New(logger.Named("views"))
	if err != nil {
		logger.Fatal("parse templates", zap.Error(err))
	}

	pages := web.NewHandler(web.Deps{
		Views:            renderer,
		Storage:          storage,
		Backend:          client,
		Catalog:          service.NewCatalog(client),
		Rec:              service.NewRecommender(client, storage),
		Saved:            service.NewSavedCourses(client),
		Feedback:         service.NewFeedback(client, storage),
		Accounts:         service.NewAccounts(client, storage, logger.Named("accounts")),
		Profiles:         service.NewProfiles(client),
		Admin:            service.NewAdmin(client, utils.NewImageStorage(cfg), logger.Named("admin")),
		Log:              logger,
		FeedbackRedirect: cfg.FeedbackRedirectDelay,
		CSRF:             cfg.CSRFKey != "",
	})

	srv := server.NewServer(cfg, logger, m, storage, cookies, pages, rateLimiter(cfg, storage, m, logger)).NewHTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if p, ok := storage.(store.Purger); ok {
		go purgeLoop(ctx, p, m, logger)
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.BindAddr), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// rateLimiter reuses the redis session client when there is one. Without
// redis the auth forms are not rate limited.
func rateLimiter(cfg *config.Config, s store.Storage, m *metrics.Collector, logger *zap.Logger) *server.RateLimiter {
	if cfg.RateLimitMax <= 0 {
		return nil
	}
	var rdb *redis.Client
	if rs, ok := s.(*store.RedisStore); ok {
		rdb = rs.Client()
	} else if cfg.Redis.Addr != "" {
		c, err := store.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
			return nil
		}
		rdb = c
	}
	if rdb == nil {
		return nil
	}
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	return server.NewRateLimiter(rdb, cfg.RateLimitMax, window, m, logger.Named("ratelimit"))
}

func purgeLoop(ctx context.Context, p store.Purger, m *metrics.Collector, logger *zap.Logger) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := p.PurgeStale(ctx, now)
			if err != nil {
				logger.Warn("purge idle browsers", zap.Error(err))
				continue
			}
			if n > 0 {
				m.BrowsersPurged.Add(float64(n))
				logger.Debug("purged idle browsers", zap.Int64("count", n))
			}
		}
	}
}
