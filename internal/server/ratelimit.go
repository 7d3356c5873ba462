package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/metrics"
)

// RateLimiter is a redis fixed-window limiter keyed by client IP and path.
// A redis failure lets the request through.
type RateLimiter struct {
	rdb     *redis.Client
	maxReqs int
	window  time.Duration
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, maxReqs int, window time.Duration, m *metrics.Collector, log *zap.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, maxReqs: maxReqs, window: window, metrics: m, log: log}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", clientIP(r), r.URL.Path)

		// the window starts with the first hit; ExpireNX never extends it
		var incr *redis.IntCmd
		var ttlCmd *redis.DurationCmd
		_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, rl.window)
			ttlCmd = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			rl.log.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		count := incr.Val()
		ttl := ttlCmd.Val()
		if ttl < 0 {
			ttl = rl.window
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.maxReqs))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(rl.maxReqs)-count), 10))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if int(count) > rl.maxReqs {
			if rl.metrics != nil {
				rl.metrics.RateLimited.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			http.Error(w, "Too many attempts. Please wait and try again.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP drops the port so every connection from one address shares a counter.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
