package backend

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/metrics"
)

// authTransport attaches the bearer token from the request context and drops
// the session when the backend answers 401 or 403 to an authenticated call.
type authTransport struct {
	base    http.RoundTripper
	metrics *metrics.Collector
	log     *zap.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	creds := CredentialsFrom(ctx)
	route := routeFrom(ctx)

	attached := false
	if creds != nil && req.Header.Get("Authorization") == "" {
		if tok := creds.BearerToken(); tok != "" {
			req = req.Clone(ctx)
			req.Header.Set("Authorization", "Bearer "+tok)
			attached = true
		}
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	if t.metrics != nil {
		t.metrics.BackendRequests.WithLabelValues(req.Method, route, status).Inc()
		t.metrics.BackendDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	if attached && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		t.log.Info("backend rejected token, invalidating session",
			zap.String("route", route), zap.Int("status", resp.StatusCode))
		if err := creds.Invalidate(ctx); err != nil {
			t.log.Error("clear rejected token", zap.String("route", route), zap.Error(err))
		}
		if t.metrics != nil {
			t.metrics.SessionsVoided.Inc()
		}
	}
	return resp, nil
}
