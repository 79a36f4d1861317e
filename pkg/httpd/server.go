// Package httpd serves the metrics and health of a long running autokit
// process, such as the cleanup scheduler.
package httpd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Health is reported on /healthz
type Health struct {
	Status  string     `json:"status"`
	Job     string     `json:"job,omitempty"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

// JobHealth reports a healthy scheduler for job. A zero next run time,
// before the job is first scheduled, is left out.
func JobHealth(job string, next time.Time) Health {
	h := Health{Status: "ok", Job: job}
	if !next.IsZero() {
		h.NextRun = &next
	}
	return h
}

// Handler routes:
//   - GET /metrics to the prometheus metrics gathered from reg
//   - GET /healthz to the health reported by health
func Handler(reg prometheus.Gatherer, health func() Health, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(accessLog(logger))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(health()); err != nil {
			logger.Warn("health response encode failed", zap.Error(err))
		}
	})
	return r
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t0 := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(t0)))
		})
	}
}

// Serve h on ln until ctx is done, then shuts the server down.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ln)
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("metrics server stopped")
	return nil
}
