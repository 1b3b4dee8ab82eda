package observe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/easimeng/anglo/internal/health"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// StatusServer exposes Prometheus metrics and a health check over HTTP.
// The assistant itself has no network API; this server exists only so
// the pipeline can be watched from the outside.
type StatusServer struct {
	srv *http.Server
}

// NewStatusServer builds a StatusServer listening on addr with three routes:
//
//   - /metrics: the Prometheus scrape endpoint fed by [InitProvider].
//   - /healthz: liveness probe, served by [health.Handler].
//   - /readyz: readiness probe evaluating the given checkers.
func NewStatusServer(addr string, m *Metrics, checkers ...health.Checker) *StatusServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	health.New(checkers...).Register(mux)

	return &StatusServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           instrument(m, mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// ListenAndServe blocks serving requests until Shutdown is called.
// A closed-server result is reported as nil.
func (s *StatusServer) ListenAndServe() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// statusRecorder wraps [http.ResponseWriter] to capture the status code
// written by the downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps next with a per-request span, request duration
// recording, and a completion log line carrying the trace ID.
func instrument(m *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, span := StartSpan(r.Context(), "HTTP "+r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
			),
		)
		defer span.End()

		if cid := CorrelationID(ctx); cid != "" {
			w.Header().Set("X-Correlation-ID", cid)
		}

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		if m != nil {
			m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("path", r.URL.Path),
				),
			)
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(rec.statusCode))

		slog.LogAttrs(ctx, slog.LevelDebug, "status request completed",
			slog.String("trace_id", CorrelationID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.statusCode),
			slog.Duration("duration", duration),
		)
	})
}
