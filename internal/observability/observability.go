// internal/observability/observability.go
package observability

import (
	"net/http"
	"time"

	"beegate/internal/config"
	"beegate/internal/contextutil"
	"beegate/internal/httputils"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"
)

// TraceHeader carries the trace id in both directions
const TraceHeader = "X-Trace-ID"

// unmatchedRoute labels requests no route claimed
const unmatchedRoute = "unmatched"

// Provider provides observability capabilities
type Provider struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// NewProvider creates a new observability provider
func NewProvider(cfg *config.Config) (*Provider, error) {
	logger, err := logging.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}, nil
}

// Middleware creates an HTTP middleware for request observation.
// An inbound X-Trace-ID is kept so traces span the UI server and the gateway.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ctx := r.Context()
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		spanID := logging.NewSpanID()
		ctx = logging.ContextWithTraceID(ctx, traceID)
		ctx = logging.ContextWithSpanID(ctx, spanID)

		logger := p.Logger.WithTracing(traceID, spanID)
		ctx = logging.ContextWithLogger(ctx, logger)
		ctx = contextutil.WithRoute(ctx)

		rec := httputils.NewRecorder(w)
		rec.Header().Set(TraceHeader, traceID)

		logger.Debug("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		r = r.WithContext(ctx)
		next.ServeHTTP(rec, r)

		duration := time.Since(startTime)
		route := contextutil.GetRoute(ctx, unmatchedRoute)
		p.Metrics.RecordRequest(r.Method, route, rec.Status(), duration)

		logger.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.Status(),
			"duration_ms", duration.Milliseconds(),
			"bytes_written", rec.Size(),
		)
	})
}

// MetricsHandler returns an HTTP handler for exposing metrics
func (p *Provider) MetricsHandler() http.Handler {
	return metrics.Handler()
}
