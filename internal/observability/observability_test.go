package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"beegate/internal/config"
	"beegate/internal/contextutil"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider() *Provider {
	return &Provider{Logger: logging.Nop(), Metrics: metrics.NewCollector()}
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.LogLevel = "info"
	cfg.Observability.LogFormat = "xml"

	_, err := NewProvider(cfg)
	assert.Error(t, err)

	cfg.Observability.LogFormat = "json"
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.NotNil(t, p.Logger)
}

func TestMiddlewareSetsTraceAndLogger(t *testing.T) {
	p := newTestProvider()

	var traceID string
	var hasLogger bool
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = logging.GetTraceIDFromContext(r.Context())
		hasLogger = logging.LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, traceID, rec.Header().Get(TraceHeader))
	assert.True(t, hasLogger)
}

func TestMiddlewareKeepsInboundTraceID(t *testing.T) {
	p := newTestProvider()
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(TraceHeader, "trace-from-ui")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-from-ui", rec.Header().Get(TraceHeader))
}

func TestMiddlewareLabelsRequestsByRoute(t *testing.T) {
	p := newTestProvider()
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/named" {
			contextutil.SetRoute(r.Context(), "test-named-route")
		}
	}))

	named := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, "test-named-route", "200"))
	unmatched := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "200"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/named", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))

	assert.Equal(t, named+1, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, "test-named-route", "200")))
	assert.Equal(t, unmatched+1, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "200")))
}
