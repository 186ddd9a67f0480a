package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelStatus    = "status"
	LabelMethod    = "method"
	LabelRoute     = "route"
	LabelSource    = "source"
	LabelSuccess   = "success"
	LabelDecision  = "decision"
	LabelForwarder = "forwarder"
)

var (
	// RequestsTotal counts all HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beegate_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelRoute, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beegate_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// AuthenticationTotal counts credential decodes by source (cookie, header) and outcome
	AuthenticationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beegate_authentication_total",
			Help: "Total number of credential decode attempts",
		},
		[]string{LabelSource, LabelSuccess},
	)

	// GateDecisionTotal counts restricted-area decisions
	GateDecisionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beegate_gate_decisions_total",
			Help: "Total number of restricted area access decisions",
		},
		[]string{LabelDecision},
	)

	// UpstreamRequestTotal counts requests relayed to the backend
	UpstreamRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beegate_upstream_requests_total",
			Help: "Total number of requests to upstream services",
		},
		[]string{LabelMethod, LabelForwarder, LabelStatus},
	)

	// UpstreamRequestDuration tracks the duration of upstream requests
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beegate_upstream_request_duration_seconds",
			Help:    "Duration of requests to upstream services in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelForwarder},
	)

	// NewsFetchTotal counts feed fetches per source
	NewsFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beegate_news_fetch_total",
			Help: "Total number of news source fetches",
		},
		[]string{LabelSource, LabelSuccess},
	)

	// NewsItems reports how many items the last aggregation produced
	NewsItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beegate_news_items",
			Help: "Number of news items in the last aggregation",
		},
	)

	// NewsCacheTotal counts cache lookups by result
	NewsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beegate_news_cache_total",
			Help: "Total number of news cache lookups",
		},
		[]string{"result"},
	)
)

// Collector provides methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request.
// route should be a route template, not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthentication records a credential decode
func (c *Collector) RecordAuthentication(source string, success bool) {
	AuthenticationTotal.WithLabelValues(source, strconv.FormatBool(success)).Inc()
}

// RecordGateDecision records an access decision for the restricted area
func (c *Collector) RecordGateDecision(decision string) {
	GateDecisionTotal.WithLabelValues(decision).Inc()
}

// RecordUpstreamRequest records a request to an upstream service.
// status 0 means the request never got a response.
func (c *Collector) RecordUpstreamRequest(method, forwarder string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestTotal.WithLabelValues(method, forwarder, label).Inc()
	UpstreamRequestDuration.WithLabelValues(method, forwarder).Observe(duration.Seconds())
}

// RecordNewsFetch records a fetch of one news source
func (c *Collector) RecordNewsFetch(source string, success bool) {
	NewsFetchTotal.WithLabelValues(source, strconv.FormatBool(success)).Inc()
}

// RecordNewsItems records the size of the aggregated news list
func (c *Collector) RecordNewsItems(n int) {
	NewsItems.Set(float64(n))
}

// RecordNewsCache records a news cache lookup
func (c *Collector) RecordNewsCache(hit bool) {
	if hit {
		NewsCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	NewsCacheTotal.WithLabelValues("miss").Inc()
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
