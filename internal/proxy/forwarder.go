// Package proxy relays portal API calls to the backend service.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"beegate/internal/httputils"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/gorilla/mux"
)

// MissingOriginMessage is the 500 body message when no origin is configured
const MissingOriginMessage = "API base URL is not configured"

// PathVar is the route variable holding the trailing path of deep forwarders
const PathVar = "path"

// Spec describes one forwarder instance
type Spec struct {
	// Name labels logs and metrics
	Name string

	// ResourcePath is the upstream path, mirrored 1:1 from the inbound route
	ResourcePath string

	// Origin resolves the upstream origin
	Origin OriginResolver

	// Trailing appends the PathVar route variable to ResourcePath
	Trailing bool

	// MissingOriginMessage overrides the 500 message
	MissingOriginMessage string

	// DefaultCacheControl is set on responses whose upstream sent none
	DefaultCacheControl string
}

type exchangeKey struct{}

// exchange carries per-request state from Forward into the reverse proxy hooks
type exchange struct {
	target *url.URL
	start  time.Time
}

func exchangeFrom(ctx context.Context) *exchange {
	if ex, ok := ctx.Value(exchangeKey{}).(*exchange); ok {
		return ex
	}
	return &exchange{start: time.Now()}
}

// Forwarder relays a request to origin + ResourcePath with its method,
// headers, body and query, and relays the response back unchanged.
// Redirects are returned to the caller, never followed.
type Forwarder struct {
	spec    Spec
	proxy   *httputil.ReverseProxy
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewForwarder creates a forwarder. transport is shared between forwarders.
func NewForwarder(spec Spec, transport http.RoundTripper, logger *logging.Logger, metrics *metrics.Collector) *Forwarder {
	if spec.MissingOriginMessage == "" {
		spec.MissingOriginMessage = MissingOriginMessage
	}

	f := &Forwarder{
		spec:    spec,
		logger:  logger.WithModule("proxy").With("forwarder", spec.Name),
		metrics: metrics,
	}

	f.proxy = &httputil.ReverseProxy{
		Rewrite:        f.rewrite,
		Transport:      transport,
		ModifyResponse: f.modifyResponse,
		ErrorHandler:   f.handleError,
		ErrorLog:       slog.NewLogLogger(f.logger.Handler(), slog.LevelWarn),
	}

	return f
}

// Name returns the forwarder name
func (f *Forwarder) Name() string {
	return f.spec.Name
}

// ServeHTTP forwards r, taking suffix segments from the route when the spec is Trailing
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var suffix []string
	if f.spec.Trailing {
		suffix = strings.Split(mux.Vars(r)[PathVar], "/")
	}
	f.Forward(w, r, suffix)
}

// Forward relays r to the upstream. Empty suffix segments are dropped.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, suffix []string) {
	logger := logging.FromContextOr(r.Context(), f.logger)

	origin := f.spec.Origin()
	if origin == "" {
		logger.Error("Upstream origin not configured", "forwarder", f.spec.Name)
		httputils.WriteMessage(w, http.StatusInternalServerError, f.spec.MissingOriginMessage)
		return
	}

	target, err := f.Target(origin, suffix, r.URL.RawQuery)
	if err != nil {
		logger.Error("Invalid upstream target", "forwarder", f.spec.Name, logging.Err(err))
		httputils.WriteMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := context.WithValue(r.Context(), exchangeKey{}, &exchange{target: target, start: time.Now()})
	f.proxy.ServeHTTP(w, r.WithContext(ctx))
}

// Target builds origin + ResourcePath + "/" + suffix with rawQuery kept verbatim
func (f *Forwarder) Target(origin string, suffix []string, rawQuery string) (*url.URL, error) {
	segments := make([]string, 0, len(suffix))
	for _, s := range suffix {
		if s != "" {
			segments = append(segments, url.PathEscape(s))
		}
	}

	raw := strings.TrimRight(origin, "/") + f.spec.ResourcePath
	if len(segments) > 0 {
		raw += "/" + strings.Join(segments, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	u.RawQuery = rawQuery
	return u, nil
}

// forwardingHeaders are stripped by the reverse proxy before rewrite runs.
// The caller's values are passed on as received; the gateway adds none of its own.
var forwardingHeaders = []string{"Forwarded", "X-Forwarded-For", "X-Forwarded-Host", "X-Forwarded-Proto"}

// rewrite shapes the outbound request. The reverse proxy has already
// removed hop-by-hop headers such as Connection.
func (f *Forwarder) rewrite(pr *httputil.ProxyRequest) {
	ex := exchangeFrom(pr.In.Context())

	target := *ex.target
	pr.Out.URL = &target
	pr.Out.Host = ""

	for _, name := range forwardingHeaders {
		if values := pr.In.Header.Values(name); len(values) > 0 {
			pr.Out.Header[name] = append([]string(nil), values...)
		}
	}

	pr.Out.Header.Del("Content-Length")
	if pr.Out.Header.Get("Accept") == "" {
		pr.Out.Header.Set("Accept", "application/json")
	}

	if pr.In.Method == http.MethodGet || pr.In.Method == http.MethodHead {
		pr.Out.Body = nil
		pr.Out.GetBody = nil
		pr.Out.ContentLength = 0
	}
}

func (f *Forwarder) modifyResponse(resp *http.Response) error {
	resp.Header.Del("Transfer-Encoding")
	if f.spec.DefaultCacheControl != "" && resp.Header.Get("Cache-Control") == "" {
		resp.Header.Set("Cache-Control", f.spec.DefaultCacheControl)
	}

	ex := exchangeFrom(resp.Request.Context())
	f.metrics.RecordUpstreamRequest(resp.Request.Method, f.spec.Name, resp.StatusCode, time.Since(ex.start))

	logging.FromContextOr(resp.Request.Context(), f.logger).Debug("Upstream responded",
		"forwarder", f.spec.Name,
		"target", logging.RedactURL(ex.target),
		"status", resp.StatusCode,
	)
	return nil
}

func (f *Forwarder) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ex := exchangeFrom(r.Context())
	f.metrics.RecordUpstreamRequest(r.Method, f.spec.Name, 0, time.Since(ex.start))

	logger := logging.FromContextOr(r.Context(), f.logger)
	if errors.Is(err, context.Canceled) {
		logger.Debug("Client went away before upstream answered", "forwarder", f.spec.Name)
	} else {
		logger.Warn("Upstream request failed",
			"forwarder", f.spec.Name,
			"target", logging.RedactURL(ex.target),
			logging.Err(err),
		)
	}

	httputils.WriteMessage(w, http.StatusBadGateway, err.Error())
}
