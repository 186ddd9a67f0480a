package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"
)

// SiteName labels site proxy metrics
const SiteName = "site"

type notFoundKey struct{}

type siteStartKey struct{}

// Site relays page requests to the UI server
type Site struct {
	upstream *url.URL
	proxy    *httputil.ReverseProxy
	logger   *logging.Logger
	metrics  *metrics.Collector
}

// NewSite creates a site proxy for upstream
func NewSite(upstream *url.URL, transport http.RoundTripper, logger *logging.Logger, metricsCollector *metrics.Collector) *Site {
	s := &Site{
		upstream: upstream,
		logger:   logger.WithModule("proxy.site"),
		metrics:  metricsCollector,
	}

	target := httputil.NewSingleHostReverseProxy(upstream)
	target.Transport = transport
	target.ModifyResponse = s.modifyResponse
	target.ErrorHandler = s.handleError
	target.ErrorLog = slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn)
	s.proxy = target

	return s
}

// ServeHTTP relays r to the UI server
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithValue(r.Context(), siteStartKey{}, time.Now())
	s.proxy.ServeHTTP(w, r.WithContext(ctx))
}

// NotFound returns a handler that renders the UI server's /404 page with status 404
func (s *Site) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(context.WithValue(r.Context(), notFoundKey{}, true))
		r2.URL.Path = "/404"
		r2.URL.RawPath = ""
		r2.URL.RawQuery = ""
		r2.RequestURI = r2.URL.RequestURI()
		s.ServeHTTP(w, r2)
	})
}

func (s *Site) modifyResponse(resp *http.Response) error {
	ctx := resp.Request.Context()
	if forced, _ := ctx.Value(notFoundKey{}).(bool); forced {
		resp.StatusCode = http.StatusNotFound
		resp.Status = http.StatusText(http.StatusNotFound)
		resp.Header.Del("Cache-Control")
	}

	start, _ := ctx.Value(siteStartKey{}).(time.Time)
	s.metrics.RecordUpstreamRequest(resp.Request.Method, SiteName, resp.StatusCode, time.Since(start))
	return nil
}

func (s *Site) handleError(w http.ResponseWriter, r *http.Request, err error) {
	start, _ := r.Context().Value(siteStartKey{}).(time.Time)
	s.metrics.RecordUpstreamRequest(r.Method, SiteName, 0, time.Since(start))

	logger := logging.FromContextOr(r.Context(), s.logger)
	if !errors.Is(err, context.Canceled) {
		logger.Warn("Site upstream unavailable", "upstream", logging.RedactURL(s.upstream), "path", r.URL.Path, logging.Err(err))
	}

	if forced, _ := r.Context().Value(notFoundKey{}).(bool); forced {
		http.NotFound(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}
