package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"beegate/internal/httputils"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
)

// maxRelayBody caps request and response bodies handled by relays
const maxRelayBody = 4 << 20

// BodyMode selects what a relay sends upstream
type BodyMode int

const (
	// BodyNone sends no body
	BodyNone BodyMode = iota
	// BodyEmptyObject always sends {}
	BodyEmptyObject
	// BodyStrict requires a JSON body and answers 400 otherwise
	BodyStrict
	// BodyLenient sends the JSON body, or {} when it does not parse
	BodyLenient
)

// RelayRoute describes one admin relay
type RelayRoute struct {
	// Name labels logs and metrics
	Name string

	// Method is the inbound and outbound method
	Method string

	// Path is the route template; route variables are substituted into the upstream path
	Path string

	// Body selects the outbound body
	Body BodyMode

	// KeepQuery forwards the inbound query string
	KeepQuery bool
}

// errInvalidBody is answered with 400
var errInvalidBody = errors.New("request body must be valid JSON")

// Relay re-issues a call to the backend with the caller's bearer token and
// a re-serialized JSON body, and relays the upstream JSON answer.
type Relay struct {
	route   RelayRoute
	origin  OriginResolver
	client  *http.Client
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewRelay creates a relay for route
func NewRelay(route RelayRoute, origin OriginResolver, transport http.RoundTripper, logger *logging.Logger, metrics *metrics.Collector) *Relay {
	return &Relay{
		route:   route,
		origin:  origin,
		client:  &http.Client{Transport: transport},
		logger:  logger.WithModule("proxy").With("relay", route.Name),
		metrics: metrics,
	}
}

// bearerToken returns the Authorization header with the Bearer prefix removed, or ""
func bearerToken(r *http.Request) string {
	return strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)
}

// upstreamPath substitutes route variables into the route template
func upstreamPath(template string, vars map[string]string) string {
	path := template
	for k, v := range vars {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	return path
}

// outboundBody reads and re-serializes the inbound body according to mode
func outboundBody(mode BodyMode, body io.Reader) ([]byte, error) {
	switch mode {
	case BodyNone:
		return nil, nil
	case BodyEmptyObject:
		return []byte("{}"), nil
	}

	raw, err := io.ReadAll(io.LimitReader(body, maxRelayBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	err = dec.Decode(&v)
	if err == nil {
		if _, tail := dec.Token(); tail != io.EOF {
			err = errInvalidBody
		}
	}
	if err != nil {
		if mode == BodyLenient {
			return []byte("{}"), nil
		}
		return nil, errInvalidBody
	}
	return json.Marshal(v)
}

// ServeHTTP relays r
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContextOr(ctx, rl.logger)

	origin := rl.origin()
	if origin == "" {
		logger.Error("Upstream origin not configured", "relay", rl.route.Name)
		httputils.WriteMessage(w, http.StatusInternalServerError, MissingOriginMessage)
		return
	}

	body, err := outboundBody(rl.route.Body, r.Body)
	if err != nil {
		logger.Info("Rejected relay request body", "relay", rl.route.Name, logging.Err(err))
		httputils.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := url.Parse(origin + upstreamPath(rl.route.Path, mux.Vars(r)))
	if err != nil {
		logger.Error("Invalid upstream target", "relay", rl.route.Name, logging.Err(err))
		httputils.WriteMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rl.route.KeepQuery {
		target.RawQuery = r.URL.RawQuery
	}

	status, payload, err := rl.do(ctx, target, body, bearerToken(r))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("Relay request failed", "relay", rl.route.Name, "target", logging.RedactURL(target), logging.Err(err))
		}
		httputils.WriteMessage(w, http.StatusBadGateway, err.Error())
		return
	}

	if len(payload) == 0 {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// do performs the upstream call and returns the status and the JSON body
func (rl *Relay) do(ctx context.Context, target *url.URL, body []byte, accessToken string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, rl.route.Method, target.String(), reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	(&oauth2.Token{AccessToken: accessToken}).SetAuthHeader(req)

	start := time.Now()
	resp, err := rl.client.Do(req)
	if err != nil {
		rl.metrics.RecordUpstreamRequest(rl.route.Method, rl.route.Name, 0, time.Since(start))
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return 0, nil, err
	}
	defer resp.Body.Close()
	rl.metrics.RecordUpstreamRequest(rl.route.Method, rl.route.Name, resp.StatusCode, time.Since(start))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBody))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && !json.Valid(payload) {
		return 0, nil, fmt.Errorf("upstream returned a non-JSON body (status %d)", resp.StatusCode)
	}
	return resp.StatusCode, payload, nil
}
