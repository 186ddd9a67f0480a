package gate

import (
	"net/http"
	"net/url"
	"strings"
)

// HSTSValue is sent in production only
const HSTSValue = "max-age=63072000; includeSubDomains; preload"

// apiOrigin reduces a base URL to scheme://host[:port]. Unparseable input yields "".
func apiOrigin(base string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// ContentSecurityPolicy returns the portal policy. connect-src admits the API origin when known.
func ContentSecurityPolicy(apiBase string) string {
	connectSrc := "'self'"
	if origin := apiOrigin(apiBase); origin != "" {
		connectSrc += " " + origin
	}

	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-eval' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: https:",
		"font-src 'self' data:",
		"connect-src " + connectSrc,
		"frame-ancestors 'self'",
	}, "; ")
}

// securityHeaders is the fixed header set, computed once
type securityHeaders [][2]string

func newSecurityHeaders(apiBase string, production bool) securityHeaders {
	h := securityHeaders{
		{"X-DNS-Prefetch-Control", "on"},
		{"X-Frame-Options", "SAMEORIGIN"},
		{"X-Content-Type-Options", "nosniff"},
		{"X-XSS-Protection", "1; mode=block"},
		{"Referrer-Policy", "origin-when-cross-origin"},
		{"Content-Security-Policy", ContentSecurityPolicy(apiBase)},
	}
	if production {
		h = append(h, [2]string{"Strict-Transport-Security", HSTSValue})
	}
	return h
}

func (s securityHeaders) apply(h http.Header) {
	for _, kv := range s {
		h.Set(kv[0], kv[1])
	}
}

// headerWriter sets the security headers again when the response starts.
// Proxied upstreams add their own copies, which must not reach the client twice.
type headerWriter struct {
	http.ResponseWriter
	headers securityHeaders
	started bool
}

func (w *headerWriter) WriteHeader(code int) {
	if !w.started {
		w.headers.apply(w.Header())
		if code >= 200 || code == http.StatusSwitchingProtocols {
			w.started = true
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) Write(b []byte) (int, error) {
	if !w.started {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *headerWriter) Flush() {
	if !w.started {
		w.WriteHeader(http.StatusOK)
	}
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

func (w *headerWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
