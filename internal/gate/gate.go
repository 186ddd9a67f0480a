// Package gate guards the restricted admin area and stamps security headers.
//
// For every request outside the excluded prefixes the gate resolves the
// caller, then:
//
//   - on the restricted prefix, redirects anonymous callers to
//     "/?error=unauthorized" and answers callers without a staff role with
//     the not-found page, so the area is indistinguishable from a missing path;
//   - sets the security headers and lets the request through.
package gate

import (
	"net/http"
	"strings"

	"beegate/internal/auth/bearer"
	"beegate/internal/authz"
	"beegate/internal/contextutil"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"
)

// UnauthorizedLocation is where anonymous callers of the restricted area are sent
const UnauthorizedLocation = "/?error=unauthorized"

// NotFoundPath is the path the not-found handler sees on a rewrite
const NotFoundPath = "/404"

// Config holds gate configuration
type Config struct {
	// RestrictedPrefix guards itself and every path below it
	RestrictedPrefix string

	// ExcludedPrefixes are passed through untouched
	ExcludedPrefixes []string

	// APIBase feeds connect-src of the content security policy
	APIBase string

	// Production enables HSTS
	Production bool
}

// Gate is the request interceptor in front of routing
type Gate struct {
	restricted string
	excluded   []string
	headers    securityHeaders
	authn      *bearer.Authenticator
	authorizer authz.Authorizer
	notFound   http.Handler
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// New creates a gate. notFound must answer 404; it receives rewritten requests.
func New(config Config, authn *bearer.Authenticator, authorizer authz.Authorizer, notFound http.Handler, logger *logging.Logger, metrics *metrics.Collector) *Gate {
	restricted := strings.TrimRight(config.RestrictedPrefix, "/")
	if restricted == "" {
		restricted = "/admin"
	}

	return &Gate{
		restricted: restricted,
		excluded:   config.ExcludedPrefixes,
		headers:    newSecurityHeaders(config.APIBase, config.Production),
		authn:      authn,
		authorizer: authorizer,
		notFound:   notFound,
		logger:     logger.WithModule("gate"),
		metrics:    metrics,
	}
}

// IsRestricted reports whether path is the restricted prefix or below it
func (g *Gate) IsRestricted(path string) bool {
	return path == g.restricted || strings.HasPrefix(path, g.restricted+"/")
}

func (g *Gate) isExcluded(path string) bool {
	for _, prefix := range g.excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware wraps next with the gate
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.isExcluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		logger := logging.FromContextOr(ctx, g.logger)

		identity := g.authn.Authenticate(r)
		if identity != nil {
			ctx = contextutil.WithIdentity(ctx, identity)
			r = r.WithContext(ctx)
		}

		if g.IsRestricted(r.URL.Path) {
			if identity == nil {
				g.metrics.RecordGateDecision("redirect")
				logger.Info("Anonymous access to restricted area, redirecting", "path", r.URL.Path)
				http.Redirect(w, r, UnauthorizedLocation, http.StatusFound)
				return
			}

			resp := g.authorizer.Authorize(&authz.Request{
				Identity: identity,
				Context:  ctx,
			})

			switch resp.Decision {
			case authz.Allow:
				g.metrics.RecordGateDecision("allow")
				logger.Debug("Restricted area access granted", "path", r.URL.Path, "user_id", identity.ID, "role", identity.Role)

			case authz.Unauthorized:
				g.metrics.RecordGateDecision("redirect")
				logger.Info("Identity not recognized by authorizer, redirecting", "path", r.URL.Path, "user_id", identity.ID)
				http.Redirect(w, r, UnauthorizedLocation, http.StatusFound)
				return

			default:
				g.metrics.RecordGateDecision("rewrite")
				if resp.Decision == authz.Error {
					logger.Error("Authorizer failed, hiding restricted area", "path", r.URL.Path, logging.Err(resp.Error))
				} else {
					logger.Info("Restricted area access denied", "path", r.URL.Path, "user_id", identity.ID, "role", identity.Role, "reason", resp.Reason)
				}
				g.notFound.ServeHTTP(w, rewrite(r, NotFoundPath))
				return
			}
		}

		g.headers.apply(w.Header())
		next.ServeHTTP(&headerWriter{ResponseWriter: w, headers: g.headers}, r)
	})
}

// rewrite returns a copy of r that targets path and keeps the query
func rewrite(r *http.Request, path string) *http.Request {
	r2 := r.Clone(r.Context())
	r2.URL.Path = path
	r2.URL.RawPath = ""
	r2.RequestURI = r2.URL.RequestURI()
	return r2
}
