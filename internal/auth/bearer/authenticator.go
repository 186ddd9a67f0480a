// internal/auth/bearer/authenticator.go
package bearer

import (
	"context"
	"net/http"
	"strings"

	"beegate/internal/auth"
	"beegate/internal/contextutil"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"
)

// CookieName is the cookie the portal stores its credential in
const CookieName = "token"

// Decoder turns a raw credential into an identity
type Decoder interface {
	Parse(ctx context.Context, raw string) (*auth.Identity, error)
}

// Authenticator resolves the caller from the token cookie or the Authorization header.
// It never rejects a request: callers without a usable credential continue anonymously.
type Authenticator struct {
	logger  *logging.Logger
	metrics *metrics.Collector
	decoder Decoder
}

var _ auth.Authenticator = (*Authenticator)(nil)

// New creates a new bearer authenticator
func New(decoder Decoder, logger *logging.Logger, metrics *metrics.Collector) *Authenticator {
	return &Authenticator{
		logger:  logger.WithModule("auth.bearer"),
		metrics: metrics,
		decoder: decoder,
	}
}

// Name returns the name of this authenticator
func (a *Authenticator) Name() string {
	return "bearer"
}

// Credential extracts the raw credential. A non-empty token cookie wins over the header.
func Credential(r *http.Request) (string, auth.CredentialSource) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, auth.SourceCookie
	}
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.Replace(h, "Bearer ", "", 1), auth.SourceHeader
	}
	return "", ""
}

// Authenticate decodes the request credential. It returns nil for anonymous callers.
func (a *Authenticator) Authenticate(r *http.Request) *auth.Identity {
	ctx := r.Context()
	logger := logging.FromContextOr(ctx, a.logger)

	raw, source := Credential(r)
	if raw == "" {
		return nil
	}

	identity, err := a.decoder.Parse(ctx, raw)
	if err != nil {
		logger.Debug("Credential rejected, continuing anonymously", "source", source, logging.Err(err))
		a.metrics.RecordAuthentication(string(source), false)
		return nil
	}

	identity.Source = source
	a.metrics.RecordAuthentication(string(source), true)
	logger.Debug("Credential accepted", "source", source, "user_id", identity.ID, "role", identity.Role)
	return identity
}

// GetMiddleware returns an http.Handler middleware that stores the decoded identity in the request context
func (a *Authenticator) GetMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if we already have an identity in the context
		if contextutil.GetIdentity(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		identity := a.Authenticate(r)
		if identity == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(contextutil.WithIdentity(r.Context(), identity)))
	})
}
