// internal/contextutil/context.go
package contextutil

import (
	"context"

	"beegate/internal/auth"
)

// Key is a type-safe key for context values
type Key string

const (
	// IdentityKey is the key for the identity
	IdentityKey Key = "context:identity"

	// RouteKey is the key for the matched route holder
	RouteKey Key = "context:route"
)

// WithIdentity adds an identity to a context
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity retrieves an identity from a context
func GetIdentity(ctx context.Context) *auth.Identity {
	if identity, ok := ctx.Value(IdentityKey).(*auth.Identity); ok {
		return identity
	}
	return nil
}

// route is filled in by the router after the outer middleware created it
type route struct {
	name string
}

// WithRoute installs an empty route holder. Handlers further down report the
// matched route through SetRoute and the installer reads it back with GetRoute.
func WithRoute(ctx context.Context) context.Context {
	return context.WithValue(ctx, RouteKey, &route{})
}

// SetRoute records the matched route name
func SetRoute(ctx context.Context, name string) {
	if r, ok := ctx.Value(RouteKey).(*route); ok {
		r.name = name
	}
}

// GetRoute returns the matched route name, or fallback when nothing matched
func GetRoute(ctx context.Context, fallback string) string {
	if r, ok := ctx.Value(RouteKey).(*route); ok && r.name != "" {
		return r.name
	}
	return fallback
}
