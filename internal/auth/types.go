// internal/auth/types.go
package auth

import (
	"net/http"
)

// CredentialSource names where a credential was found
type CredentialSource string

const (
	// SourceCookie is the "token" cookie
	SourceCookie CredentialSource = "cookie"
	// SourceHeader is the Authorization header with the Bearer scheme
	SourceHeader CredentialSource = "header"
)

// Identity is the caller decoded from a credential.
// It lives for one request and is never cached.
type Identity struct {
	// ID is the user identifier, numbers are rendered in decimal
	ID string

	// Role is the portal role (user, moderator, admin, super_admin, ...)
	Role string

	// Source is where the credential came from
	Source CredentialSource

	// Claims holds the full decoded payload
	Claims map[string]interface{}
}

// Authenticator defines the interface for authentication methods
type Authenticator interface {
	// Name returns the name of this authenticator
	Name() string

	// GetMiddleware returns an http.Handler middleware that performs authentication
	GetMiddleware(next http.Handler) http.Handler
}
