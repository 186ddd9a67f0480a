// internal/authz/types.go
package authz

import (
	"context"

	"beegate/internal/auth"
)

// Decision represents an authorization decision
type Decision int

const (
	// Allow indicates the request is allowed
	Allow Decision = iota
	// Deny indicates the request is denied
	Deny
	// Unauthorized indicates the request is unauthorized (no identity)
	Unauthorized
	// Error indicates an error occurred during authorization
	Error
)

// String returns the metric and log label of the decision
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Unauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}

// Request represents an authorization request
type Request struct {
	// Identity is the identity to authorize, nil for anonymous callers
	Identity *auth.Identity

	// Resource is the resource being accessed; empty selects the authorizer default
	Resource string

	// Permission is the permission being checked; empty selects the authorizer default
	Permission string

	// Context is the request context
	Context context.Context
}

// Response represents an authorization response
type Response struct {
	// Decision is the authorization decision
	Decision Decision

	// Reason provides additional information about the decision
	Reason string

	// Error is set if an error occurred during authorization
	Error error
}

// Authorizer decides whether an identity may enter the restricted area
type Authorizer interface {
	// Authorize checks if the identity has the specified permission on the resource
	Authorize(req *Request) *Response
}
