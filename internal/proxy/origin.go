package proxy

import "strings"

// OriginResolver returns the upstream origin, or "" when none is configured
type OriginResolver func() string

// FirstOf resolves to the first non-empty candidate with trailing slashes trimmed.
// Candidates are evaluated once, at construction.
func FirstOf(candidates ...string) OriginResolver {
	var origin string
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			origin = strings.TrimRight(c, "/")
			break
		}
	}
	return func() string { return origin }
}

// Origins holds the configured backend base URLs
type Origins struct {
	// API is API_BASE
	API string
	// Auth is AUTH_API_BASE
	Auth string
	// Public is NEXT_PUBLIC_API_BASE
	Public string
}

// Default is the resolution order shared by the resource forwarders
func (o Origins) Default() OriginResolver {
	return FirstOf(o.API, o.Auth, o.Public)
}

// AuthService is the resolution order of the auth forwarder
func (o Origins) AuthService() OriginResolver {
	return FirstOf(o.Auth, o.Public)
}

// PublicFirst prefers the browser-facing base URL and falls back to API_BASE
func (o Origins) PublicFirst() OriginResolver {
	return FirstOf(o.Public, o.API)
}
