// internal/config/types.go
package config

import (
	"net/url"
	"strings"
	"time"
)

// Token verification modes
const (
	VerificationNone = "none"
	VerificationHMAC = "hmac"
	VerificationOIDC = "oidc"
)

// Authorizer types
const (
	AuthzRoles   = "roles"
	AuthzSpiceDB = "spicedb"
)

// Config represents the complete application configuration.
// It is built once at start and never mutated afterwards.
type Config struct {
	// Environment is the deployment environment name
	Environment string

	// Server holds HTTP server configuration
	Server struct {
		// Address is the address to listen on
		Address string
		// ShutdownTimeout is the maximum time to wait for a graceful shutdown
		ShutdownTimeout time.Duration
	}

	// Metrics holds metrics server configuration
	Metrics struct {
		// Address is the address to listen on for the metrics server
		Address string
	}

	// TLS holds TLS configuration
	TLS struct {
		Enabled  bool
		CertPath string
		KeyPath  string
	}

	// Upstream holds the backend origins and transport settings
	Upstream struct {
		// APIBase is API_BASE
		APIBase string
		// AuthAPIBase is AUTH_API_BASE
		AuthAPIBase string
		// PublicAPIBase is NEXT_PUBLIC_API_BASE
		PublicAPIBase string
		// Timeout is the maximum time to wait for upstream response headers
		Timeout time.Duration
		// CAPath is an extra CA bundle for upstream TLS
		CAPath string
		// SiteURL is the page server; nil means pages answer 404
		SiteURL *url.URL
	}

	// Gate holds the restricted area configuration
	Gate struct {
		RestrictedPrefix string
		ExcludedPrefixes []string
	}

	// Token holds credential verification configuration
	Token struct {
		// Verification is one of none, hmac, oidc
		Verification string
		// Secret is the HMAC secret
		Secret string

		OIDC struct {
			Issuer  string
			JWKSURL string
		}
	}

	// Authz holds authorization configuration
	Authz struct {
		// Type is the type of authorizer to use (roles, spicedb)
		Type string
		// Roles are the roles admitted by the roles authorizer
		Roles []string

		// SpiceDB holds SpiceDB configuration
		SpiceDB struct {
			Endpoint     string
			Insecure     bool
			Token        string
			ResourceType string
			ResourceID   string
			Permission   string
			SubjectType  string
		}
	}

	// News holds news aggregation configuration
	News struct {
		SourcesPath     string
		CacheTTL        time.Duration
		RefreshInterval time.Duration
		RedisURL        string
	}

	// Forecast holds weather forecast configuration
	Forecast struct {
		URL           string
		DefaultLat    float64
		DefaultLng    float64
		DefaultRegion string
	}

	// Observability holds observability configuration
	Observability struct {
		// LogLevel is the minimum log level to emit
		LogLevel string
		// LogFormat is the log format (json, text, console)
		LogFormat string
	}

	// Warnings are non-fatal problems found while loading
	Warnings []string
}

// IsProduction reports whether the gateway runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}
