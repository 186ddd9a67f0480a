// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// Load loads the configuration from all sources and returns the merged result
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	Settings.PopulateViperDefaults(v)

	// Set up environment variable handling
	if err := Settings.BindEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	// Load from config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	var err error

	config.Environment = strings.TrimSpace(v.GetString("ENVIRONMENT"))

	// Populate server configuration
	config.Server.Address = v.GetString("SERVER_ADDR")
	if config.Server.ShutdownTimeout, err = getDuration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}

	// Populate metrics configuration
	config.Metrics.Address = v.GetString("METRICS_ADDR")

	// Populate TLS configuration
	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")

	// Populate upstream configuration
	config.Upstream.APIBase = strings.TrimSpace(v.GetString("API_BASE"))
	config.Upstream.AuthAPIBase = strings.TrimSpace(v.GetString("AUTH_API_BASE"))
	config.Upstream.PublicAPIBase = strings.TrimSpace(v.GetString("PUBLIC_API_BASE"))
	config.Upstream.CAPath = v.GetString("UPSTREAM_CA_PATH")
	if config.Upstream.Timeout, err = getDuration(v, "UPSTREAM_TIMEOUT"); err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(v.GetString("SITE_UPSTREAM_URL")); raw != "" {
		siteURL, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid site upstream URL: %w", err)
		}
		config.Upstream.SiteURL = siteURL
	}

	// Populate gate configuration
	config.Gate.RestrictedPrefix = strings.TrimSpace(v.GetString("GATE_RESTRICTED_PREFIX"))
	config.Gate.ExcludedPrefixes = getList(v, "GATE_EXCLUDED_PREFIXES")

	// Populate token configuration
	config.Token.Verification = strings.ToLower(strings.TrimSpace(v.GetString("TOKEN_VERIFICATION")))
	config.Token.Secret = v.GetString("TOKEN_SECRET")
	config.Token.OIDC.Issuer = v.GetString("TOKEN_OIDC_ISSUER")
	config.Token.OIDC.JWKSURL = v.GetString("TOKEN_OIDC_JWKS_URL")

	// Populate authorization configuration
	config.Authz.Type = strings.ToLower(strings.TrimSpace(v.GetString("AUTHZ_TYPE")))
	config.Authz.Roles = getList(v, "AUTHZ_ROLES")
	config.Authz.SpiceDB.Endpoint = v.GetString("AUTHZ_SPICEDB_ENDPOINT")
	config.Authz.SpiceDB.Insecure = v.GetBool("AUTHZ_SPICEDB_INSECURE")
	config.Authz.SpiceDB.Token = v.GetString("AUTHZ_SPICEDB_TOKEN")
	config.Authz.SpiceDB.ResourceType = v.GetString("AUTHZ_SPICEDB_RESOURCE_TYPE")
	config.Authz.SpiceDB.ResourceID = v.GetString("AUTHZ_SPICEDB_RESOURCE_ID")
	config.Authz.SpiceDB.Permission = v.GetString("AUTHZ_SPICEDB_PERMISSION")
	config.Authz.SpiceDB.SubjectType = v.GetString("AUTHZ_SPICEDB_SUBJECT_TYPE")

	// Populate news configuration
	config.News.SourcesPath = v.GetString("NEWS_SOURCES_PATH")
	config.News.RedisURL = v.GetString("NEWS_REDIS_URL")
	if config.News.CacheTTL, err = getDuration(v, "NEWS_CACHE_TTL"); err != nil {
		return nil, err
	}
	if config.News.RefreshInterval, err = getDuration(v, "NEWS_REFRESH_INTERVAL"); err != nil {
		return nil, err
	}

	// Populate forecast configuration
	config.Forecast.URL = v.GetString("FORECAST_URL")
	config.Forecast.DefaultRegion = v.GetString("DEFAULT_REGION")
	if config.Forecast.DefaultLat, err = getFloat(v, "DEFAULT_LAT"); err != nil {
		return nil, err
	}
	if config.Forecast.DefaultLng, err = getFloat(v, "DEFAULT_LNG"); err != nil {
		return nil, err
	}

	// Populate observability configuration
	config.Observability.LogLevel = v.GetString("LOG_LEVEL")
	config.Observability.LogFormat = v.GetString("LOG_FORMAT")

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	config.Warnings = collectWarnings(config)

	return config, nil
}

func getDuration(v *viper.Viper, name string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(name)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(name), err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", strings.ToLower(name))
	}
	return d, nil
}

func getFloat(v *viper.Viper, name string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(name)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(name), err)
	}
	return f, nil
}

// getList reads a list setting. Environment values are comma separated,
// config files may use either a string or a native list.
func getList(v *viper.Viper, name string) []string {
	var parts []string
	switch raw := v.Get(name).(type) {
	case string:
		parts = strings.Split(raw, ",")
	case []string:
		parts = raw
	case []interface{}:
		for _, item := range raw {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	// Validate TLS configuration
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return fmt.Errorf("TLS certificate path is required when TLS is enabled")
		}
		if cfg.TLS.KeyPath == "" {
			return fmt.Errorf("TLS key path is required when TLS is enabled")
		}

		// Check if certificate and key files exist
		if _, err := os.Stat(cfg.TLS.CertPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", cfg.TLS.CertPath)
		}
		if _, err := os.Stat(cfg.TLS.KeyPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", cfg.TLS.KeyPath)
		}
	}

	if err := validateUpstreamConfig(cfg); err != nil {
		return err
	}

	if !strings.HasPrefix(cfg.Gate.RestrictedPrefix, "/") {
		return fmt.Errorf("restricted prefix must start with '/': %q", cfg.Gate.RestrictedPrefix)
	}

	// Validate authentication configurations
	if err := validateTokenConfig(cfg); err != nil {
		return err
	}

	// Validate authorization configurations
	if err := validateAuthzConfig(cfg); err != nil {
		return err
	}

	if cfg.Forecast.DefaultLat < -90 || cfg.Forecast.DefaultLat > 90 {
		return fmt.Errorf("default latitude out of range: %v", cfg.Forecast.DefaultLat)
	}
	if cfg.Forecast.DefaultLng < -180 || cfg.Forecast.DefaultLng > 180 {
		return fmt.Errorf("default longitude out of range: %v", cfg.Forecast.DefaultLng)
	}
	if err := validateAbsoluteURL("forecast URL", cfg.Forecast.URL); err != nil {
		return err
	}

	return nil
}

// validateUpstreamConfig checks the backend origins that are set
func validateUpstreamConfig(cfg *Config) error {
	origins := map[string]string{
		"API_BASE":        cfg.Upstream.APIBase,
		"AUTH_API_BASE":   cfg.Upstream.AuthAPIBase,
		"PUBLIC_API_BASE": cfg.Upstream.PublicAPIBase,
	}
	for name, origin := range origins {
		if origin == "" {
			continue
		}
		if err := validateAbsoluteURL(name, origin); err != nil {
			return err
		}
	}

	if cfg.Upstream.SiteURL != nil && (cfg.Upstream.SiteURL.Scheme == "" || cfg.Upstream.SiteURL.Host == "") {
		return fmt.Errorf("site upstream URL must be absolute: %s", cfg.Upstream.SiteURL)
	}

	if cfg.Upstream.CAPath != "" {
		if _, err := os.Stat(cfg.Upstream.CAPath); os.IsNotExist(err) {
			return fmt.Errorf("upstream CA file not found: %s", cfg.Upstream.CAPath)
		}
	}

	return nil
}

func validateAbsoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: expected an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

// validateTokenConfig validates credential verification configuration
func validateTokenConfig(cfg *Config) error {
	switch cfg.Token.Verification {
	case VerificationNone:
	case VerificationHMAC:
		if cfg.Token.Secret == "" {
			return fmt.Errorf("token secret is required when hmac verification is enabled")
		}
	case VerificationOIDC:
		if cfg.Token.OIDC.Issuer == "" {
			return fmt.Errorf("OIDC issuer is required when oidc verification is enabled")
		}
	default:
		return fmt.Errorf("unknown token verification mode: %q", cfg.Token.Verification)
	}
	return nil
}

// validateAuthzConfig validates authorization configuration
func validateAuthzConfig(cfg *Config) error {
	switch cfg.Authz.Type {
	case AuthzRoles:
		if len(cfg.Authz.Roles) == 0 {
			return fmt.Errorf("at least one role is required when using roles authorization")
		}
	case AuthzSpiceDB:
		if cfg.Authz.SpiceDB.Endpoint == "" {
			return fmt.Errorf("SpiceDB endpoint is required when using SpiceDB authorization")
		}
		if cfg.Authz.SpiceDB.Token == "" {
			return fmt.Errorf("SpiceDB token is required when using SpiceDB authorization")
		}
		if cfg.Authz.SpiceDB.ResourceID == "" {
			return fmt.Errorf("SpiceDB resource ID is required when using SpiceDB authorization")
		}
	default:
		return fmt.Errorf("unknown authorizer type: %q", cfg.Authz.Type)
	}

	return nil
}

// collectWarnings lists problems that do not prevent the gateway from starting
func collectWarnings(cfg *Config) []string {
	var warnings []string

	origins := []string{cfg.Upstream.APIBase, cfg.Upstream.AuthAPIBase, cfg.Upstream.PublicAPIBase}
	if !slices.ContainsFunc(origins, func(s string) bool { return s != "" }) {
		warnings = append(warnings, "no API origin configured (API_BASE, AUTH_API_BASE, NEXT_PUBLIC_API_BASE); proxied routes will answer 500")
	}

	if cfg.IsProduction() && cfg.Token.Verification == VerificationNone {
		warnings = append(warnings, "production without token verification: credential signatures are not checked")
	}

	return warnings
}
