// internal/config/settings.go
package config

import "github.com/spf13/viper"

// SettingType represents the type of a setting
type SettingType string

const (
	// String type for string settings
	String SettingType = "string"
	// Bool type for boolean settings
	Bool SettingType = "bool"
	// Float type for floating point settings
	Float SettingType = "float"
	// Duration type for settings parsed with time.ParseDuration
	Duration SettingType = "duration"
	// StringSlice type for comma separated list settings
	StringSlice SettingType = "stringSlice"
)

// Setting defines a configuration setting
type Setting struct {
	// Name is the name of the setting, also its key in a config file
	Name string
	// Short is a short description of the setting
	Short string
	// Type is the type of the setting
	Type SettingType
	// Default is the default value of the setting
	Default interface{}
	// Env lists the environment variable names for the setting.
	// When several are set the first one listed wins.
	Env []string
}

// SettingList is a list of settings
type SettingList []Setting

// PopulateViperDefaults sets default values for all settings in Viper
func (sl SettingList) PopulateViperDefaults(v *viper.Viper) {
	for _, s := range sl {
		v.SetDefault(s.Name, s.Default)
	}
}

// BindEnv binds every setting to its environment variable names
func (sl SettingList) BindEnv(v *viper.Viper) error {
	for _, s := range sl {
		if len(s.Env) == 0 {
			continue
		}
		args := append([]string{s.Name}, s.Env...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the setting with the given name
func (sl SettingList) Lookup(name string) (Setting, bool) {
	for _, s := range sl {
		if s.Name == name {
			return s, true
		}
	}
	return Setting{}, false
}

// Settings defines all application settings
var Settings = SettingList{
	// Server settings
	{
		Name:    "SERVER_ADDR",
		Short:   "Address on which the server listens",
		Type:    String,
		Default: ":8000",
		Env:     []string{"BEEGATE_SERVER_ADDR"},
	},
	{
		Name:    "METRICS_ADDR",
		Short:   "Address on which the metrics server listens",
		Type:    String,
		Default: ":9090",
		Env:     []string{"BEEGATE_METRICS_ADDR"},
	},
	{
		Name:    "SHUTDOWN_TIMEOUT",
		Short:   "Maximum time to wait for graceful shutdown",
		Type:    Duration,
		Default: "30s",
		Env:     []string{"BEEGATE_SHUTDOWN_TIMEOUT"},
	},
	{
		Name:    "ENVIRONMENT",
		Short:   "Deployment environment; production enables HSTS",
		Type:    String,
		Default: "development",
		Env:     []string{"BEEGATE_ENVIRONMENT", "NODE_ENV"},
	},

	// TLS settings
	{
		Name:    "TLS_ENABLED",
		Short:   "Enable TLS for the server",
		Type:    Bool,
		Default: false,
		Env:     []string{"BEEGATE_TLS_ENABLED"},
	},
	{
		Name:    "TLS_CERT_PATH",
		Short:   "Path to TLS certificate file",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_TLS_CERT_PATH"},
	},
	{
		Name:    "TLS_KEY_PATH",
		Short:   "Path to TLS key file",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_TLS_KEY_PATH"},
	},

	// Upstream settings
	{
		Name:    "API_BASE",
		Short:   "Base URL of the backend service",
		Type:    String,
		Default: "",
		Env:     []string{"API_BASE"},
	},
	{
		Name:    "AUTH_API_BASE",
		Short:   "Base URL of the authentication service",
		Type:    String,
		Default: "",
		Env:     []string{"AUTH_API_BASE"},
	},
	{
		Name:    "PUBLIC_API_BASE",
		Short:   "Public base URL of the backend, also used in the content security policy",
		Type:    String,
		Default: "",
		Env:     []string{"NEXT_PUBLIC_API_BASE"},
	},
	{
		Name:    "UPSTREAM_TIMEOUT",
		Short:   "Timeout for upstream response headers",
		Type:    Duration,
		Default: "30s",
		Env:     []string{"BEEGATE_UPSTREAM_TIMEOUT"},
	},
	{
		Name:    "UPSTREAM_CA_PATH",
		Short:   "Extra CA certificate trusted for upstream calls",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_UPSTREAM_CA_PATH"},
	},
	{
		Name:    "SITE_UPSTREAM_URL",
		Short:   "URL of the site server that renders pages",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_SITE_UPSTREAM_URL"},
	},

	// Gate
	{
		Name:    "GATE_RESTRICTED_PREFIX",
		Short:   "Path prefix that requires a staff role",
		Type:    String,
		Default: "/admin",
		Env:     []string{"BEEGATE_GATE_RESTRICTED_PREFIX"},
	},
	{
		Name:    "GATE_EXCLUDED_PREFIXES",
		Short:   "Path prefixes the gate never inspects",
		Type:    StringSlice,
		Default: "/_next/static,/_next/image,/favicon.ico",
		Env:     []string{"BEEGATE_GATE_EXCLUDED_PREFIXES"},
	},

	// Token verification
	{
		Name:    "TOKEN_VERIFICATION",
		Short:   "How credentials are verified (none, hmac, oidc)",
		Type:    String,
		Default: "none",
		Env:     []string{"BEEGATE_TOKEN_VERIFICATION"},
	},
	{
		Name:    "TOKEN_SECRET",
		Short:   "Shared secret for hmac verification",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_TOKEN_SECRET", "JWT_SECRET"},
	},
	{
		Name:    "TOKEN_OIDC_ISSUER",
		Short:   "Issuer URL for oidc verification",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_TOKEN_OIDC_ISSUER"},
	},
	{
		Name:    "TOKEN_OIDC_JWKS_URL",
		Short:   "JWKS URL; discovered from the issuer when empty",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_TOKEN_OIDC_JWKS_URL"},
	},

	// Authorization
	{
		Name:    "AUTHZ_TYPE",
		Short:   "Type of authorizer to use (roles, spicedb)",
		Type:    String,
		Default: "roles",
		Env:     []string{"BEEGATE_AUTHZ_TYPE"},
	},
	{
		Name:    "AUTHZ_ROLES",
		Short:   "Roles admitted to the restricted area",
		Type:    StringSlice,
		Default: "moderator,admin,super_admin",
		Env:     []string{"BEEGATE_AUTHZ_ROLES"},
	},
	{
		Name:    "AUTHZ_SPICEDB_ENDPOINT",
		Short:   "SpiceDB endpoint",
		Type:    String,
		Default: "localhost:50051",
		Env:     []string{"BEEGATE_AUTHZ_SPICEDB_ENDPOINT"},
	},
	{
		Name:    "AUTHZ_SPICEDB_INSECURE",
		Short:   "Use insecure connection to SpiceDB",
		Type:    Bool,
		Default: false,
		Env:     []string{"BEEGATE_AUTHZ_SPICEDB_INSECURE"},
	},
	{
		Name:    "AUTHZ_SPICEDB_TOKEN",
		Short:   "SpiceDB authentication token",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_AUTHZ_SPICEDB_TOKEN"},
	},
	{
		Name:    "AUTHZ_SPICEDB_RESOURCE_TYPE",
		Short:   "SpiceDB resource type",
		Type:    String,
		Default: "portal",
		Env:     []string{"BEEGATE_AUTHZ_SPICEDB_RESOURCE_TYPE"},
	},
	{
		Name:    "AUTHZ_SPICEDB_RESOURCE_ID",
		Short:   "SpiceDB resource ID",
		Type:    String,
		Default: "admin",
		Env:     []string{"BEEGATE_AUTHZ_SPICEDB_RESOURCE_ID"},
	},
	{
		Name:    "AUTHZ_SPICEDB_PERMISSION",
		Short:   "SpiceDB permission checked for the restricted area",
		Type:    String,
		Default: "access",
		Env:     []string{"BEEGATE_AUTHZ_SPICEDB_PERMISSION"},
	},
	{
		Name:    "AUTHZ_SPICEDB_SUBJECT_TYPE",
		Short:   "SpiceDB subject type",
		Type:    String,
		Default: "user",
		Env:     []string{"BEEGATE_AUTHZ_SPICEDB_SUBJECT_TYPE"},
	},

	// News
	{
		Name:    "NEWS_SOURCES_PATH",
		Short:   "YAML file listing news sources; built-in feeds when empty",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_NEWS_SOURCES_PATH"},
	},
	{
		Name:    "NEWS_CACHE_TTL",
		Short:   "How long aggregated news stays cached",
		Type:    Duration,
		Default: "30m",
		Env:     []string{"BEEGATE_NEWS_CACHE_TTL"},
	},
	{
		Name:    "NEWS_REFRESH_INTERVAL",
		Short:   "Interval of the background news refresh; 0 disables it",
		Type:    Duration,
		Default: "30m",
		Env:     []string{"BEEGATE_NEWS_REFRESH_INTERVAL"},
	},
	{
		Name:    "NEWS_REDIS_URL",
		Short:   "Redis URL for the shared news cache; in-memory when empty",
		Type:    String,
		Default: "",
		Env:     []string{"BEEGATE_NEWS_REDIS_URL"},
	},

	// Forecast
	{
		Name:    "FORECAST_URL",
		Short:   "Open-Meteo forecast endpoint",
		Type:    String,
		Default: "https://api.open-meteo.com/v1/forecast",
		Env:     []string{"BEEGATE_FORECAST_URL"},
	},
	{
		Name:    "DEFAULT_LAT",
		Short:   "Latitude used when the request has none",
		Type:    Float,
		Default: "42.6977",
		Env:     []string{"NEXT_PUBLIC_DEFAULT_LAT"},
	},
	{
		Name:    "DEFAULT_LNG",
		Short:   "Longitude used when the request has none",
		Type:    Float,
		Default: "23.3219",
		Env:     []string{"NEXT_PUBLIC_DEFAULT_LNG"},
	},
	{
		Name:    "DEFAULT_REGION",
		Short:   "Region label used when the request has none",
		Type:    String,
		Default: "София и околностите",
		Env:     []string{"NEXT_PUBLIC_DEFAULT_REGION"},
	},

	// Observability
	{
		Name:    "LOG_LEVEL",
		Short:   "Logging level",
		Type:    String,
		Default: "info",
		Env:     []string{"BEEGATE_LOG_LEVEL"},
	},
	{
		Name:    "LOG_FORMAT",
		Short:   "Logging format (json, text, console)",
		Type:    String,
		Default: "text",
		Env:     []string{"BEEGATE_LOG_FORMAT"},
	},
}
