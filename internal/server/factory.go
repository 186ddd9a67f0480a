// internal/server/factory.go
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"beegate/internal/auth/bearer"
	"beegate/internal/auth/token"
	"beegate/internal/authz"
	"beegate/internal/authz/roles"
	"beegate/internal/authz/spicedb"
	"beegate/internal/config"
	"beegate/internal/forecast"
	"beegate/internal/gate"
	"beegate/internal/news"
	"beegate/internal/observability"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"
	"beegate/internal/proxy"
	tlsconfig "beegate/internal/tls"
)

// NewFromConfig creates a new server from configuration.
// ctx bounds background work (OIDC discovery, news refresh) for the server's lifetime.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	obs, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return newWithProvider(ctx, cfg, obs)
}

func newWithProvider(ctx context.Context, cfg *config.Config, obs *observability.Provider) (*Server, error) {
	logger := obs.Logger
	for _, w := range cfg.Warnings {
		logger.Warn("Configuration warning", "warning", w)
	}

	tlsSetup := &tlsconfig.Config{
		Logger:         logger,
		CertPath:       cfg.TLS.CertPath,
		KeyPath:        cfg.TLS.KeyPath,
		UpstreamCAPath: cfg.Upstream.CAPath,
	}

	var serverTLS *tls.Config
	if cfg.TLS.Enabled {
		var err error
		serverTLS, err = tlsSetup.GetTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
	}
	upstreamTLS, err := tlsSetup.GetUpstreamTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream TLS configuration: %w", err)
	}
	transport := proxy.NewTransport(cfg.Upstream.Timeout, upstreamTLS)

	decoder, err := token.New(ctx, token.Config{
		Mode:        token.Mode(cfg.Token.Verification),
		Secret:      cfg.Token.Secret,
		OIDCIssuer:  cfg.Token.OIDC.Issuer,
		OIDCJWKSURL: cfg.Token.OIDC.JWKSURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token decoder: %w", err)
	}
	authn := bearer.New(decoder, logger, obs.Metrics)

	authorizer, err := createAuthorizer(cfg, logger)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	newsHandler, newsClosers, err := createNews(ctx, cfg, transport, logger, obs.Metrics)
	if err != nil {
		return nil, err
	}
	closers = append(closers, newsClosers...)

	forecastHandler := forecast.NewHandler(
		forecast.NewClient(cfg.Forecast.URL, transport),
		forecast.Location{Lat: cfg.Forecast.DefaultLat, Lng: cfg.Forecast.DefaultLng, Region: cfg.Forecast.DefaultRegion},
		logger,
	)

	pages, notFound := createPages(cfg, transport, logger, obs.Metrics)

	router := NewRouter(Routes{
		Origins: proxy.Origins{
			API:    cfg.Upstream.APIBase,
			Auth:   cfg.Upstream.AuthAPIBase,
			Public: cfg.Upstream.PublicAPIBase,
		},
		Transport: transport,
		News:      newsHandler,
		Forecast:  forecastHandler,
		Pages:     pages,
		Logger:    logger,
		Metrics:   obs.Metrics,
	})

	g := gate.New(gate.Config{
		RestrictedPrefix: cfg.Gate.RestrictedPrefix,
		ExcludedPrefixes: cfg.Gate.ExcludedPrefixes,
		APIBase:          cfg.Upstream.APIBase,
		Production:       cfg.IsProduction(),
	}, authn, authorizer, notFound, logger, obs.Metrics)

	// observability -> gate -> router
	handler := obs.Middleware(g.Middleware(router))

	srv := New(Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLSConfig:       serverTLS,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, handler, obs.MetricsHandler(), logger)
	for _, c := range closers {
		srv.OnStop(c)
	}

	logger.Info("Gateway configured",
		"environment", cfg.Environment,
		"token_verification", decoder.Mode(),
		"authorizer", cfg.Authz.Type,
		"restricted_prefix", cfg.Gate.RestrictedPrefix,
		"site_proxy", cfg.Upstream.SiteURL != nil,
	)
	return srv, nil
}

// createAuthorizer creates the role decision backend
func createAuthorizer(cfg *config.Config, logger *logging.Logger) (authz.Authorizer, error) {
	if cfg.Authz.Type != config.AuthzSpiceDB {
		return roles.New(cfg.Authz.Roles), nil
	}

	spicedbConfig := spicedb.Config{
		Endpoint:     cfg.Authz.SpiceDB.Endpoint,
		Insecure:     cfg.Authz.SpiceDB.Insecure,
		Token:        cfg.Authz.SpiceDB.Token,
		ResourceType: cfg.Authz.SpiceDB.ResourceType,
		ResourceID:   cfg.Authz.SpiceDB.ResourceID,
		Permission:   cfg.Authz.SpiceDB.Permission,
		SubjectType:  cfg.Authz.SpiceDB.SubjectType,
	}
	client, err := spicedb.Dial(spicedbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create SpiceDB client: %w", err)
	}

	logger.Info("Using SpiceDB authorizer",
		"endpoint", cfg.Authz.SpiceDB.Endpoint,
		"insecure", cfg.Authz.SpiceDB.Insecure,
		"resource", cfg.Authz.SpiceDB.ResourceType+":"+cfg.Authz.SpiceDB.ResourceID)
	return spicedb.New(spicedbConfig, client, logger), nil
}

// createNews builds the aggregator, its cache and the refresh job
func createNews(ctx context.Context, cfg *config.Config, transport http.RoundTripper, logger *logging.Logger, metricsCollector *metrics.Collector) (*news.Handler, []func() error, error) {
	sources, err := news.LoadSources(cfg.News.SourcesPath)
	if err != nil {
		return nil, nil, err
	}

	var closers []func() error
	var cache news.Cache = news.NewMemoryCache(cfg.News.CacheTTL)
	if cfg.News.RedisURL != "" {
		redisCache, err := news.NewRedisCache(ctx, cfg.News.RedisURL, cfg.News.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect news cache: %w", err)
		}
		cache = redisCache
		closers = append(closers, redisCache.Close)
	}

	aggregator := news.NewAggregator(sources, cache, transport, logger, metricsCollector)

	if cfg.News.RefreshInterval > 0 {
		refresher, err := news.StartRefresher(ctx, aggregator, cfg.News.RefreshInterval, logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, refresher.Stop)
	}

	return news.NewHandler(aggregator, logger), closers, nil
}

// createPages returns the page handler and the not-found handler used for gate rewrites
func createPages(cfg *config.Config, transport http.RoundTripper, logger *logging.Logger, metricsCollector *metrics.Collector) (http.Handler, http.Handler) {
	if cfg.Upstream.SiteURL == nil {
		return http.NotFoundHandler(), http.NotFoundHandler()
	}
	site := proxy.NewSite(cfg.Upstream.SiteURL, transport, logger, metricsCollector)
	return site, site.NotFound()
}
