// internal/tls/config.go
package tls

import (
	"crypto/tls"
	"fmt"
	"time"

	"beegate/internal/observability/logging"
)

// expiryWarning is how early an expiring server certificate is reported
const expiryWarning = 30 * 24 * time.Hour

// Config holds the TLS configuration
type Config struct {
	// Logger is the logger to use
	Logger *logging.Logger

	// CertPath is the path to the server certificate
	CertPath string

	// KeyPath is the path to the server key
	KeyPath string

	// UpstreamCAPath is a PEM bundle trusted for backend connections in addition to the system roots
	UpstreamCAPath string
}

// GetTLSConfig creates a TLS configuration for the server
func (c *Config) GetTLSConfig() (*tls.Config, error) {
	c.Logger.Debug("Initializing TLS configuration")

	cert, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	leaf, err := LeafCertificate(cert)
	if err != nil {
		return nil, err
	}
	if ExpiresWithin(leaf, time.Now(), expiryWarning) {
		c.Logger.Warn("Server certificate expires soon", "subject", Subject(leaf), "not_after", leaf.NotAfter)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12, // Enforce minimum TLS version
	}

	c.Logger.Info("TLS configuration successful", "subject", Subject(leaf))
	return tlsConfig, nil
}

// GetUpstreamTLSConfig creates the client TLS configuration for backend calls.
// It returns nil when no extra CA is configured so the transport keeps its defaults.
func (c *Config) GetUpstreamTLSConfig() (*tls.Config, error) {
	if c.UpstreamCAPath == "" {
		return nil, nil
	}

	pool, err := LoadCertPool(true, c.UpstreamCAPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("Upstream CA loaded", "UpstreamCAFile", c.UpstreamCAPath)

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
