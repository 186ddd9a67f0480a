// internal/tls/utils.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"
)

// LoadCertPool builds a pool from PEM files, starting from the system roots when withSystem is set
func LoadCertPool(withSystem bool, paths ...string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if withSystem {
		if system, err := x509.SystemCertPool(); err == nil && system != nil {
			pool = system
		}
	}

	for _, path := range paths {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("failed to parse CA file: %s", path)
		}
	}
	return pool, nil
}

// LeafCertificate returns the parsed leaf of a key pair
func LeafCertificate(cert tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificate chain is empty")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	return leaf, nil
}

// ExpiresWithin reports whether cert is expired or expires within d of now
func ExpiresWithin(cert *x509.Certificate, now time.Time, d time.Duration) bool {
	return now.Add(d).After(cert.NotAfter)
}

// Subject returns the Common Name, or the first DNS name when the CN is empty
func Subject(cert *x509.Certificate) string {
	if cert.Subject.CommonName != "" {
		return cert.Subject.CommonName
	}
	if len(cert.DNSNames) > 0 {
		return cert.DNSNames[0]
	}
	return ""
}
