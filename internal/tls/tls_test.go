package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"beegate/internal/observability/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned writes a self-signed certificate and key and returns their paths
func writeSelfSigned(t *testing.T, cn string, notAfter time.Time) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		DNSNames:              []string{"beegate.local"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certPath, keyPath
}

func TestGetTLSConfig(t *testing.T) {
	certPath, keyPath := writeSelfSigned(t, "beegate", time.Now().Add(365*24*time.Hour))
	c := &Config{Logger: logging.Nop(), CertPath: certPath, KeyPath: keyPath}

	cfg, err := c.GetTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Len(t, cfg.Certificates, 1)

	c.KeyPath = filepath.Join(t.TempDir(), "missing.pem")
	_, err = c.GetTLSConfig()
	assert.Error(t, err)
}

func TestGetUpstreamTLSConfig(t *testing.T) {
	c := &Config{Logger: logging.Nop()}
	cfg, err := c.GetUpstreamTLSConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	certPath, _ := writeSelfSigned(t, "backend-ca", time.Now().Add(time.Hour))
	c.UpstreamCAPath = certPath
	cfg, err = c.GetUpstreamTLSConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.RootCAs)

	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not pem"), 0o600))
	c.UpstreamCAPath = garbage
	_, err = c.GetUpstreamTLSConfig()
	assert.Error(t, err)
}

func TestCertificateHelpers(t *testing.T) {
	now := time.Now()
	certPath, keyPath := writeSelfSigned(t, "", now.Add(10*24*time.Hour))
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)

	leaf, err := LeafCertificate(pair)
	require.NoError(t, err)
	assert.Equal(t, "beegate.local", Subject(leaf))
	assert.True(t, ExpiresWithin(leaf, now, 30*24*time.Hour))
	assert.False(t, ExpiresWithin(leaf, now, 24*time.Hour))

	_, err = LeafCertificate(tls.Certificate{})
	assert.Error(t, err)
}
