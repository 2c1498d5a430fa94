package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config describes how retainer authenticates the Elasticsearch cluster
// and, optionally, itself.
type Config struct {
	// CAFile is a PEM bundle of certificate authorities trusted in addition
	// to the system pool. Use it for clusters with self-signed certificates.
	CAFile string `yaml:"ca_file"`

	// CertFile and KeyFile are the PEM client certificate and key for
	// clusters that require client certificates. Both or neither.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is the minimum TLS version: "1.2" or "1.3".
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`
}

// IsZero reports whether no TLS setting is configured.
func (c Config) IsZero() bool {
	return c == Config{}
}

// ParseVersion converts "1.2" or "1.3" to a crypto/tls version constant.
// An empty string selects TLS 1.2. Older versions are rejected.
func ParseVersion(v string) (uint16, error) {
	switch v {
	case "1.2", "":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q (want 1.2 or 1.3)", v)
	}
}

// ClientConfig builds the crypto/tls client configuration. Certificates are
// loaded and checked for validity at the current time.
func (c Config) ClientConfig(insecureSkipVerify bool) (*tls.Config, error) {
	minVersion, err := ParseVersion(c.MinVersion)
	if err != nil {
		return nil, err
	}

	// #nosec G402 - InsecureSkipVerify is an explicit operator opt-in
	tlsConfig := &tls.Config{
		MinVersion:         minVersion,
		InsecureSkipVerify: insecureSkipVerify,
	}

	if c.CAFile != "" {
		pool, err := loadCAPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return nil, fmt.Errorf("cert_file and key_file must be set together")
	}
	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		if err := ValidateCertificate(&cert); err != nil {
			return nil, fmt.Errorf("client certificate %s: %w", c.CertFile, err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// loadCAPool returns the system pool extended with the certificates in path.
func loadCAPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no PEM certificates found in CA file %s", path)
	}
	return pool, nil
}
