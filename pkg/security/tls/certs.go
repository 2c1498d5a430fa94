package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"
)

// ExpiryWarningWindow is how far ahead ExpiryWarnings looks.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// ValidateCertificate checks that the leaf of cert is currently valid.
func ValidateCertificate(cert *tls.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is nil")
	}
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("certificate chain is empty")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	return ValidateX509Certificate(leaf, time.Now())
}

// ValidateX509Certificate checks that cert is valid at now.
func ValidateX509Certificate(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}

// CheckCertificateExpiration returns the whole days until cert expires and
// a warning when that is within ExpiryWarningWindow.
func CheckCertificateExpiration(cert *x509.Certificate, now time.Time) (daysUntilExpiry int, warning string) {
	remaining := cert.NotAfter.Sub(now)
	daysUntilExpiry = int(remaining.Hours() / 24)

	if remaining < ExpiryWarningWindow {
		warning = fmt.Sprintf("certificate %q expires in %d days (on %s)",
			cert.Subject.CommonName, daysUntilExpiry, cert.NotAfter.Format("2006-01-02"))
	}
	return daysUntilExpiry, warning
}

// ExpiryWarnings lists the configured certificates that expire soon.
// Files that cannot be read are skipped; ClientConfig reports those.
func (c Config) ExpiryWarnings(now time.Time) []string {
	var warnings []string
	for _, path := range []string{c.CAFile, c.CertFile} {
		if path == "" {
			continue
		}
		certs, err := LoadCertificates(path)
		if err != nil {
			continue
		}
		for _, cert := range certs {
			if _, warning := CheckCertificateExpiration(cert, now); warning != "" {
				warnings = append(warnings, path+": "+warning)
			}
		}
	}
	return warnings
}

// LoadCertificates parses every CERTIFICATE block in the PEM file at path.
func LoadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate in %s: %w", path, err)
		}
		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return certs, nil
}
