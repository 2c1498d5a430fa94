/*
Package tls builds the TLS client configuration used to reach Elasticsearch.

Trust a private certificate authority and present a client certificate:

	cfg := tls.Config{
		CAFile:     "/etc/retainer/certs/es-ca.pem",
		CertFile:   "/etc/retainer/certs/retainer.crt",
		KeyFile:    "/etc/retainer/certs/retainer.key",
		MinVersion: "1.3",
	}

	tlsConfig, err := cfg.ClientConfig(false)
	if err != nil {
		return err
	}

ExpiryWarnings lists certificates that expire within ExpiryWarningWindow,
so they can be logged at startup.
*/
package tls
