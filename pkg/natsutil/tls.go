package natsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/carverauto/dashgate/pkg/models"
)

var (
	// ErrClientCertRequired is returned when only one of cert_file and key_file is set.
	ErrClientCertRequired = errors.New("nats tls: cert_file and key_file must be set together")
	// ErrCAParsingFailed is returned when the CA bundle holds no PEM certificates.
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
)

// TLSConfig builds the client TLS settings for the NATS connection. A client
// certificate turns on mutual TLS. Without ca_file the system roots verify
// the server.
func TLSConfig(sec *models.NATSTLSConfig) (*tls.Config, error) {
	conf := &tls.Config{
		ServerName: sec.ServerName,
		MinVersion: tls.VersionTLS12,
	}

	if (sec.CertFile == "") != (sec.KeyFile == "") {
		return nil, ErrClientCertRequired
	}

	if sec.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(sec.CertFile, sec.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		conf.Certificates = []tls.Certificate{cert}
	}

	if sec.CAFile == "" {
		return conf, nil
	}

	pem, err := os.ReadFile(sec.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	conf.RootCAs = x509.NewCertPool()
	if !conf.RootCAs.AppendCertsFromPEM(pem) {
		return nil, ErrCAParsingFailed
	}

	return conf, nil
}
