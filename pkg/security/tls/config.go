package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"mercator-hq/quotegate/pkg/config"
)

// NewServerConfig checks the configured files, loads the certificate and
// returns a server TLS configuration that serves it through the returned
// reloader. The caller runs the reloader for the lifetime of the server.
func NewServerConfig(cfg config.TLSConfig) (*tls.Config, *CertificateReloader, error) {
	if cfg.CertFile == "" {
		return nil, nil, fmt.Errorf("TLS cert file not specified")
	}
	if cfg.KeyFile == "" {
		return nil, nil, fmt.Errorf("TLS key file not specified")
	}
	if _, err := os.Stat(cfg.CertFile); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("TLS cert file not found: %s", cfg.CertFile)
	}
	if _, err := os.Stat(cfg.KeyFile); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("TLS key file not found: %s", cfg.KeyFile)
	}

	minVersion, err := ParseVersion(cfg.MinVersion)
	if err != nil {
		return nil, nil, err
	}

	reloader := NewCertificateReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval)
	if err := reloader.Load(); err != nil {
		return nil, nil, err
	}

	// #nosec G402 - MinVersion is 1.2 or 1.3
	return &tls.Config{
		MinVersion:     minVersion,
		GetCertificate: reloader.GetCertificate,
	}, reloader, nil
}
