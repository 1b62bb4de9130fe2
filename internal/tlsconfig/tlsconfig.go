// Package tlsconfig builds the listener's mutual-TLS configuration.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/capsule-manager/capsule-manager/internal/config"
)

// ErrNoClientCA indicates the client CA path held no usable certificate.
var ErrNoClientCA = errors.New("no client CA certificates found")

// New returns the server TLS configuration, or nil when TLS is disabled.
// Clients must present a certificate signed by one of the CAs found at
// cfg.ClientCACertPath, which may be a PEM file or a directory of them.
func New(cfg config.TLSConfig) (*tls.Config, error) {
	if !cfg.EnableTLS {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.ServerCertPath, cfg.ServerPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load server key pair: %w", err)
	}

	pool, err := loadClientCAs(cfg.ClientCACertPath)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
	}, nil
}

func loadClientCAs(path string) (*x509.CertPool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat client CA path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read client CA directory: %w", err)
		}
		files = files[:0]
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}

	pool := x509.NewCertPool()
	found := false
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read client CA %s: %w", f, err)
		}
		if pool.AppendCertsFromPEM(data) {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoClientCA, path)
	}
	return pool, nil
}
