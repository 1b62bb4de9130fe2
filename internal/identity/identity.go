// Package identity provides the capsule manager's own key pair and
// certificate, either injected from disk or generated at start-up.
package identity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/capsule-manager/capsule-manager/internal/config"
)

const (
	SchemeRSA = "RSA"
	SchemeSM2 = "SM2"

	rsaKeyBits   = 2048
	certValidity = 365 * 24 * time.Hour
	commonName   = "capsule-manager"
)

var (
	// ErrUnsupportedScheme indicates a key scheme this build cannot serve.
	ErrUnsupportedScheme = errors.New("unsupported key scheme")
)

// Identity is the capsule manager's signing key and certificate.
type Identity struct {
	Scheme     string
	PrivateKey crypto.Signer
	Cert       *x509.Certificate
	certDER    []byte
}

// Load returns the identity described by cfg. With key injection enabled the
// key pair is read from cfg.CMPrivateKeyPath and cfg.CMCertPath; otherwise a
// fresh self-signed pair is generated for the configured scheme.
func Load(cfg config.Config) (*Identity, error) {
	scheme := strings.ToUpper(cfg.Scheme)
	if scheme != SchemeRSA {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, cfg.Scheme)
	}

	if cfg.EnableInjectCMKey {
		return fromFiles(scheme, cfg.CMCertPath, cfg.CMPrivateKeyPath)
	}
	return generate(scheme)
}

// CertPEM returns the certificate in PEM form.
func (id *Identity) CertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: id.certDER})
}

func fromFiles(scheme, certPath, keyPath string) (*Identity, error) {
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load capsule manager key pair: %w", err)
	}
	signer, ok := pair.PrivateKey.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("load capsule manager key pair: private key cannot sign")
	}
	cert, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse capsule manager certificate: %w", err)
	}

	return &Identity{
		Scheme:     scheme,
		PrivateKey: signer,
		Cert:       cert,
		certDER:    pair.Certificate[0],
	}, nil
}

func generate(scheme string) (*Identity, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	return &Identity{
		Scheme:     scheme,
		PrivateKey: key,
		Cert:       cert,
		certDER:    der,
	}, nil
}
