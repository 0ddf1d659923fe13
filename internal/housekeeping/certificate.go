package housekeeping

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/anchorbundle/anchor/internal/fsutil"
	"github.com/anchorbundle/anchor/pkg/logging"
)

const rootKeyBits = 2048

// CertificateOptions describes the local root certificate.
type CertificateOptions struct {
	Dir          string
	Name         string // File stem and common name
	Organization string
	ValidDays    int
}

// Files returns the certificate, private key and public key paths.
func (o CertificateOptions) Files() (crt, key, pub string) {
	base := filepath.Join(o.Dir, o.Name)
	return base + ".crt", base + ".key", base + ".pub"
}

// EnsureRootCertificate writes a self-signed root certificate for local
// development unless both the certificate and its key already exist. It
// reports whether new files were written.
func EnsureRootCertificate(opts CertificateOptions) (bool, error) {
	if opts.Dir == "" || opts.Name == "" {
		return false, nil
	}
	crtPath, keyPath, pubPath := opts.Files()
	if exists(crtPath) && exists(keyPath) {
		return false, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", opts.Dir, err)
	}

	key, err := rsa.GenerateKey(rand.Reader, rootKeyBits)
	if err != nil {
		return false, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return false, fmt.Errorf("failed to generate serial number: %w", err)
	}

	days := opts.ValidDays
	if days <= 0 {
		days = 365
	}
	notBefore := time.Now().Add(-time.Hour)
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   opts.Name,
			Organization: nonEmpty(opts.Organization),
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(0, 0, days),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{opts.Name, "*." + opts.Name},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return false, fmt.Errorf("failed to create certificate: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return false, fmt.Errorf("failed to encode public key: %w", err)
	}

	files := []struct {
		path  string
		block *pem.Block
		perm  os.FileMode
	}{
		{keyPath, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}, 0o600},
		{pubPath, &pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}, 0o644},
		{crtPath, &pem.Block{Type: "CERTIFICATE", Bytes: der}, 0o644},
	}
	for _, f := range files {
		if err := fsutil.WriteFileAtomic(f.path, pem.EncodeToMemory(f.block), f.perm); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}

	logging.Info("Housekeeping", "Created root certificate %s", crtPath)
	return true, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
