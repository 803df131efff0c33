// Package tlsgen provisions the self-signed CA and per-service certificates
// declared by tls blocks in service descriptors. Generation is idempotent:
// existing valid files are left untouched, so repeated runs converge.
package tlsgen

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

// Spec is one service's certificate requirement, taken from its tls block.
type Spec struct {
	Service  string
	CertName string
	CAName   string
}

// Result lists what a provisioning run did, by certificate name.
type Result struct {
	Created []string
	Reused  []string
}

// Provisioner writes CA and service certificates under Dir.
type Provisioner struct {
	Dir          string
	Bits         int
	CAValidity   time.Duration
	LeafValidity time.Duration
	Organization string
}

func New(dir string) *Provisioner {
	return &Provisioner{
		Dir:          dir,
		Bits:         4096,
		CAValidity:   10 * 365 * 24 * time.Hour,
		LeafValidity: 2 * 365 * 24 * time.Hour,
		Organization: "forge",
	}
}

type caPair struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
}

// Provision ensures every spec's CA and certificate exist and are valid.
// CAs shared by several services are generated once; a service certificate
// is regenerated when it is missing, expired, unreadable, or no longer
// signed by the current CA.
func (p *Provisioner) Provision(ctx context.Context, specs []Spec) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	result := &Result{}

	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cert dir: %w", err)
	}

	certOwner := make(map[string]string)
	cas := make(map[string]caPair)

	for _, spec := range specs {
		if spec.CertName == "" || spec.CAName == "" {
			return nil, fmt.Errorf("service %q: cert_name and ca_name must be set", spec.Service)
		}
		if owner, dup := certOwner[spec.CertName]; dup {
			return nil, fmt.Errorf("certificate %q requested by both %q and %q", spec.CertName, owner, spec.Service)
		}
		certOwner[spec.CertName] = spec.Service

		ca, ok := cas[spec.CAName]
		if !ok {
			var created bool
			var err error
			ca, created, err = p.ensureCA(spec.CAName)
			if err != nil {
				return nil, err
			}
			cas[spec.CAName] = ca
			if created {
				logger.Info("Generated CA certificate.", "name", spec.CAName)
				result.Created = append(result.Created, spec.CAName)
			} else {
				logger.Debug("Reusing valid CA certificate.", "name", spec.CAName)
				result.Reused = append(result.Reused, spec.CAName)
			}
		}

		created, err := p.ensureLeaf(spec, ca)
		if err != nil {
			return nil, err
		}
		if created {
			logger.Info("Generated service certificate.", "service", spec.Service, "name", spec.CertName)
			result.Created = append(result.Created, spec.CertName)
		} else {
			logger.Debug("Reusing valid service certificate.", "service", spec.Service, "name", spec.CertName)
			result.Reused = append(result.Reused, spec.CertName)
		}
	}

	return result, nil
}

// ensureCA loads a usable CA pair from disk or generates a fresh one.
func (p *Provisioner) ensureCA(name string) (caPair, bool, error) {
	certPath, keyPath := p.paths(name)
	if cert, key, err := loadPair(certPath, keyPath); err == nil && certUsable(cert) && cert.IsCA {
		return caPair{cert: cert, key: key}, false, nil
	}

	key, err := rsa.GenerateKey(rand.Reader, p.Bits)
	if err != nil {
		return caPair{}, false, fmt.Errorf("generating CA key: %w", err)
	}
	serial, err := newSerial()
	if err != nil {
		return caPair{}, false, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{p.Organization},
			CommonName:   name,
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(p.CAValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return caPair{}, false, fmt.Errorf("creating CA certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return caPair{}, false, fmt.Errorf("parsing generated CA certificate: %w", err)
	}

	if err := writePair(certPath, keyPath, der, key); err != nil {
		return caPair{}, false, err
	}
	return caPair{cert: cert, key: key}, true, nil
}

// ensureLeaf checks the on-disk certificate and regenerates it when it is
// not a valid leaf for the current CA.
func (p *Provisioner) ensureLeaf(spec Spec, ca caPair) (bool, error) {
	certPath, keyPath := p.paths(spec.CertName)
	if cert, _, err := loadPair(certPath, keyPath); err == nil && certUsable(cert) {
		if err := cert.CheckSignatureFrom(ca.cert); err == nil {
			return false, nil
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, p.Bits)
	if err != nil {
		return false, fmt.Errorf("generating key for %q: %w", spec.CertName, err)
	}
	serial, err := newSerial()
	if err != nil {
		return false, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{p.Organization},
			CommonName:   spec.Service,
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(p.LeafValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{spec.Service},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, ca.cert, &key.PublicKey, ca.key)
	if err != nil {
		return false, fmt.Errorf("creating certificate %q: %w", spec.CertName, err)
	}

	if err := writePair(certPath, keyPath, der, key); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provisioner) paths(name string) (string, string) {
	return filepath.Join(p.Dir, name+".crt"), filepath.Join(p.Dir, name+".key")
}

// certUsable reports whether the certificate is inside its validity window,
// with a day of slack before expiry.
func certUsable(cert *x509.Certificate) bool {
	now := time.Now()
	return now.After(cert.NotBefore) && now.Add(24*time.Hour).Before(cert.NotAfter)
}

func newSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("generating serial number: %w", err)
	}
	return serial, nil
}

func loadPair(certPath, keyPath string) (*x509.Certificate, *rsa.PrivateKey, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, nil, err
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, err
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return nil, nil, fmt.Errorf("%s: not a PEM certificate", certPath)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", certPath, err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil || keyBlock.Type != "RSA PRIVATE KEY" {
		return nil, nil, fmt.Errorf("%s: not a PEM RSA key", keyPath)
	}
	key, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", keyPath, err)
	}
	return cert, key, nil
}

func writePair(certPath, keyPath string, der []byte, key *rsa.PrivateKey) error {
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", certPath, err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", keyPath, err)
	}
	return nil
}
