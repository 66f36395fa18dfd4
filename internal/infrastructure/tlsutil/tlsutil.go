// Package tlsutil loads the certificate pair shared by the gRPC and HTTP
// listeners and issues throwaway certificates for local development.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
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

	"google.golang.org/grpc/credentials"
)

// ServerConfig loads certFile and keyFile into a TLS 1.2+ server config.
func ServerConfig(certFile, keyFile string) (*tls.Config, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: load server key pair: %w", err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
	}, nil
}

// ServerCredentials wraps ServerConfig for grpc.Creds.
func ServerCredentials(certFile, keyFile string) (credentials.TransportCredentials, error) {
	cfg, err := ServerConfig(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(cfg), nil
}

// ClientConfig trusts the PEM roots in caFile, or the system pool when
// caFile is empty.
func ClientConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: read CA file: %w", err)
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("tlsutil: no certificates found in %s", caFile)
	}
	cfg.RootCAs = roots
	return cfg, nil
}

// DevBundle locates the files written by GenerateDevBundle.
type DevBundle struct {
	Dir string
}

func (b DevBundle) CACert() string     { return filepath.Join(b.Dir, "ca.pem") }
func (b DevBundle) CAKey() string      { return filepath.Join(b.Dir, "ca-key.pem") }
func (b DevBundle) ServerCert() string { return filepath.Join(b.Dir, "server.pem") }
func (b DevBundle) ServerKey() string  { return filepath.Join(b.Dir, "server-key.pem") }

// GenerateDevBundle issues a development CA and a server certificate for
// hosts (DNS names or IP literals) and writes both pairs into dir.
func GenerateDevBundle(dir string, hosts []string) (DevBundle, error) {
	if len(hosts) == 0 {
		return DevBundle{}, errors.New("tlsutil: at least one host is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DevBundle{}, fmt.Errorf("tlsutil: create %s: %w", dir, err)
	}
	bundle := DevBundle{Dir: dir}
	now := time.Now()

	caTmpl := &x509.Certificate{
		Subject:               pkix.Name{CommonName: "profileguard dev CA"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.AddDate(2, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caCert, caKey, err := issue(caTmpl, nil, nil)
	if err != nil {
		return DevBundle{}, err
	}

	srvTmpl := &x509.Certificate{
		Subject:     pkix.Name{CommonName: hosts[0]},
		NotBefore:   now.Add(-time.Minute),
		NotAfter:    now.AddDate(1, 0, 0),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			srvTmpl.IPAddresses = append(srvTmpl.IPAddresses, ip)
			continue
		}
		srvTmpl.DNSNames = append(srvTmpl.DNSNames, h)
	}
	srvCert, srvKey, err := issue(srvTmpl, caCert, caKey)
	if err != nil {
		return DevBundle{}, err
	}

	if err := savePair(bundle.CACert(), bundle.CAKey(), caCert, caKey); err != nil {
		return DevBundle{}, err
	}
	if err := savePair(bundle.ServerCert(), bundle.ServerKey(), srvCert, srvKey); err != nil {
		return DevBundle{}, err
	}
	return bundle, nil
}

// issue signs tmpl with a fresh P-256 key. A nil parent self-signs.
func issue(tmpl, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: serial number: %w", err)
	}
	tmpl.SerialNumber = serial

	if parent == nil {
		parent, parentKey = tmpl, key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: sign %q: %w", tmpl.Subject.CommonName, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: parse %q: %w", tmpl.Subject.CommonName, err)
	}
	return cert, key, nil
}

func savePair(certPath, keyPath string, cert *x509.Certificate, key *ecdsa.PrivateKey) error {
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("tlsutil: encode key: %w", err)
	}
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0o644); err != nil {
		return fmt.Errorf("tlsutil: write %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		return fmt.Errorf("tlsutil: write %s: %w", keyPath, err)
	}
	return nil
}
