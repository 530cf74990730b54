package api

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// generateCACert creates a self-signed CA certificate in PEM form.
func generateCACert(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test CA"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestNewHTTPClient_NoCA(t *testing.T) {
	c, err := NewHTTPClient("", 3*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Timeout != 3*time.Second {
		t.Errorf("timeout = %v; want 3s", c.Timeout)
	}
}

func TestNewHTTPClient_MissingCA(t *testing.T) {
	_, err := NewHTTPClient(filepath.Join(t.TempDir(), "nope.pem"), time.Second)
	if err == nil || !strings.Contains(err.Error(), "failed to read CA cert") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestNewHTTPClient_InvalidCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("invalid pem"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := NewHTTPClient(path, time.Second)
	if err == nil || !strings.Contains(err.Error(), "failed to parse CA cert") {
		t.Errorf("expected parse CA error, got %v", err)
	}
}

func TestNewHTTPClient_WithCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, generateCACert(t), 0600); err != nil {
		t.Fatal(err)
	}
	c, err := NewHTTPClient(path, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tcfg := c.Transport.(*http.Transport).TLSClientConfig
	found := false
	for _, subj := range tcfg.RootCAs.Subjects() { //nolint:staticcheck
		if bytes.Contains(subj, []byte("Test CA")) {
			found = true
			break
		}
	}
	if !found {
		t.Error("CA certificate not found in RootCAs")
	}
}
