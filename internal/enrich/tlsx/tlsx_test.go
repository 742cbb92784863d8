// internal/enrich/tlsx/tlsx_test.go
package tlsx

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"originx/internal/core/domain"
	"originx/internal/platform/logx"
	"originx/internal/testutil"
)

// newTestCert self-signs a certificate for the given hosts. The pool holds
// the certificate itself so a prober configured with it trusts the chain.
func newTestCert(t *testing.T, subject pkix.Name, hosts ...string) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               subject,
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

// startProbeTarget serves TLS on a loopback port, answering each connection
// with an empty HTTP response.
func startProbeTarget(t *testing.T, cert tls.Certificate) (string, int) {
	t.Helper()

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 1024)
				if _, err := c.Read(buf); err != nil {
					return
				}
				_, _ = c.Write([]byte("HTTP/1.1 204 No Content\r\nConnection: close\r\n\r\n"))
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func failureKind(t *testing.T, err error) domain.FailureKind {
	t.Helper()

	rf, ok := domain.AsRecordFailure(err)
	if !ok {
		t.Fatalf("error is not a record failure: %v", err)
	}
	return rf.Kind
}

func TestProber_Probe(t *testing.T) {
	cert, pool := newTestCert(t, pkix.Name{
		Organization: []string{"Probe Test CA"},
		Country:      []string{"ES"},
	}, "probe.test")
	ip, port := startProbeTarget(t, cert)
	prober := New(Config{Port: port, RootCAs: pool}, logx.NewNop())

	info, err := prober.Probe(context.Background(), "probe.test", []string{ip})

	testutil.AssertNoError(t, err, "probe")
	testutil.AssertEqual(t, info.Organization, "Probe Test CA", "issuer organization")
	testutil.AssertEqual(t, info.Country, "ES", "issuer country")
}

func TestProber_Probe_OptionalCountry(t *testing.T) {
	cert, pool := newTestCert(t, pkix.Name{
		Organization: []string{"Stateless CA"},
	}, "probe.test")
	ip, port := startProbeTarget(t, cert)
	prober := New(Config{Port: port, RootCAs: pool}, logx.NewNop())

	info, err := prober.Probe(context.Background(), "probe.test", []string{ip})

	testutil.AssertNoError(t, err, "probe")
	testutil.AssertEqual(t, info.Organization, "Stateless CA", "issuer organization")
	testutil.AssertEqual(t, info.Country, "", "country stays empty")
}

func TestProber_Probe_NoAddresses(t *testing.T) {
	prober := New(Config{}, logx.NewNop())

	tests := []struct {
		name string
		ips  []string
	}{
		{"nil set", nil},
		{"empty set", []string{}},
		{"nothing parseable", []string{"not-an-ip", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := prober.Probe(context.Background(), "probe.test", tt.ips)

			testutil.AssertNil(t, info, "no issuer info")
			testutil.AssertEqual(t, failureKind(t, err), domain.FailureNoAddress, "failure kind")
			testutil.AssertFalse(t, failureKind(t, err).Terminal(), "probe failures never abort the record")
		})
	}
}

func TestProber_Probe_ConnectFailure(t *testing.T) {
	// Grab a port that nothing listens on anymore.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	prober := New(Config{Port: port}, logx.NewNop())

	_, err = prober.Probe(context.Background(), "probe.test", []string{"127.0.0.1"})

	testutil.AssertEqual(t, failureKind(t, err), domain.FailureTLSConnect, "failure kind")
}

func TestProber_Probe_HandshakeFailure(t *testing.T) {
	cert, pool := newTestCert(t, pkix.Name{Organization: []string{"Probe Test CA"}}, "probe.test")
	ip, port := startProbeTarget(t, cert)
	prober := New(Config{Port: port, RootCAs: pool}, logx.NewNop())

	// The certificate only covers probe.test, so this name cannot verify.
	_, err := prober.Probe(context.Background(), "other.test", []string{ip})

	testutil.AssertEqual(t, failureKind(t, err), domain.FailureTLSHandshake, "failure kind")
}

func TestProber_Probe_MissingIssuerOrganization(t *testing.T) {
	cert, pool := newTestCert(t, pkix.Name{CommonName: "anonymous.test"}, "probe.test")
	ip, port := startProbeTarget(t, cert)
	prober := New(Config{Port: port, RootCAs: pool}, logx.NewNop())

	_, err := prober.Probe(context.Background(), "probe.test", []string{ip})

	testutil.AssertEqual(t, failureKind(t, err), domain.FailureMissingIssuerOrganization, "failure kind")
}

func TestPickTarget(t *testing.T) {
	tests := []struct {
		name  string
		ips   []string
		want  string
		found bool
	}{
		{"prefers first v4", []string{"2001:db8::1", "192.0.2.1", "192.0.2.2"}, "192.0.2.1", true},
		{"v6 fallback", []string{"2001:db8::1", "2001:db8::2"}, "2001:db8::1", true},
		{"skips garbage", []string{"not-an-ip", "198.51.100.7"}, "198.51.100.7", true},
		{"empty", nil, "", false},
		{"only garbage", []string{"not-an-ip"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickTarget(tt.ips)

			testutil.AssertEqual(t, ok, tt.found, "target found")
			testutil.AssertEqual(t, got, tt.want, "chosen target")
		})
	}
}
