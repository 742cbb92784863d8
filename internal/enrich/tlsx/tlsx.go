// Package tlsx probes the TLS identity of an origin: it connects to one
// resolved address on the HTTPS port, completes a standard handshake and
// reports the issuer of the root-most certificate the server sent.
package tlsx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strconv"
	"time"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/platform/logx"
)

const (
	defaultConnectTimeout = 1 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultPort           = 443
)

// Config controls probe construction. Zero values fall back to defaults.
type Config struct {
	// ConnectTimeout bounds the TCP dial.
	ConnectTimeout time.Duration

	// ReadTimeout is the absolute deadline for handshake and response reads,
	// armed once right after the dial.
	ReadTimeout time.Duration

	// Port overrides the HTTPS port. Meant for tests.
	Port int

	// RootCAs overrides the system trust store. Meant for tests.
	RootCAs *x509.CertPool
}

// Prober opens raw TLS connections to extract certificate issuers. It is
// read-only after construction and safe for concurrent use.
type Prober struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	port           string
	rootCAs        *x509.CertPool
	logger         logx.Logger
}

var _ ports.CertProber = (*Prober)(nil)

// New builds a prober.
func New(cfg Config, logger logx.Logger) *Prober {
	if logger == nil {
		logger = logx.NewNop()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}

	return &Prober{
		connectTimeout: cfg.ConnectTimeout,
		readTimeout:    cfg.ReadTimeout,
		port:           strconv.Itoa(cfg.Port),
		rootCAs:        cfg.RootCAs,
		logger:         logger.With("component", "tlsx"),
	}
}

// Probe connects to the preferred candidate address, handshakes as hostname
// and extracts the issuer of the last certificate in the peer's chain. Every
// failure comes back as a *domain.RecordFailure so the pipeline can absorb
// it into an absent tls field.
func (p *Prober) Probe(ctx context.Context, hostname string, ips []string) (*domain.CertificateIssuerInfo, error) {
	target, ok := pickTarget(ips)
	if !ok {
		return nil, domain.Failf(domain.FailureNoAddress, "no candidate address for %s", hostname)
	}

	dialer := &net.Dialer{Timeout: p.connectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(target, p.port))
	if err != nil {
		return nil, domain.NewFailure(domain.FailureTLSConnect, err)
	}

	conn := tls.Client(raw, &tls.Config{
		ServerName: hostname,
		RootCAs:    p.rootCAs,
	})
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(p.readTimeout))

	if err := conn.HandshakeContext(ctx); err != nil {
		return nil, domain.NewFailure(domain.FailureTLSHandshake, err)
	}

	p.fetch(conn, hostname)

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, domain.Failf(domain.FailureMissingPeerCertificates, "%s sent no certificates", target)
	}

	// The last certificate is the most upstream one the server sent, the
	// closest available stand-in for the issuing root. Servers are not
	// required to include the true trust anchor.
	root := certs[len(certs)-1]
	if len(root.Issuer.Organization) == 0 {
		return nil, domain.Failf(domain.FailureMissingIssuerOrganization, "issuer of %s has no organization", hostname)
	}

	info := &domain.CertificateIssuerInfo{Organization: root.Issuer.Organization[0]}
	if len(root.Issuer.Country) > 0 {
		info.Country = root.Issuer.Country[0]
	}

	p.logger.Debug("tls probe completed",
		"hostname", hostname,
		"target", target,
		"issuer", info.Organization,
	)
	return info, nil
}

// fetch sends a minimal request for parity with browser-facing servers and
// discards whatever comes back. The certificates are already in hand, so
// nothing here can fail the probe.
func (p *Prober) fetch(conn *tls.Conn, hostname string) {
	req := fmt.Sprintf("GET / HTTP/1.1\r\nHost: %s\r\nUser-Agent: originx\r\nAccept: */*\r\nConnection: close\r\n\r\n", hostname)
	if _, err := io.WriteString(conn, req); err != nil {
		return
	}
	buf := make([]byte, 512)
	_, _ = conn.Read(buf)
}

// pickTarget prefers the first IPv4 candidate and falls back to the first
// parseable address of any family.
func pickTarget(ips []string) (string, bool) {
	var fallback string
	for _, raw := range ips {
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			continue
		}
		if addr.Is4() || addr.Is4In6() {
			return raw, true
		}
		if fallback == "" {
			fallback = raw
		}
	}
	return fallback, fallback != ""
}
