// Package dnsx implements the DNS lookup side of enrichment on top of
// github.com/miekg/dns: A/AAAA unions, CNAME chains and authoritative NS
// discovery with per-server address and ASN attribution.
//
// Lookups are best-effort. A failed or empty query degrades to a nil result
// and the caller omits the field; nothing here turns into a record error.
package dnsx

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/enrich/asn"
	"originx/internal/platform/cache"
	"originx/internal/platform/logx"
	"originx/internal/platform/rate"
)

// DefaultServer is the recursive resolver used when no configured server
// survives normalization.
const DefaultServer = "1.1.1.1:53"

const (
	defaultQueryTimeout = 5 * time.Second
	defaultCacheTTL     = 5 * time.Minute
	defaultCacheSize    = 256

	// nsFanOutLimit bounds the concurrent per-NS address lookups so a domain
	// with many name servers cannot multiply the worker concurrency.
	nsFanOutLimit = 4
)

// Config controls resolver construction. Zero values fall back to defaults.
type Config struct {
	// Servers are name server addresses, either bare IPs or ip:port.
	// Unparseable entries are skipped with a warning.
	Servers []string

	// QueryTimeout applies per exchange, not per lookup.
	QueryTimeout time.Duration

	// QPS throttles outgoing queries across all workers. 0 disables.
	QPS   float64
	Burst int

	// CacheTTL and CacheSize shape the NameServerInfo cache.
	CacheTTL  time.Duration
	CacheSize int
}

// exchanger is the seam between lookups and the wire client, satisfied by
// *dns.Client and replaced in tests.
type exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, addr string) (*dns.Msg, time.Duration, error)
}

// Resolver answers the pipeline's DNS queries against a fixed server list.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	udp      exchanger
	tcp      exchanger
	servers  []string
	limiter  *rate.Limiter
	nsCache  *cache.MemoryCache[domain.NameServerInfo]
	cacheTTL time.Duration
	asnDB    ports.AsnDB
	logger   logx.Logger
}

var _ ports.Resolver = (*Resolver)(nil)

// New builds a resolver. Construction never fails: bad server entries are
// dropped and an empty list falls back to DefaultServer.
func New(cfg Config, db ports.AsnDB, logger logx.Logger) *Resolver {
	if logger == nil {
		logger = logx.NewNop()
	}
	logger = logger.With("component", "dnsx")

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}

	var limiter *rate.Limiter
	if cfg.QPS > 0 {
		limiter = rate.New(cfg.QPS, cfg.Burst)
	}

	return &Resolver{
		udp:      &dns.Client{Net: "udp", Timeout: timeout},
		tcp:      &dns.Client{Net: "tcp", Timeout: timeout},
		servers:  normalizeServers(cfg.Servers, logger),
		limiter:  limiter,
		nsCache:  cache.NewMemoryCache[domain.NameServerInfo](size),
		cacheTTL: ttl,
		asnDB:    db,
		logger:   logger,
	}
}

// Servers returns the effective server list after normalization.
func (r *Resolver) Servers() []string {
	return append([]string{}, r.servers...)
}

// normalizeServers turns configured entries into dialable ip:port addresses.
func normalizeServers(raw []string, logger logx.Logger) []string {
	var servers []string
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			servers = append(servers, net.JoinHostPort(addr.String(), "53"))
			continue
		}
		if host, _, err := net.SplitHostPort(entry); err == nil {
			if _, err := netip.ParseAddr(host); err == nil {
				servers = append(servers, entry)
				continue
			}
		}
		logger.Warn("ignoring unparseable dns server", "server", entry)
	}
	if len(servers) == 0 {
		return []string{DefaultServer}
	}
	return servers
}

// Resolve runs the hostname lookups concurrently, skipping the NS query when
// no registrable domain was derived. Lookup failures degrade to absent
// fields; the only returned error is the context's, so a timed-out record
// surfaces as such upstream.
func (r *Resolver) Resolve(ctx context.Context, hostname, registrable string) (*ports.Resolution, error) {
	res := &ports.Resolution{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.IPs = r.LookupAddrs(ctx, hostname)
	}()
	go func() {
		defer wg.Done()
		res.Cname = r.LookupCname(ctx, hostname)
	}()
	if registrable != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.Nameservers = r.LookupNS(ctx, registrable)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// LookupAddrs returns the deduplicated union of A and AAAA answers for
// hostname, nil when neither query produced an address.
func (r *Resolver) LookupAddrs(ctx context.Context, hostname string) []string {
	var (
		wg     sync.WaitGroup
		v4, v6 []dns.RR
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		v4 = r.query(ctx, hostname, dns.TypeA)
	}()
	go func() {
		defer wg.Done()
		v6 = r.query(ctx, hostname, dns.TypeAAAA)
	}()
	wg.Wait()

	seen := make(map[string]struct{})
	var ips []string
	collect := func(ip string) {
		if _, dup := seen[ip]; dup {
			return
		}
		seen[ip] = struct{}{}
		ips = append(ips, ip)
	}
	for _, rr := range v4 {
		if a, ok := rr.(*dns.A); ok {
			collect(a.A.String())
		}
	}
	for _, rr := range v6 {
		if aaaa, ok := rr.(*dns.AAAA); ok {
			collect(aaaa.AAAA.String())
		}
	}
	return ips
}

// LookupCname returns the canonical-name chain for hostname in answer order,
// nil when the name is not an alias.
func (r *Resolver) LookupCname(ctx context.Context, hostname string) []string {
	var targets []string
	for _, rr := range r.query(ctx, hostname, dns.TypeCNAME) {
		if c, ok := rr.(*dns.CNAME); ok {
			targets = append(targets, strings.TrimSuffix(c.Target, "."))
		}
	}
	return targets
}

// LookupNS resolves the authoritative name servers of a registrable domain,
// fans out to resolve each server's own addresses and attributes those to
// autonomous systems. Results are cached: popularity lists concentrate on a
// small set of DNS providers, so sibling records usually hit the cache.
func (r *Resolver) LookupNS(ctx context.Context, registrable string) *domain.NameServerInfo {
	if info, ok := r.nsCache.Get(registrable); ok {
		return &info
	}

	var names []string
	for _, rr := range r.query(ctx, registrable, dns.TypeNS) {
		if ns, ok := rr.(*dns.NS); ok {
			names = append(names, strings.TrimSuffix(ns.Ns, "."))
		}
	}
	if len(names) == 0 {
		return nil
	}

	addrs := make([][]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nsFanOutLimit)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			addrs[i] = r.LookupAddrs(gctx, name)
			return nil
		})
	}
	_ = g.Wait() // lookups fill their slot and never error

	seen := make(map[string]struct{})
	var ips []string
	for _, set := range addrs {
		for _, ip := range set {
			if _, dup := seen[ip]; dup {
				continue
			}
			seen[ip] = struct{}{}
			ips = append(ips, ip)
		}
	}

	info := domain.NameServerInfo{
		Names: names,
		IPs:   ips,
		ASNs:  asn.Attribute(ips, r.asnDB),
	}
	r.nsCache.Set(registrable, info, r.cacheTTL)
	return &info
}

// query sends one question, trying servers in order until an exchange
// completes. Truncated UDP answers retry over TCP against the same server. A
// non-success rcode is an authoritative "nothing here" and stops the
// failover; only transport errors move to the next server.
func (r *Resolver) query(ctx context.Context, name string, qtype uint16) []dns.RR {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)

	for _, server := range r.servers {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		resp, _, err := r.udp.ExchangeContext(ctx, m, server)
		if err == nil && resp.Truncated {
			resp, _, err = r.tcp.ExchangeContext(ctx, m, server)
		}
		if err != nil {
			r.logger.Debug("dns exchange failed",
				"name", name,
				"type", dns.TypeToString[qtype],
				"server", server,
				"error", err.Error(),
			)
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			r.logger.Debug("dns query answered without success",
				"name", name,
				"type", dns.TypeToString[qtype],
				"server", server,
				"rcode", dns.RcodeToString[resp.Rcode],
			)
			return nil
		}
		return resp.Answer
	}
	return nil
}
