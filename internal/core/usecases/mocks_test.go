// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/platform/ui"
)

// inflightGauge mide la concurrencia observada por un fake.
type inflightGauge struct {
	mu       sync.Mutex
	cur, max int
}

func (g *inflightGauge) enter() {
	g.mu.Lock()
	g.cur++
	if g.cur > g.max {
		g.max = g.cur
	}
	g.mu.Unlock()
}

func (g *inflightGauge) exit() {
	g.mu.Lock()
	g.cur--
	g.mu.Unlock()
}

func (g *inflightGauge) peak() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.max
}

// fakeResolver responde con una función fija, opcionalmente con latencia
// artificial para forzar solape entre pipelines.
type fakeResolver struct {
	gauge inflightGauge

	mu              sync.Mutex
	calls           int
	lastHostname    string
	lastRegistrable string
	delay           time.Duration
	resolve         func(hostname, registrable string) *ports.Resolution
}

var _ ports.Resolver = (*fakeResolver)(nil)

func (f *fakeResolver) Resolve(ctx context.Context, hostname, registrable string) (*ports.Resolution, error) {
	f.gauge.enter()
	defer f.gauge.exit()
	f.mu.Lock()
	f.calls++
	f.lastHostname = hostname
	f.lastRegistrable = registrable
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.resolve != nil {
		return f.resolve(hostname, registrable), nil
	}
	return &ports.Resolution{}, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// resolveIPs fabrica un fake que retorna siempre las mismas direcciones.
func resolveIPs(ips ...string) func(hostname, registrable string) *ports.Resolution {
	return func(hostname, registrable string) *ports.Resolution {
		return &ports.Resolution{IPs: ips}
	}
}

// fakeAsnDB atribuye direcciones fijas, indexadas por su forma textual.
type fakeAsnDB struct {
	entries map[string]ports.ASNEntry
}

var _ ports.AsnDB = (*fakeAsnDB)(nil)

func (f *fakeAsnDB) Lookup(ip netip.Addr) (ports.ASNEntry, bool) {
	e, ok := f.entries[ip.String()]
	return e, ok
}

func (f *fakeAsnDB) Size() int { return len(f.entries) }

func docASNDB() *fakeAsnDB {
	return &fakeAsnDB{entries: map[string]ports.ASNEntry{
		"192.0.2.10":   {Network: netip.MustParsePrefix("192.0.2.0/24"), ASN: 64496, Organization: "EXAMPLE-DOC-AS", CountryCode: "FR"},
		"192.0.2.11":   {Network: netip.MustParsePrefix("192.0.2.0/24"), ASN: 64496, Organization: "EXAMPLE-DOC-AS", CountryCode: "FR"},
		"198.51.100.7": {Network: netip.MustParsePrefix("198.51.100.0/24"), ASN: 64497, Organization: "EXAMPLE-DOC-AS-2", CountryCode: "US"},
	}}
}

// fakeProber registra las invocaciones y responde con un resultado fijo.
type fakeProber struct {
	mu           sync.Mutex
	calls        int
	lastHostname string
	lastIPs      []string
	info         *domain.CertificateIssuerInfo
	err          error
	waitCtx      bool // bloquear hasta que el contexto muera
}

var _ ports.CertProber = (*fakeProber)(nil)

func (f *fakeProber) Probe(ctx context.Context, hostname string, ips []string) (*domain.CertificateIssuerInfo, error) {
	f.mu.Lock()
	f.calls++
	f.lastHostname = hostname
	f.lastIPs = append([]string{}, ips...)
	f.mu.Unlock()

	if f.waitCtx {
		<-ctx.Done()
		return nil, domain.NewFailure(domain.FailureTLSConnect, ctx.Err())
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.info != nil {
		return f.info, nil
	}
	return &domain.CertificateIssuerInfo{Organization: "Fake CA", Country: "ES"}, nil
}

func (f *fakeProber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// errWriterFailed simula un destino de salida roto (disco lleno, pipe
// cerrado) para probar la propagación de errores del sink.
var errWriterFailed = errors.New("writer failed")

// fakeWriter acumula los registros escritos; puede fallar a partir de una
// escritura dada.
type fakeWriter struct {
	mu        sync.Mutex
	records   []*domain.EnrichedRecord
	failAfter int // -1 nunca falla
	closed    bool
}

var _ ports.ResultWriter = (*fakeWriter)(nil)

func newFakeWriter() *fakeWriter {
	return &fakeWriter{failAfter: -1}
}

func (w *fakeWriter) Write(record *domain.EnrichedRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failAfter >= 0 && len(w.records) >= w.failAfter {
		return errWriterFailed
	}
	w.records = append(w.records, record)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []*domain.EnrichedRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*domain.EnrichedRecord{}, w.records...)
}

// fakePresenter cuenta las fases de presentación invocadas.
type fakePresenter struct {
	mu       sync.Mutex
	started  bool
	info     ui.RunInfo
	records  int
	failures int
	finished bool
	stats    ui.RunStats
	closed   bool
}

var _ ui.Presenter = (*fakePresenter)(nil)

func (p *fakePresenter) Start(info ui.RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	p.info = info
}

func (p *fakePresenter) Record(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records++
	if failed {
		p.failures++
	}
}

func (p *fakePresenter) Finish(stats ui.RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
	p.stats = stats
}

func (p *fakePresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// origins fabrica N registros https numerados bajo example.com.
func origins(n int) []domain.OriginRecord {
	records := make([]domain.OriginRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.OriginRecord{
			Origin:     fmt.Sprintf("https://host-%d.example.com", i),
			Popularity: uint64(1000 + i),
			Date:       "2026-08-01",
			Country:    "FR",
		})
	}
	return records
}
