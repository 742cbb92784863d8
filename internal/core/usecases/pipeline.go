// internal/core/usecases/pipeline.go

// Package usecases implementa el flujo de enriquecimiento: el pipeline por
// registro (máquina de estados Parse→Resolve→Attribute→Probe→Assemble), el
// dispatcher que acota los pipelines en vuelo, el sink que drena resultados
// y el runner que ata el ciclo de vida completo de una ejecución.
package usecases

import (
	"context"
	"time"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/enrich/asn"
	"originx/internal/enrich/domainparse"
	"originx/internal/platform/logx"
)

// ProbeMode decide cuándo el pipeline sondea TLS.
type ProbeMode string

const (
	// ProbeAuto sondea solo origins con esquema https
	ProbeAuto ProbeMode = "auto"

	// ProbeAlways sondea todos los origins con al menos una IP resuelta
	ProbeAlways ProbeMode = "always"

	// ProbeOff nunca sondea
	ProbeOff ProbeMode = "off"
)

const defaultRecordTimeout = 120 * time.Second

// Pipeline ejecuta el enriquecimiento de un OriginRecord de principio a fin.
// Es de solo lectura tras su construcción: todos los pipelines en vuelo
// comparten la misma instancia sin sincronización.
type Pipeline struct {
	resolver      ports.Resolver
	asnDB         ports.AsnDB
	prober        ports.CertProber
	probeMode     ProbeMode
	recordTimeout time.Duration
	logger        logx.Logger
}

// PipelineOptions configura el pipeline por registro.
type PipelineOptions struct {
	Resolver      ports.Resolver
	AsnDB         ports.AsnDB
	Prober        ports.CertProber
	ProbeMode     ProbeMode
	RecordTimeout time.Duration
	Logger        logx.Logger
}

// NewPipeline crea un pipeline con las dependencias compartidas del proceso.
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = defaultRecordTimeout
	}
	if opts.ProbeMode == "" {
		opts.ProbeMode = ProbeAuto
	}

	return &Pipeline{
		resolver:      opts.Resolver,
		asnDB:         opts.AsnDB,
		prober:        opts.Prober,
		probeMode:     opts.ProbeMode,
		recordTimeout: opts.RecordTimeout,
		logger:        opts.Logger.With("component", "pipeline"),
	}
}

// Enrich corre la máquina de estados sobre un registro y siempre retorna un
// resultado: enriquecido, o con Failure para fallos terminales (parse,
// timeout). Los fallos recuperables degradan su campo a ausente y se loguean
// aquí; el sink solo ve el resultado final.
func (p *Pipeline) Enrich(parent context.Context, origin domain.OriginRecord) *domain.EnrichedRecord {
	rec := domain.NewEnrichedRecord(origin)
	start := time.Now()

	// Parse: puro CPU, fuera del presupuesto de red del registro.
	hostname, err := domainparse.ExtractHostname(origin.Origin)
	if err != nil {
		return p.fail(rec, err)
	}
	rec.Hostname = hostname

	registrable, err := domainparse.ExtractDomain(hostname)
	if err != nil {
		if rf, ok := domain.AsRecordFailure(err); ok && rf.Kind.Terminal() {
			return p.fail(rec, err)
		}
		// Sin dominio registrable no hay consulta NS, pero el hostname
		// sigue sirviendo para el resto de lookups.
		p.logger.Warn("domain extraction degraded",
			"origin", origin.Origin,
			"hostname", hostname,
			"error", err.Error(),
		)
	}
	rec.Domain = registrable

	// El deadline cubre todas las etapas con red. Cancelarlo solo afecta a
	// los lookups de este registro.
	ctx, cancel := context.WithTimeout(parent, p.recordTimeout)
	defer cancel()

	// Resolve: A/AAAA, CNAME y NS en paralelo, cada uno best-effort.
	res, err := p.resolver.Resolve(ctx, hostname, registrable)
	if err != nil {
		return p.expire(rec, err)
	}
	rec.IPs = res.IPs
	rec.Cname = res.Cname
	rec.Nameservers = res.Nameservers

	// Attribute: puro, sin red; nil cuando nada matcheó.
	rec.ASNs = asn.Attribute(rec.IPs, p.asnDB)

	// Probe: condicional al esquema y a tener al menos una dirección.
	if p.shouldProbe(origin, rec.IPs) {
		info, err := p.prober.Probe(ctx, hostname, rec.IPs)
		switch {
		case err == nil:
			rec.TLS = info
		case ctx.Err() != nil:
			return p.expire(rec, ctx.Err())
		default:
			p.logger.Warn("tls probe degraded",
				"origin", origin.Origin,
				"hostname", hostname,
				"error", err.Error(),
			)
		}
	}

	p.logger.Debug("record enriched",
		"origin", origin.Origin,
		"hostname", rec.Hostname,
		"ips", len(rec.IPs),
		"asn", len(rec.ASNs),
		"tls", rec.TLS != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rec
}

// shouldProbe aplica el modo de sondeo configurado. Sin direcciones
// resueltas nunca se sondea: no habría a dónde conectar.
func (p *Pipeline) shouldProbe(origin domain.OriginRecord, ips []string) bool {
	if len(ips) == 0 {
		return false
	}
	switch p.probeMode {
	case ProbeAlways:
		return true
	case ProbeOff:
		return false
	default:
		return origin.IsHTTPS()
	}
}

// fail marca el registro con un fallo terminal de la etapa Parse.
func (p *Pipeline) fail(rec *domain.EnrichedRecord, err error) *domain.EnrichedRecord {
	if rf, ok := domain.AsRecordFailure(err); ok {
		rec.Failure = rf
	} else {
		rec.Failure = domain.NewFailure(domain.FailureInvalidURL, err)
	}
	return rec
}

// expire convierte la expiración del contexto del registro en un resultado
// pipeline_timeout. Los campos ya poblados se conservan: identifican hasta
// dónde llegó el registro antes de agotar su presupuesto.
func (p *Pipeline) expire(rec *domain.EnrichedRecord, err error) *domain.EnrichedRecord {
	rec.Failure = domain.NewFailure(domain.FailurePipelineTimeout, err)
	return rec
}
