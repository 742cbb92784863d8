// internal/core/usecases/sink.go
package usecases

import (
	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/platform/errors"
	"originx/internal/platform/logx"
	"originx/internal/platform/ui"
)

// Sink es el único consumidor del canal de resultados. Serializa cada
// registro al llegar (también los fallidos, con su objeto error), loguea los
// fallos con la identidad del origin y alimenta el progreso. Al ser un solo
// goroutine, el writer y el report no necesitan sincronización.
type Sink struct {
	writer    ports.ResultWriter
	presenter ui.Presenter
	logger    logx.Logger
}

// SinkOptions configura el sink.
type SinkOptions struct {
	Writer    ports.ResultWriter
	Presenter ui.Presenter
	Logger    logx.Logger
}

// NewSink crea el consumidor de resultados.
func NewSink(opts SinkOptions) *Sink {
	if opts.Presenter == nil {
		opts.Presenter = ui.NewNoopPresenter()
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	return &Sink{
		writer:    opts.Writer,
		presenter: opts.Presenter,
		logger:    opts.Logger.With("component", "sink"),
	}
}

// Drain consume el canal hasta que el productor lo cierra y queda vacío.
// Un error del writer aborta el drenaje: sin destino de salida el run
// entero pierde su razón de ser.
func (s *Sink) Drain(results <-chan *domain.EnrichedRecord, report *domain.RunReport) error {
	for rec := range results {
		report.Count(rec)

		if rec.Failed() {
			s.logger.Warn("record failed",
				"origin", rec.Origin.Origin,
				"kind", rec.Failure.Kind.String(),
				"error", rec.Failure.Message,
			)
		}

		if err := s.writer.Write(rec); err != nil {
			return errors.Wrapf(err, "write result for %s", rec.Origin.Origin)
		}

		s.presenter.Record(rec.Failed())
	}
	return nil
}
