// internal/core/usecases/runner.go
package usecases

import (
	"context"

	"golang.org/x/sync/errgroup"

	"originx/internal/core/domain"
	"originx/internal/platform/logx"
	"originx/internal/platform/ui"
)

// Runner orquesta una ejecución completa: arranca la presentación, conecta
// dispatcher y sink a través del canal acotado de resultados y produce el
// RunReport final. El canal tiene capacidad workers: suficiente para que
// los pipelines no se serialicen contra el sink, acotado para que un sink
// lento frene a los productores en vez de acumular sin límite.
type Runner struct {
	dispatcher *Dispatcher
	sink       *Sink
	presenter  ui.Presenter
	logger     logx.Logger
	info       ui.RunInfo
}

// RunnerOptions configura el runner.
type RunnerOptions struct {
	Dispatcher *Dispatcher
	Sink       *Sink
	Presenter  ui.Presenter
	Logger     logx.Logger
	Info       ui.RunInfo
}

// NewRunner crea el orquestador del run.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Presenter == nil {
		opts.Presenter = ui.NewNoopPresenter()
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	return &Runner{
		dispatcher: opts.Dispatcher,
		sink:       opts.Sink,
		presenter:  opts.Presenter,
		logger:     opts.Logger.With("component", "runner"),
		info:       opts.Info,
	}
}

// Run ejecuta el batch completo y retorna el reporte, junto con el primer
// error de dispatcher o sink si lo hubo. El reporte es válido también en
// runs interrumpidos: cuenta lo que alcanzó a drenarse.
func (r *Runner) Run(ctx context.Context, records []domain.OriginRecord, skipped int) (*domain.RunReport, error) {
	report := domain.NewRunReport(len(records), skipped)

	info := r.info
	info.Total = len(records)
	info.Skipped = skipped
	r.presenter.Start(info)
	defer r.presenter.Close()

	r.logger.Info("run starting",
		"run_id", report.RunID,
		"records", len(records),
		"skipped", skipped,
		"workers", r.dispatcher.Workers(),
	)

	results := make(chan *domain.EnrichedRecord, r.dispatcher.Workers())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.dispatcher.Dispatch(gctx, records, results)
	})
	g.Go(func() error {
		return r.sink.Drain(results, report)
	})
	err := g.Wait()

	report.Finalize()
	r.presenter.Finish(statsFromReport(report))

	if err != nil {
		return report, err
	}

	r.logger.Info("run finished",
		"run_id", report.RunID,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// statsFromReport adapta el reporte al shape que consume la UI.
func statsFromReport(report *domain.RunReport) ui.RunStats {
	stats := ui.RunStats{
		RunID:     report.RunID,
		Duration:  report.Duration,
		Total:     report.Total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Skipped:   report.Skipped,
	}
	if len(report.FailuresByKind) > 0 {
		stats.FailuresByKind = make(map[string]int, len(report.FailuresByKind))
		for kind, n := range report.FailuresByKind {
			stats.FailuresByKind[kind.String()] = n
		}
	}
	return stats
}
