// internal/core/usecases/dispatcher.go
package usecases

import (
	"context"

	"golang.org/x/sync/semaphore"

	"originx/internal/core/domain"
	"originx/internal/platform/errors"
	"originx/internal/platform/logx"
)

// Dispatcher acota el número de pipelines ejecutando a la vez sobre el
// stream de entrada. Cada registro adquiere un permiso del semáforo antes de
// lanzar su goroutine y lo libera al terminar, de modo que el solape entre
// registros lentos y rápidos es máximo sin superar nunca el tope.
//
// Garantías: cada registro despachado emite exactamente un resultado en el
// canal (éxito o fallo tipado, nunca un abort), y el fallo de un registro
// jamás interrumpe a sus hermanos. El canal acotado aplica backpressure:
// con el sink saturado los pipelines esperan en el envío.
type Dispatcher struct {
	pipeline *Pipeline
	workers  int
	logger   logx.Logger
}

// DispatcherOptions configura el dispatcher.
type DispatcherOptions struct {
	Pipeline *Pipeline
	Workers  int
	Logger   logx.Logger
}

// NewDispatcher crea un dispatcher con el tope de concurrencia dado.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	return &Dispatcher{
		pipeline: opts.Pipeline,
		workers:  opts.Workers,
		logger:   opts.Logger.With("component", "dispatcher"),
	}
}

// Workers retorna el tope de pipelines en vuelo.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Dispatch lanza un pipeline por registro, con a lo sumo workers en vuelo, y
// cierra results cuando el último termina. Una cancelación del contexto deja
// de lanzar registros nuevos, espera a los que están en vuelo y retorna
// ErrRunCanceled; los resultados que ya no caben en el run se descartan.
func (d *Dispatcher) Dispatch(ctx context.Context, records []domain.OriginRecord, results chan<- *domain.EnrichedRecord) error {
	d.logger.Info("dispatching records",
		"records", len(records),
		"workers", d.workers,
	)

	sem := semaphore.NewWeighted(int64(d.workers))
	launched := 0
	for _, origin := range records {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		launched++
		go func(origin domain.OriginRecord) {
			defer sem.Release(1)
			rec := d.pipeline.Enrich(ctx, origin)
			select {
			case results <- rec:
			case <-ctx.Done():
			}
		}(origin)
	}

	// Recuperar la capacidad completa equivale a esperar a todos los
	// pipelines en vuelo; recién entonces el cierre del canal es seguro.
	_ = sem.Acquire(context.Background(), int64(d.workers))
	close(results)

	if err := ctx.Err(); err != nil {
		d.logger.Warn("dispatch interrupted",
			"launched", launched,
			"pending", len(records)-launched,
			"error", err.Error(),
		)
		return errors.Wrapf(domain.ErrRunCanceled, "%d of %d records never dispatched", len(records)-launched, len(records))
	}

	d.logger.Debug("dispatch complete", "records", launched)
	return nil
}
