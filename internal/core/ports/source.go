// internal/core/ports/source.go
package ports

import (
	"context"

	"originx/internal/core/domain"
)

// RecordSource es el port primario de entrada: entrega el dataset de
// origins a enriquecer. La implementación CSV vive en adapters/input.
type RecordSource interface {
	// Load lee el dataset completo y retorna los registros válidos junto
	// con el número de filas malformadas descartadas. Las filas descartadas
	// ya fueron logueadas por la implementación; nunca llegan al pipeline.
	Load(ctx context.Context) (records []domain.OriginRecord, skipped int, err error)
}
