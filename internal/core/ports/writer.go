// internal/core/ports/writer.go
package ports

import "originx/internal/core/domain"

// ResultWriter es el port de salida: serializa cada registro enriquecido a
// medida que el sink lo recibe. Las implementaciones no necesitan ser
// thread-safe; solo el sink escribe.
type ResultWriter interface {
	// Write emite un registro. Un error aquí aborta la ejecución.
	Write(record *domain.EnrichedRecord) error

	// Close vacía buffers y cierra el destino.
	Close() error
}
