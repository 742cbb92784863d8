// internal/platform/ui/presenter.go
package ui

import (
	"time"
)

// Presenter define la interfaz para presentar el progreso de una ejecución
// de enriquecimiento. El sink la invoca una vez por resultado drenado; las
// implementaciones deben ser seguras frente a llamadas tras Close.
type Presenter interface {
	// Start inicia la presentación con información del run
	Start(info RunInfo)

	// Record registra un resultado drenado; failed indica fallo de registro
	Record(failed bool)

	// Finish finaliza la presentación con estadísticas finales
	Finish(stats RunStats)

	// Close limpia recursos del presenter
	Close() error
}

// RunInfo contiene información inicial del run
type RunInfo struct {
	CSVPath       string
	Total         int
	Skipped       int
	Workers       int
	Resolvers     []string
	ProbeMode     string
	RecordTimeout time.Duration
}

// RunStats contiene estadísticas finales del run
type RunStats struct {
	RunID          string
	Duration       time.Duration
	Total          int
	Succeeded      int
	Failed         int
	Skipped        int
	FailuresByKind map[string]int
}
