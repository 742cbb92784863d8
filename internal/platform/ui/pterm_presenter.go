// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

// PTermPresenter implementa Presenter usando la biblioteca pterm: header de
// configuración, barra de progreso global y panel final de estadísticas.
// Toda la salida va a stderr; stdout queda reservado para los resultados.
type PTermPresenter struct {
	mu sync.Mutex

	bar    *pterm.ProgressbarPrinter
	done   int
	failed int
	total  int
}

// NewPTermPresenter crea una nueva instancia del presenter con pterm
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{}
}

// Start inicia la presentación mostrando el header del run
func (p *PTermPresenter) Start(info RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = info.Total

	// Header principal
	pterm.DefaultHeader.
		WithWriter(os.Stderr).
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("OriginX - Origin Enrichment")

	fmt.Fprintln(os.Stderr)

	// Información del run
	infoPanel := pterm.DefaultBox.
		WithWriter(os.Stderr).
		WithTitle("Run Configuration").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan))

	resolvers := "system default"
	if len(info.Resolvers) > 0 {
		resolvers = strings.Join(info.Resolvers, ", ")
	}

	runInfo := fmt.Sprintf("%s Input: %s\n", IconInput, pterm.Cyan(info.CSVPath))
	runInfo += fmt.Sprintf("%s Records: %d", IconRecords, info.Total)
	if info.Skipped > 0 {
		runInfo += fmt.Sprintf(" (%s malformed rows skipped)", pterm.Yellow(fmt.Sprintf("%d", info.Skipped)))
	}
	runInfo += "\n"
	runInfo += fmt.Sprintf("%s Workers: %d\n", IconWorkers, info.Workers)
	runInfo += fmt.Sprintf("%s Record timeout: %s\n", IconTime, info.RecordTimeout)
	runInfo += fmt.Sprintf("   Resolvers: %s\n", pterm.Yellow(resolvers))
	runInfo += fmt.Sprintf("   TLS probe: %s", pterm.Yellow(info.ProbeMode))

	infoPanel.Println(runInfo)

	fmt.Fprintln(os.Stderr)

	bar, _ := pterm.DefaultProgressbar.
		WithWriter(os.Stderr).
		WithTotal(info.Total).
		WithTitle("enriching").
		WithMaxWidth(80).
		Start()
	p.bar = bar
}

// Record registra un resultado drenado y avanza la barra
func (p *PTermPresenter) Record(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if failed {
		p.failed++
	}

	if p.bar == nil {
		return
	}
	if failed {
		p.bar.UpdateTitle(fmt.Sprintf("enriching (%d failed)", p.failed))
	}
	p.bar.Increment()
}

// Finish finaliza la presentación con estadísticas finales
func (p *PTermPresenter) Finish(stats RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopBar()

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, pterm.LightBlue(SeparatorHeavy))
	fmt.Fprintln(os.Stderr)

	// Header de resultados
	pterm.DefaultHeader.
		WithWriter(os.Stderr).
		WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("Run Completed")

	fmt.Fprintln(os.Stderr)

	// Panel de estadísticas
	statsPanel := pterm.DefaultBox.
		WithWriter(os.Stderr).
		WithTitle("Run Statistics").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgGreen))

	statsContent := fmt.Sprintf("%s Duration: %s\n",
		IconTime,
		pterm.Green(formatDuration(stats.Duration)),
	)
	statsContent += fmt.Sprintf("%s Records: %s\n",
		IconRecords,
		pterm.Cyan(fmt.Sprintf("%d", stats.Total)),
	)
	statsContent += fmt.Sprintf("%s Enriched: %s\n",
		IconSuccess,
		pterm.Green(fmt.Sprintf("%d", stats.Succeeded)),
	)

	if stats.Failed > 0 {
		statsContent += fmt.Sprintf("%s Failed: %s\n",
			IconError,
			pterm.Red(fmt.Sprintf("%d", stats.Failed)),
		)
	}
	if stats.Skipped > 0 {
		statsContent += fmt.Sprintf("   Skipped rows: %s\n",
			pterm.Yellow(fmt.Sprintf("%d", stats.Skipped)),
		)
	}
	statsContent += fmt.Sprintf("   Run ID: %s", pterm.Gray(stats.RunID))

	statsPanel.Println(statsContent)

	// Tabla de fallos por tipo (si hay datos)
	if len(stats.FailuresByKind) > 0 {
		fmt.Fprintln(os.Stderr)
		pterm.DefaultSection.
			WithWriter(os.Stderr).
			WithLevel(2).
			Println("Failures by Kind")

		kinds := make([]string, 0, len(stats.FailuresByKind))
		for kind := range stats.FailuresByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		tableData := pterm.TableData{
			{"Kind", "Count"},
		}
		for _, kind := range kinds {
			tableData = append(tableData, []string{
				kind,
				fmt.Sprintf("%d", stats.FailuresByKind[kind]),
			})
		}

		pterm.DefaultTable.
			WithWriter(os.Stderr).
			WithHasHeader().
			WithBoxed().
			WithData(tableData).
			Render()
	}

	fmt.Fprintln(os.Stderr)
}

// Close limpia recursos del presenter
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopBar()
	return nil
}

// Progress retorna el avance actual (útil para tests)
func (p *PTermPresenter) Progress() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

// stopBar detiene la barra si sigue activa. Requiere el mutex adquirido.
func (p *PTermPresenter) stopBar() {
	if p.bar != nil {
		p.bar.Stop()
		p.bar = nil
	}
}
