// internal/core/domain/report.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunReport accumulates end-of-run statistics for one enrichment batch.
// It is owned by the sink (single consumer), so no synchronization is needed.
type RunReport struct {
	// RunID unique identifier of this run
	RunID string

	// StartedAt moment the dispatcher began issuing pipelines
	StartedAt time.Time

	// FinishedAt moment the sink drained the last result
	FinishedAt time.Time

	// Duration total wall-clock time of the run
	Duration time.Duration

	// Total number of records dispatched into pipelines
	Total int

	// Succeeded records enriched without a record-level failure
	Succeeded int

	// Failed records emitted with a record-level failure
	Failed int

	// Skipped input rows rejected before dispatch (never entered a pipeline)
	Skipped int

	// FailuresByKind counts failed records per failure kind
	FailuresByKind map[FailureKind]int
}

// NewRunReport starts a report for a batch of total dispatched records,
// of which skipped input rows were rejected up front.
func NewRunReport(total, skipped int) *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Total:     total,
		Skipped:   skipped,
	}
}

// Count registers one drained result.
func (r *RunReport) Count(rec *EnrichedRecord) {
	if rec == nil {
		return
	}
	if rec.Failed() {
		r.Failed++
		if r.FailuresByKind == nil {
			r.FailuresByKind = make(map[FailureKind]int)
		}
		r.FailuresByKind[rec.Failure.Kind]++
		return
	}
	r.Succeeded++
}

// Finalize stamps the end of the run and computes the duration.
func (r *RunReport) Finalize() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}

// Complete reports whether every dispatched record produced an outcome.
func (r *RunReport) Complete() bool {
	return r.Succeeded+r.Failed == r.Total
}

// Summary returns a readable one-line digest for logs.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("RunReport{id=%s, total=%d, ok=%d, failed=%d, skipped=%d, duration=%s}",
		r.RunID, r.Total, r.Succeeded, r.Failed, r.Skipped, r.Duration)
}
