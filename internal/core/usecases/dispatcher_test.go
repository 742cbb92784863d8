// internal/core/usecases/dispatcher_test.go
package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"originx/internal/core/domain"
	"originx/internal/platform/logx"
	"originx/internal/testutil"
)

func newTestDispatcher(workers int, resolver *fakeResolver) *Dispatcher {
	pipeline := NewPipeline(PipelineOptions{
		Resolver:  resolver,
		AsnDB:     docASNDB(),
		Prober:    &fakeProber{},
		ProbeMode: ProbeOff,
		Logger:    logx.NewNop(),
	})
	return NewDispatcher(DispatcherOptions{
		Pipeline: pipeline,
		Workers:  workers,
		Logger:   logx.NewNop(),
	})
}

// drain lee el canal ya cerrado por Dispatch y agrupa por origin.
func drain(results <-chan *domain.EnrichedRecord) map[string]*domain.EnrichedRecord {
	got := make(map[string]*domain.EnrichedRecord)
	for rec := range results {
		got[rec.Origin.Origin] = rec
	}
	return got
}

func TestDispatcher_EmitsOneResultPerRecord(t *testing.T) {
	records := origins(50)

	for _, workers := range []int{1, 3, 8, 50} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			resolver := &fakeResolver{resolve: resolveIPs("192.0.2.10")}
			disp := newTestDispatcher(workers, resolver)
			results := make(chan *domain.EnrichedRecord, len(records))

			err := disp.Dispatch(context.Background(), records, results)

			testutil.AssertNoError(t, err, "dispatch")
			got := drain(results)
			testutil.AssertEqual(t, len(got), len(records), "one result per record")
			for _, origin := range records {
				if _, ok := got[origin.Origin]; !ok {
					t.Errorf("missing result for %s", origin.Origin)
				}
			}
		})
	}
}

func TestDispatcher_BrokenRecordsDoNotBlockSiblings(t *testing.T) {
	records := []domain.OriginRecord{
		{Origin: "https://www.free.fr"},
		{Origin: "https://"},
		{Origin: "https://www.orange.fr"},
		{Origin: "https://www.example.toto"},
		{Origin: "https://www.sfr.fr"},
	}
	resolver := &fakeResolver{resolve: resolveIPs("192.0.2.10")}
	disp := newTestDispatcher(2, resolver)
	results := make(chan *domain.EnrichedRecord, len(records))

	err := disp.Dispatch(context.Background(), records, results)

	testutil.AssertNoError(t, err, "dispatch")
	got := drain(results)
	testutil.AssertEqual(t, len(got), len(records), "every record emits")

	failed := 0
	for _, rec := range got {
		if rec.Failed() {
			failed++
			testutil.AssertTrue(t, rec.Failure.Kind.Terminal(), "only terminal parse failures")
		}
	}
	testutil.AssertEqual(t, failed, 2, "two broken records")
	testutil.AssertFalse(t, got["https://www.sfr.fr"].Failed(), "siblings unaffected")
}

func TestDispatcher_HonorsWorkerCap(t *testing.T) {
	records := origins(32)
	resolver := &fakeResolver{
		delay:   50 * time.Millisecond,
		resolve: resolveIPs("192.0.2.10"),
	}
	disp := newTestDispatcher(4, resolver)
	results := make(chan *domain.EnrichedRecord, len(records))

	err := disp.Dispatch(context.Background(), records, results)

	testutil.AssertNoError(t, err, "dispatch")
	testutil.AssertEqual(t, len(drain(results)), len(records), "all records emitted")
	peak := resolver.gauge.peak()
	testutil.AssertTrue(t, peak <= 4, fmt.Sprintf("in-flight peak %d within cap", peak))
	testutil.AssertTrue(t, peak >= 2, fmt.Sprintf("pipelines actually overlap, peak %d", peak))
}

func TestDispatcher_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := &fakeResolver{resolve: resolveIPs("192.0.2.10")}
	disp := newTestDispatcher(4, resolver)
	results := make(chan *domain.EnrichedRecord, 8)

	err := disp.Dispatch(ctx, origins(8), results)

	testutil.AssertError(t, err, "canceled dispatch")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrRunCanceled), "wraps ErrRunCanceled")
	testutil.AssertEqual(t, len(drain(results)), 0, "nothing dispatched")
	testutil.AssertEqual(t, resolver.callCount(), 0, "no pipeline ran")
}

func TestDispatcher_CanceledMidRun(t *testing.T) {
	records := origins(20)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(40*time.Millisecond, cancel)

	resolver := &fakeResolver{
		delay:   100 * time.Millisecond,
		resolve: resolveIPs("192.0.2.10"),
	}
	disp := newTestDispatcher(2, resolver)
	results := make(chan *domain.EnrichedRecord, len(records))

	err := disp.Dispatch(ctx, records, results)

	testutil.AssertError(t, err, "interrupted dispatch")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrRunCanceled), "wraps ErrRunCanceled")
	drained := len(drain(results))
	testutil.AssertTrue(t, drained < len(records), fmt.Sprintf("run cut short, drained %d", drained))
}
