package semdex

import (
	"context"
	"time"

	"github.com/promptlab/semdex/analytics"
)

// DefaultRebalanceThreshold is the corpus size above which the optimizer's
// rebalance step engages.
const DefaultRebalanceThreshold = 10000

// Maintenance step names reported by OptimizeIndex.
const (
	StepRebuild     = "rebuild"
	StepRecalibrate = "recalibrate"
	StepClearCaches = "clear_caches"
	StepGC          = "gc"
	StepRebalance   = "rebalance"
)

// OptimizeStep reports the outcome of one maintenance sub-step.
type OptimizeStep struct {
	Name     string
	Duration time.Duration

	// Count is the number of items the step touched: graph nodes
	// reinserted, codes re-encoded, cache entries dropped, or stale
	// references collected.
	Count int

	// Skipped marks a step that did not engage, such as rebalancing below
	// the size threshold.
	Skipped bool

	Err error
}

// OptimizeReport summarizes a maintenance run.
type OptimizeReport struct {
	Steps  []OptimizeStep
	Before Stats
	After  Stats

	// LatencyChangePct is the relative change of an uncached probe search,
	// negative when the run made searches faster. Zero when the corpus is
	// empty.
	LatencyChangePct float64

	Duration time.Duration
}

// Failed returns the number of steps that reported an error.
func (r *OptimizeReport) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// OptimizeIndex runs the maintenance pipeline: a full hierarchical index
// rebuild, quantizer recalibration, result cache clears, and garbage
// collection of state left behind by deletions. Steps fail independently;
// per-step errors live in the report and the returned error is non-nil only
// when the context is canceled.
func (e *Engine) OptimizeIndex(ctx context.Context) (*OptimizeReport, error) {
	start := time.Now()

	report := &OptimizeReport{Before: e.Stats()}
	beforeLatency := e.probeLatency(ctx)

	report.Steps = append(report.Steps, runStep(StepRebuild, func() (int, error) {
		if err := e.store.Graph().Rebuild(ctx); err != nil {
			return 0, err
		}
		return e.store.Graph().Stats().Nodes, nil
	}))

	report.Steps = append(report.Steps, runStep(StepRecalibrate, func() (int, error) {
		return e.store.Quantizer().Recalibrate(e.store.Flat()), nil
	}))

	report.Steps = append(report.Steps, runStep(StepClearCaches, func() (int, error) {
		return e.searcher.Invalidate() + e.clusterer.Invalidate(), nil
	}))

	report.Steps = append(report.Steps, runStep(StepGC, func() (int, error) {
		live := e.store.Flat().Has
		removed := e.store.Quantizer().Sweep(live)
		removed += e.store.Graph().GC(live)
		return removed, nil
	}))

	// Rebalancing is a recorded placeholder: above the threshold the step
	// runs and reports zero work, below it the step is marked skipped.
	rebalance := OptimizeStep{Name: StepRebalance}
	if e.store.Len() < e.rebalanceThreshold {
		rebalance.Skipped = true
	}
	report.Steps = append(report.Steps, rebalance)

	afterLatency := e.probeLatency(ctx)
	if beforeLatency > 0 && afterLatency > 0 {
		report.LatencyChangePct = (afterLatency.Seconds() - beforeLatency.Seconds()) / beforeLatency.Seconds() * 100
	}

	report.After = e.Stats()
	report.Duration = time.Since(start)

	err := ctx.Err()
	e.metrics.RecordOptimize(report.Duration, err)
	e.logger.LogOptimize(ctx, report.Failed(), report.LatencyChangePct, err)

	if err == nil {
		e.emit(ctx, analytics.EventIndexOptimized, "", "index", map[string]any{
			"failed_steps": report.Failed(),
			"documents":    report.After.Documents,
		})
	}

	return report, err
}

func runStep(name string, fn func() (int, error)) OptimizeStep {
	start := time.Now()
	count, err := fn()
	return OptimizeStep{
		Name:     name,
		Duration: time.Since(start),
		Count:    count,
		Err:      err,
	}
}

// probeLatency times one uncached worst-case similarity query against a
// stored document. It goes through the cache-bypassing reference search so
// the before and after measurements both hit the index.
func (e *Engine) probeLatency(ctx context.Context) time.Duration {
	page, _, err := e.store.List(nil, 0, 1)
	if err != nil || len(page) == 0 {
		return 0
	}

	start := time.Now()
	if _, _, err := e.searcher.FindSimilar(ctx, page[0].ID, -1, 0); err != nil {
		return 0
	}
	return time.Since(start)
}
