// Package drift measures how the direction of the corpus moves over time:
// it compares centroids of recently created documents against older ones,
// globally and per domain, surfaces trending tags, and emits maintenance
// recommendations when the shift is large.
package drift

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/promptlab/semdex/distance"
	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/store"
)

const (
	// RecentWindow is the age below which a document counts as recent.
	RecentWindow = 30 * 24 * time.Hour

	// OlderWindow is the age above which a document counts as older.
	// Documents between the two windows contribute to neither side.
	OlderWindow = 90 * 24 * time.Hour

	// TrendingGrowthMin is the growth rate above which a tag is trending.
	TrendingGrowthMin = 0.5

	// OverallAlert is the overall drift above which a recommendation is
	// emitted.
	OverallAlert = 0.3

	// DomainAlert is the per-domain drift above which a recommendation is
	// emitted.
	DomainAlert = 0.4
)

// DomainDrift is the drift of a single domain.
type DomainDrift struct {
	Domain      string
	Drift       float64
	RecentCount int
	OlderCount  int
}

// TrendingTag is a tag whose usage grows between the older and recent
// windows.
type TrendingTag struct {
	Tag         string
	GrowthRate  float64
	RecentCount int
	OlderCount  int
}

// Report is the outcome of a drift analysis.
type Report struct {
	GeneratedAt time.Time

	// Overall is 1 - cosine(recent centroid, older centroid) across the
	// whole corpus. Zero when either window is empty.
	Overall     float64
	RecentCount int
	OlderCount  int

	// InsufficientData is set when either global window is empty, leaving
	// Overall meaningless.
	InsufficientData bool

	// Domains lists per-domain drift for domains populated in both
	// windows, highest drift first.
	Domains []DomainDrift

	// TrendingTags lists tags with growth above the trending floor,
	// fastest growing first.
	TrendingTags []TrendingTag

	// Recommendations are textual maintenance hints derived from the
	// measured drift.
	Recommendations []string
}

// Options contains configuration options for the drift engine.
type Options struct {
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{}

// Engine analyzes corpus drift over a store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// New creates a drift engine over s.
func New(s *store.Store, optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions

	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	return &Engine{
		store: s,
		now:   now,
	}
}

// window accumulates the documents of one time bucket.
type window struct {
	sum   []float32
	count int
	tags  map[string]int
}

func newWindow(dim int) *window {
	return &window{
		sum:  make([]float32, dim),
		tags: make(map[string]int),
	}
}

func (w *window) add(d *document.Document) {
	for i, v := range d.Vector {
		w.sum[i] += v
	}
	w.count++

	for _, tag := range d.Metadata.Tags {
		w.tags[tag]++
	}
}

// centroid returns the mean vector, or nil for an empty window.
func (w *window) centroid() []float32 {
	if w.count == 0 {
		return nil
	}

	out := make([]float32, len(w.sum))
	scale := 1 / float32(w.count)
	for i, v := range w.sum {
		out[i] = v * scale
	}

	return out
}

// Analyze computes the drift report for the current corpus.
func (e *Engine) Analyze(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.now()
	dim := e.store.Dim()

	recent := newWindow(dim)
	older := newWindow(dim)
	recentByDomain := make(map[string]*window)
	olderByDomain := make(map[string]*window)

	e.store.ForEachDocument(func(iid uint32, d *document.Document) bool {
		age := now.Sub(d.Metadata.Created)

		var global *window
		var byDomain map[string]*window

		switch {
		case age <= RecentWindow:
			global, byDomain = recent, recentByDomain
		case age > OlderWindow:
			global, byDomain = older, olderByDomain
		default:
			return true
		}

		global.add(d)

		dw := byDomain[d.Metadata.Domain]
		if dw == nil {
			dw = newWindow(dim)
			byDomain[d.Metadata.Domain] = dw
		}
		dw.add(d)

		return true
	})

	report := &Report{
		GeneratedAt: now,
		RecentCount: recent.count,
		OlderCount:  older.count,
	}

	if recent.count == 0 || older.count == 0 {
		report.InsufficientData = true
	} else {
		report.Overall = driftBetween(recent.centroid(), older.centroid())
	}

	for domain, rw := range recentByDomain {
		ow := olderByDomain[domain]
		if ow == nil {
			continue
		}

		report.Domains = append(report.Domains, DomainDrift{
			Domain:      domain,
			Drift:       driftBetween(rw.centroid(), ow.centroid()),
			RecentCount: rw.count,
			OlderCount:  ow.count,
		})
	}

	sort.Slice(report.Domains, func(i, j int) bool {
		if report.Domains[i].Drift != report.Domains[j].Drift {
			return report.Domains[i].Drift > report.Domains[j].Drift
		}
		return report.Domains[i].Domain < report.Domains[j].Domain
	})

	report.TrendingTags = trendingTags(recent.tags, older.tags)
	report.Recommendations = recommendations(report)

	return report, nil
}

// driftBetween is 1 - cosine similarity of the two centroids.
func driftBetween(recent, older []float32) float64 {
	return 1 - float64(distance.Cosine(recent, older))
}

// trendingTags returns tags whose recent frequency outgrows their older
// frequency by more than the trending floor, fastest growing first. Tags
// absent from the older window grow against a floor of one occurrence.
func trendingTags(recent, older map[string]int) []TrendingTag {
	var out []TrendingTag

	for tag, rc := range recent {
		oc := older[tag]

		base := oc
		if base < 1 {
			base = 1
		}

		growth := float64(rc-oc) / float64(base)
		if growth > TrendingGrowthMin {
			out = append(out, TrendingTag{
				Tag:         tag,
				GrowthRate:  growth,
				RecentCount: rc,
				OlderCount:  oc,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthRate != out[j].GrowthRate {
			return out[i].GrowthRate > out[j].GrowthRate
		}
		return out[i].Tag < out[j].Tag
	})

	return out
}

func recommendations(r *Report) []string {
	var out []string

	if r.InsufficientData {
		return nil
	}

	if r.Overall > OverallAlert {
		out = append(out, fmt.Sprintf(
			"overall drift %.2f exceeds %.2f: consider refreshing older documents and rebuilding the index",
			r.Overall, OverallAlert))
	}

	for _, d := range r.Domains {
		if d.Drift > DomainAlert {
			out = append(out, fmt.Sprintf(
				"domain %q drift %.2f exceeds %.2f: review its recent documents for topic shift",
				d.Domain, d.Drift, DomainAlert))
		}
	}

	return out
}
