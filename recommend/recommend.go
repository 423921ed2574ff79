// Package recommend builds preference vectors from interaction histories and
// turns them into document recommendations through the search pipeline.
package recommend

import (
	"context"
	"math"
	"time"

	"github.com/promptlab/semdex/distance"
	"github.com/promptlab/semdex/search"
	"github.com/promptlab/semdex/store"
)

const (
	// DefaultThreshold is the lowered similarity floor used for
	// recommendations, favoring recall over precision.
	DefaultThreshold = 0.3

	// DefaultLimit caps recommendations when the caller does not.
	DefaultLimit = 10

	// decayDays is the time constant of the exponential recency decay.
	decayDays = 30

	// exclusionWindow keeps recently interacted documents out of the
	// results.
	exclusionWindow = 7 * 24 * time.Hour
)

// InteractionType classifies an interaction with a document.
type InteractionType string

const (
	InteractionView  InteractionType = "view"
	InteractionLike  InteractionType = "like"
	InteractionUse   InteractionType = "use"
	InteractionShare InteractionType = "share"
)

// baseWeight returns the contribution weight of an interaction type.
// Unknown types contribute nothing.
func baseWeight(t InteractionType) float64 {
	switch t {
	case InteractionView:
		return 0.1
	case InteractionLike:
		return 0.3
	case InteractionUse:
		return 0.5
	case InteractionShare:
		return 0.8
	default:
		return 0
	}
}

// Interaction is one entry of a user's interaction history.
type Interaction struct {
	// DocumentID names the document interacted with.
	DocumentID string

	// Type is the interaction kind.
	Type InteractionType

	// Timestamp is when the interaction happened.
	Timestamp time.Time

	// Weight optionally scales the contribution. Nil means 1.
	Weight *float64
}

// Options contains configuration options for the recommendation engine.
type Options struct {
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{}

// Engine produces recommendations over a store.
type Engine struct {
	store  *store.Store
	search *search.Engine
	now    func() time.Time
}

// New creates a recommendation engine over s, delegating candidate retrieval
// to se.
func New(s *store.Store, se *search.Engine, optFns ...func(o *Options)) *Engine {
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
		store:  s,
		search: se,
		now:    now,
	}
}

// Recommend builds a preference vector from history and returns the closest
// documents, excluding anything interacted with in the last seven days.
// Interactions referencing unknown documents are ignored; when none remain,
// the result is empty. A limit of zero applies the default.
func (e *Engine) Recommend(ctx context.Context, history []Interaction, limit int) ([]search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if limit < 0 {
		return nil, search.ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultLimit
	}

	now := e.now()
	pref := make([]float32, e.store.Dim())
	total := 0.0
	exclude := make(map[string]bool)

	for _, it := range history {
		if age := now.Sub(it.Timestamp); age >= 0 && age <= exclusionWindow {
			exclude[it.DocumentID] = true
		}

		vec, ok := e.store.VectorByID(it.DocumentID)
		if !ok {
			continue
		}

		w := baseWeight(it.Type) * recencyDecay(now, it.Timestamp)
		if it.Weight != nil {
			w *= *it.Weight
		}
		if w <= 0 {
			continue
		}

		for i, v := range vec {
			pref[i] += v * float32(w)
		}
		total += w
	}

	if total == 0 {
		return nil, nil
	}

	for i := range pref {
		pref[i] /= float32(total)
	}
	distance.NormalizeL2InPlace(pref)

	// Over-fetch so the exclusion window cannot starve the limit.
	results, _, err := e.search.Search(ctx, &search.Query{
		Vector:    pref,
		Threshold: DefaultThreshold,
		Limit:     limit + len(exclude),
	})
	if err != nil {
		return nil, err
	}

	out := make([]search.Result, 0, limit)

	for _, r := range results {
		if exclude[r.Document.ID] {
			continue
		}

		r.Rank = len(out) + 1
		out = append(out, r)

		if len(out) == limit {
			break
		}
	}

	if len(out) == 0 {
		return nil, nil
	}

	return out, nil
}

// recencyDecay weighs an interaction by its age with a 30-day time constant.
// Future timestamps count as now.
func recencyDecay(now, ts time.Time) float64 {
	days := now.Sub(ts).Hours() / 24
	if days < 0 {
		days = 0
	}

	return math.Exp(-days / decayDays)
}
