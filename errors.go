package semdex

import (
	"context"
	"errors"
	"fmt"

	"github.com/promptlab/semdex/cluster"
	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/search"
	"github.com/promptlab/semdex/store"
)

var (
	// ErrValidation is returned when caller input is rejected: a vector of
	// the wrong dimension, a search with neither vector nor text, a cluster
	// count larger than the corpus.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a document id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInternal wraps failures of external collaborators, such as the
	// embedding provider.
	ErrInternal = errors.New("internal error")
)

// translateError maps subpackage errors onto the root taxonomy so callers
// can match with errors.Is against the three sentinels. Context errors pass
// through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Not found unification.
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Caller input problems.
	switch {
	case errors.Is(err, document.ErrNil),
		errors.Is(err, document.ErrEmptyID),
		errors.Is(err, search.ErrMissingQuery),
		errors.Is(err, search.ErrNoEmbedder),
		errors.Is(err, search.ErrInvalidLimit),
		errors.Is(err, search.ErrInvalidThreshold),
		errors.Is(err, cluster.ErrInvalidK),
		errors.Is(err, cluster.ErrTooManyClusters),
		errors.Is(err, cluster.ErrUnknownAlgorithm):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var dimErr *document.DimensionMismatchError
	if errors.As(err, &dimErr) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var typeErr *document.InvalidTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var effErr *document.EffectivenessRangeError
	if errors.As(err, &effErr) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var implErr *cluster.NotImplementedError
	if errors.As(err, &implErr) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	// Everything else, including embedding-provider failures.
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
