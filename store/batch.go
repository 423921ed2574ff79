package store

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/promptlab/semdex/document"
)

const (
	// DefaultBatchChunkSize is the number of documents written per chunk.
	DefaultBatchChunkSize = 100

	// DefaultBatchParallelism bounds concurrent writers within a chunk.
	DefaultBatchParallelism = 4

	// DefaultRecalibrateThreshold is the write count above which a batch
	// triggers quantizer recalibration.
	DefaultRecalibrateThreshold = 100
)

// BatchOptions contains configuration options for batch writes.
type BatchOptions struct {
	// ChunkSize is the number of documents per chunk.
	ChunkSize int

	// Parallelism bounds concurrent writers within a chunk.
	Parallelism int

	// RecalibrateThreshold is the write count above which the quantizer is
	// recalibrated after the batch.
	RecalibrateThreshold int

	// Pace gates chunk starts so a large batch yields to foreground work.
	Pace *rate.Limiter
}

// DefaultBatchOptions contains the default batch configuration.
var DefaultBatchOptions = BatchOptions{
	ChunkSize:            DefaultBatchChunkSize,
	Parallelism:          DefaultBatchParallelism,
	RecalibrateThreshold: DefaultRecalibrateThreshold,
}

// BatchError records a single failed document within a batch.
type BatchError struct {
	// Index is the document's position in the input slice.
	Index int

	// ID is the document id when one was provided.
	ID string

	// Err is the validation or write error.
	Err error
}

// BatchResult summarizes a batch write.
type BatchResult struct {
	Total        int
	Added        int
	Updated      int
	Failed       int
	Skipped      int // earlier occurrences superseded by a later write to the same id
	Recalibrated bool
	Errors       []BatchError
}

// BatchUpsert writes docs in chunks with bounded parallelism. Duplicate ids
// within the batch resolve deterministically to the last valid occurrence.
// Invalid documents are reported per item and do not abort the batch; a
// canceled context stops at the next chunk boundary and returns the partial
// result alongside the context error. Batches writing more than the
// recalibration threshold re-derive the quantizer parameters afterwards.
func (s *Store) BatchUpsert(ctx context.Context, docs []*document.Document, optFns ...func(o *BatchOptions)) (*BatchResult, error) {
	opts := DefaultBatchOptions

	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if opts.ChunkSize < 1 {
		opts.ChunkSize = DefaultBatchChunkSize
	}

	if opts.Parallelism < 1 {
		opts.Parallelism = DefaultBatchParallelism
	}

	result := &BatchResult{Total: len(docs)}
	if len(docs) == 0 {
		return result, nil
	}

	errs := make([]error, len(docs))
	wrote := make([]bool, len(docs))
	added := make([]bool, len(docs))

	// Validate everything up front; the last valid occurrence per id wins.
	winner := make(map[string]int, len(docs))

	for i, d := range docs {
		if err := document.Validate(d, s.dim); err != nil {
			errs[i] = err
			continue
		}
		winner[d.ID] = i
	}

	var write []int

	for i, d := range docs {
		if errs[i] != nil {
			continue
		}
		if winner[d.ID] != i {
			result.Skipped++
			continue
		}
		write = append(write, i)
	}

	var batchErr error

	for start := 0; start < len(write); start += opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			batchErr = err
			break
		}

		if opts.Pace != nil {
			if err := opts.Pace.Wait(ctx); err != nil {
				batchErr = err
				break
			}
		}

		end := start + opts.ChunkSize
		if end > len(write) {
			end = len(write)
		}

		g := new(errgroup.Group)
		g.SetLimit(opts.Parallelism)

		for _, idx := range write[start:end] {
			idx := idx
			g.Go(func() error {
				isNew, err := s.Upsert(docs[idx])
				if err != nil {
					errs[idx] = err
					return nil
				}

				wrote[idx] = true
				added[idx] = isNew

				return nil
			})
		}

		_ = g.Wait()
	}

	for i := range docs {
		switch {
		case errs[i] != nil:
			result.Failed++

			var id string
			if docs[i] != nil {
				id = docs[i].ID
			}
			result.Errors = append(result.Errors, BatchError{Index: i, ID: id, Err: errs[i]})
		case wrote[i] && added[i]:
			result.Added++
		case wrote[i]:
			result.Updated++
		}
	}

	if result.Added+result.Updated > opts.RecalibrateThreshold {
		s.quant.Recalibrate(s.flat)
		result.Recalibrated = true
	}

	return result, batchErr
}
