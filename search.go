package semdex

import (
	"context"
	"time"

	"github.com/promptlab/semdex/analytics"
	"github.com/promptlab/semdex/search"
)

// Search finds documents similar to the query, which must carry a vector or,
// when an embedder is configured, text. Results are ranked by descending
// cosine similarity with contiguous ranks from 1 and truncated to the query
// limit; repeated queries are served from a TTL cache until the next write.
func (e *Engine) Search(ctx context.Context, q *search.Query) ([]search.Result, error) {
	start := time.Now()

	results, cached, err := e.searcher.Search(ctx, q)
	err = translateError(err)

	if err == nil && !cached {
		e.emit(ctx, analytics.EventSearchPerformed, "", "search", map[string]any{
			"results": len(results),
		})
	}

	e.metrics.RecordSearch(time.Since(start), cached, err)
	e.logger.LogSearch(ctx, queryLimit(q), len(results), cached, err)
	return results, err
}

// FindSimilarDocuments searches with the stored reference document's vector
// as the query, excluding the reference itself from the results. Zero values
// select the default threshold and limit.
func (e *Engine) FindSimilarDocuments(ctx context.Context, referenceID string, threshold float64, limit int) ([]search.Result, error) {
	start := time.Now()

	results, cached, err := e.searcher.FindSimilar(ctx, referenceID, threshold, limit)
	err = translateError(err)

	if err == nil {
		e.emit(ctx, analytics.EventSearchPerformed, referenceID, "document", map[string]any{
			"results": len(results),
		})
	}

	e.metrics.RecordSearch(time.Since(start), cached, err)
	e.logger.LogSearch(ctx, limit, len(results), cached, err)
	return results, err
}

func queryLimit(q *search.Query) int {
	if q == nil {
		return 0
	}
	return q.Limit
}
