package semdex

import (
	"context"
	"time"

	"github.com/promptlab/semdex/cluster"
	"github.com/promptlab/semdex/drift"
	"github.com/promptlab/semdex/recommend"
	"github.com/promptlab/semdex/search"
)

// ClusterDocuments partitions the corpus into k clusters. An empty algorithm
// selects k-means; declared-but-unimplemented algorithms fail validation
// rather than silently substituting k-means. Results are cached per
// (k, algorithm) until the next write.
func (e *Engine) ClusterDocuments(ctx context.Context, k int, algorithm cluster.Algorithm) ([]cluster.Cluster, error) {
	start := time.Now()

	clusters, cached, err := e.clusterer.Cluster(ctx, k, algorithm)
	err = translateError(err)

	e.metrics.RecordCluster(time.Since(start), cached, err)
	e.logger.LogCluster(ctx, k, string(algorithm), cached, err)
	return clusters, err
}

// Recommend ranks documents against a preference vector built from the
// weighted interaction history. Documents interacted with in the last seven
// days are excluded; an empty or unresolvable history yields no results.
func (e *Engine) Recommend(ctx context.Context, history []recommend.Interaction, limit int) ([]search.Result, error) {
	start := time.Now()

	results, err := e.recommender.Recommend(ctx, history, limit)
	err = translateError(err)

	e.metrics.RecordRecommend(time.Since(start), err)
	e.logger.LogRecommend(ctx, len(history), len(results), err)
	return results, err
}

// AnalyzeDrift compares the centroids of recently created documents against
// older ones, globally and per domain, and reports trending tags plus
// maintenance recommendations.
func (e *Engine) AnalyzeDrift(ctx context.Context) (*drift.Report, error) {
	start := time.Now()

	report, err := e.drifter.Analyze(ctx)
	err = translateError(err)

	e.metrics.RecordDrift(time.Since(start), err)

	var overall float64
	var insufficient bool
	if report != nil {
		overall = report.Overall
		insufficient = report.InsufficientData
	}
	e.logger.LogDrift(ctx, overall, insufficient, err)

	return report, err
}
