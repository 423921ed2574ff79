package semdex_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlab/semdex"
	"github.com/promptlab/semdex/analytics"
	"github.com/promptlab/semdex/cluster"
	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/embedding"
	"github.com/promptlab/semdex/recommend"
	"github.com/promptlab/semdex/search"
)

func newTestEngine(t *testing.T, dim int, opts ...semdex.Option) *semdex.Engine {
	t.Helper()

	opts = append([]semdex.Option{semdex.WithRandomSeed(1)}, opts...)

	e, err := semdex.New(dim, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })

	return e
}

func newDoc(id string, vec []float32, mutate ...func(d *document.Document)) *document.Document {
	d := &document.Document{
		ID:      id,
		Content: "content of " + id,
		Vector:  vec,
		Metadata: document.Metadata{
			Domain: "coding",
			Type:   document.TypePrompt,
		},
	}
	for _, fn := range mutate {
		fn(d)
	}
	return d
}

func resultIDs(results []search.Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Document.ID)
	}
	return ids
}

func TestNew(t *testing.T) {
	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := semdex.New(0)
		require.ErrorIs(t, err, semdex.ErrValidation)
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		e, err := semdex.New(3)
		require.NoError(t, err)

		require.NoError(t, e.Close())
		require.NoError(t, e.Close())
	})
}

func TestAddDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("NormalizesVector", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{3, 4, 0})))

		got, err := e.GetDocument("a")
		require.NoError(t, err)
		assert.InDelta(t, 0.6, got.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, got.Vector[1], 1e-6)
		assert.False(t, got.Metadata.Created.IsZero())
	})

	t.Run("ZeroVectorStoredUnchanged", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("zero", []float32{0, 0, 0})))

		got, err := e.GetDocument("zero")
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 0}, got.Vector)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		e := newTestEngine(t, 3)

		err := e.AddDocument(ctx, newDoc("short", []float32{1, 0}))
		require.ErrorIs(t, err, semdex.ErrValidation)

		var dimErr *document.DimensionMismatchError
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 3, dimErr.Expected)
		assert.Equal(t, 2, dimErr.Actual)
	})

	t.Run("NilDocument", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.ErrorIs(t, e.AddDocument(ctx, nil), semdex.ErrValidation)
	})

	t.Run("UpsertIsIdempotent", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))

		query := &search.Query{Vector: []float32{1, 0, 0}, Threshold: 0.8}
		first, err := e.Search(ctx, query)
		require.NoError(t, err)

		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		second, err := e.Search(ctx, query)
		require.NoError(t, err)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].Document.ID, second[i].Document.ID)
			assert.Equal(t, first[i].Similarity, second[i].Similarity)
			assert.Equal(t, first[i].Rank, second[i].Rank)
		}

		total := 0
		_, total, err = e.ListDocuments(nil, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ThresholdSelectsCloseDocuments", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("c", []float32{0, 1, 0})))

		results, err := e.Search(ctx, &search.Query{Vector: []float32{1, 0, 0}, Threshold: 0.8})
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Document.ID)
		assert.Equal(t, 1, results[0].Rank)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
		assert.Equal(t, "b", results[1].Document.ID)
		assert.Equal(t, 2, results[1].Rank)
		assert.InDelta(t, 0.9939, results[1].Similarity, 1e-4)
	})

	t.Run("EmptyCorpus", func(t *testing.T) {
		e := newTestEngine(t, 3)

		results, err := e.Search(ctx, &search.Query{Vector: []float32{1, 0, 0}})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("LimitBoundsResults", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("c", []float32{0.8, 0.2, 0})))

		results, err := e.Search(ctx, &search.Query{Vector: []float32{1, 0, 0}, Limit: 2})
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, []int{1, 2}, []int{results[0].Rank, results[1].Rank})
	})

	t.Run("MissingQuery", func(t *testing.T) {
		e := newTestEngine(t, 3)

		_, err := e.Search(ctx, &search.Query{})
		require.ErrorIs(t, err, semdex.ErrValidation)

		_, err = e.Search(ctx, nil)
		require.ErrorIs(t, err, semdex.ErrValidation)
	})

	t.Run("TextQueryUsesEmbedder", func(t *testing.T) {
		provider := embedding.NewStatic(3)
		e := newTestEngine(t, 3, semdex.WithEmbedder(provider))

		vec, err := provider.Embed(ctx, "review a pull request")
		require.NoError(t, err)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", vec)))

		results, err := e.Search(ctx, &search.Query{Text: "review a pull request"})
		require.NoError(t, err)

		require.NotEmpty(t, results)
		assert.Equal(t, "a", results[0].Document.ID)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-4)
	})

	t.Run("TextQueryWithoutEmbedder", func(t *testing.T) {
		e := newTestEngine(t, 3)

		_, err := e.Search(ctx, &search.Query{Text: "anything"})
		require.ErrorIs(t, err, semdex.ErrValidation)
	})

	t.Run("CachedOnRepeat", func(t *testing.T) {
		collector := &semdex.BasicMetricsCollector{}
		e := newTestEngine(t, 3, semdex.WithMetricsCollector(collector))
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		query := &search.Query{Vector: []float32{1, 0, 0}}
		_, err := e.Search(ctx, query)
		require.NoError(t, err)
		_, err = e.Search(ctx, query)
		require.NoError(t, err)

		stats := collector.GetStats()
		assert.Equal(t, int64(2), stats.SearchCount)
		assert.Equal(t, int64(1), stats.SearchCacheHits)
		assert.Equal(t, int64(1), e.Stats().SearchCache.Hits)
	})

	t.Run("WriteInvalidatesCache", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		query := &search.Query{Vector: []float32{1, 0, 0}, Threshold: -1}
		_, err := e.Search(ctx, query)
		require.NoError(t, err)

		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))

		results, err := e.Search(ctx, query)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, resultIDs(results))
		assert.Equal(t, int64(0), e.Stats().SearchCache.Hits)
	})
}

func TestFindSimilarDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("ExcludesReference", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))

		results, err := e.FindSimilarDocuments(ctx, "a", 0, 0)
		require.NoError(t, err)

		assert.NotContains(t, resultIDs(results), "a")
		assert.Contains(t, resultIDs(results), "b")
	})

	t.Run("UnknownReference", func(t *testing.T) {
		e := newTestEngine(t, 3)

		_, err := e.FindSimilarDocuments(ctx, "ghost", 0, 0)
		require.ErrorIs(t, err, semdex.ErrNotFound)
	})
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovedEverywhere", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("c", []float32{0, 1, 0})))

		require.NoError(t, e.DeleteDocument(ctx, "b"))

		results, err := e.Search(ctx, &search.Query{Vector: []float32{1, 0, 0}, Threshold: -1})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "c"}, resultIDs(results))

		_, total, err := e.ListDocuments(nil, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		clusters, err := e.ClusterDocuments(ctx, 1, cluster.AlgorithmKMeans)
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.ElementsMatch(t, []string{"a", "c"}, clusters[0].DocumentIDs)

		_, err = e.GetDocument("b")
		require.ErrorIs(t, err, semdex.ErrNotFound)
	})

	t.Run("Unknown", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.ErrorIs(t, e.DeleteDocument(ctx, "ghost"), semdex.ErrNotFound)
	})
}

func TestClusterDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("TooManyClusters", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("c", []float32{0, 1, 0})))

		_, err := e.ClusterDocuments(ctx, 5, cluster.AlgorithmKMeans)
		require.ErrorIs(t, err, semdex.ErrValidation)
		assert.ErrorContains(t, err, "cannot create more clusters than documents")
	})

	t.Run("UnimplementedAlgorithm", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		_, err := e.ClusterDocuments(ctx, 1, cluster.AlgorithmDBSCAN)
		require.ErrorIs(t, err, semdex.ErrValidation)
		assert.ErrorContains(t, err, "not implemented")
	})

	t.Run("PartitionsCorpus", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("x1", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("x2", []float32{0.95, 0.05, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("y1", []float32{0, 1, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("y2", []float32{0, 0.95, 0.05})))

		clusters, err := e.ClusterDocuments(ctx, 2, "")
		require.NoError(t, err)

		require.Len(t, clusters, 2)
		var all []string
		for _, c := range clusters {
			assert.Equal(t, len(c.DocumentIDs), c.Stats.Size)
			all = append(all, c.DocumentIDs...)
		}
		assert.ElementsMatch(t, []string{"x1", "x2", "y1", "y2"}, all)

		_, err = e.ClusterDocuments(ctx, 2, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.Stats().ClusterCache.Hits)
	})
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("OldInteractionKeepsDocumentEligible", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))

		history := []recommend.Interaction{{
			DocumentID: "a",
			Type:       recommend.InteractionShare,
			Timestamp:  time.Now().Add(-10 * 24 * time.Hour),
		}}

		results, err := e.Recommend(ctx, history, 5)
		require.NoError(t, err)

		require.NotEmpty(t, results)
		assert.Equal(t, "a", results[0].Document.ID)
		assert.Equal(t, 1, results[0].Rank)
	})

	t.Run("RecentInteractionExcluded", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))

		history := []recommend.Interaction{{
			DocumentID: "a",
			Type:       recommend.InteractionUse,
			Timestamp:  time.Now().Add(-24 * time.Hour),
		}}

		results, err := e.Recommend(ctx, history, 5)
		require.NoError(t, err)

		assert.NotContains(t, resultIDs(results), "a")
		assert.Contains(t, resultIDs(results), "b")
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		results, err := e.Recommend(ctx, nil, 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestAnalyzeDrift(t *testing.T) {
	ctx := context.Background()

	t.Run("WindowMembership", func(t *testing.T) {
		e := newTestEngine(t, 3)

		require.NoError(t, e.AddDocument(ctx, newDoc("old", []float32{1, 0, 0}, func(d *document.Document) {
			d.Metadata.Created = time.Now().Add(-120 * 24 * time.Hour)
			d.Metadata.Updated = d.Metadata.Created
		})))
		require.NoError(t, e.AddDocument(ctx, newDoc("fresh", []float32{0, 1, 0}, func(d *document.Document) {
			d.Metadata.Created = time.Now().Add(-5 * 24 * time.Hour)
			d.Metadata.Updated = d.Metadata.Created
		})))

		report, err := e.AnalyzeDrift(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, report.RecentCount)
		assert.Equal(t, 1, report.OlderCount)
		assert.False(t, report.InsufficientData)
		assert.InDelta(t, 1.0, report.Overall, 1e-6)
		require.NotEmpty(t, report.Recommendations)
		assert.Contains(t, report.Recommendations[0], "overall drift")
	})

	t.Run("InsufficientData", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("fresh", []float32{1, 0, 0})))

		report, err := e.AnalyzeDrift(ctx)
		require.NoError(t, err)
		assert.True(t, report.InsufficientData)
	})
}

func TestAddDocumentsBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("MixedValidity", func(t *testing.T) {
		e := newTestEngine(t, 3)

		docs := []*document.Document{
			newDoc("a", []float32{1, 0, 0}),
			newDoc("bad", []float32{1, 0}),
			newDoc("b", []float32{0, 1, 0}),
			nil,
			newDoc("c", []float32{0, 0, 1}),
		}

		result, err := e.AddDocumentsBatch(ctx, docs)
		require.NoError(t, err)

		assert.Equal(t, 5, result.Total)
		assert.Equal(t, 3, result.Added)
		assert.Equal(t, 2, result.Failed)
		require.Len(t, result.Errors, 2)
		for _, batchErr := range result.Errors {
			assert.ErrorIs(t, batchErr.Err, semdex.ErrValidation)
		}

		_, total, err := e.ListDocuments(nil, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("Empty", func(t *testing.T) {
		e := newTestEngine(t, 3)

		result, err := e.AddDocumentsBatch(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
	})
}

func TestRecordUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("Accumulates", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		require.NoError(t, e.RecordUsage(ctx, "a"))
		require.NoError(t, e.RecordUsage(ctx, "a"))

		got, err := e.GetDocument("a")
		require.NoError(t, err)
		require.NotNil(t, got.Metadata.UsageCount)
		assert.Equal(t, 2, *got.Metadata.UsageCount)
	})

	t.Run("Unknown", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.ErrorIs(t, e.RecordUsage(ctx, "ghost"), semdex.ErrNotFound)
	})
}

func TestOptimizeIndex(t *testing.T) {
	ctx := context.Background()

	stepNames := func(report *semdex.OptimizeReport) []string {
		names := make([]string, 0, len(report.Steps))
		for _, s := range report.Steps {
			names = append(names, s.Name)
		}
		return names
	}

	t.Run("RunsAllSteps", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0.9, 0.1, 0})))
		require.NoError(t, e.AddDocument(ctx, newDoc("c", []float32{0, 1, 0})))
		require.NoError(t, e.DeleteDocument(ctx, "b"))

		report, err := e.OptimizeIndex(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{
			semdex.StepRebuild,
			semdex.StepRecalibrate,
			semdex.StepClearCaches,
			semdex.StepGC,
			semdex.StepRebalance,
		}, stepNames(report))
		assert.Equal(t, 0, report.Failed())
		assert.Equal(t, 2, report.Steps[0].Count)
		assert.True(t, report.Steps[4].Skipped)

		stats := e.Stats()
		assert.True(t, stats.Graph.Built)
		assert.Equal(t, 2, stats.Graph.Nodes)

		// The rebuilt graph serves search and no longer references the
		// deleted document.
		results, searchErr := e.Search(ctx, &search.Query{Vector: []float32{1, 0, 0}, Threshold: -1})
		require.NoError(t, searchErr)
		assert.ElementsMatch(t, []string{"a", "c"}, resultIDs(results))
	})

	t.Run("EmptyCorpus", func(t *testing.T) {
		e := newTestEngine(t, 3)

		report, err := e.OptimizeIndex(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, report.Failed())
		assert.Zero(t, report.LatencyChangePct)
	})

	t.Run("RebalanceEngagesAboveThreshold", func(t *testing.T) {
		e := newTestEngine(t, 3, semdex.WithRebalanceThreshold(1))
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		report, err := e.OptimizeIndex(ctx)
		require.NoError(t, err)

		last := report.Steps[len(report.Steps)-1]
		assert.Equal(t, semdex.StepRebalance, last.Name)
		assert.False(t, last.Skipped)
		assert.Zero(t, last.Count)
	})

	t.Run("Canceled", func(t *testing.T) {
		e := newTestEngine(t, 3)
		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := e.OptimizeIndex(canceled)
		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, report)
		assert.GreaterOrEqual(t, report.Failed(), 1)
	})
}

func TestAnalyticsEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("DeliveredInOrder", func(t *testing.T) {
		sink := &analytics.Memory{}
		e := newTestEngine(t, 3, semdex.WithAnalyticsSink(sink))

		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
		_, err := e.Search(ctx, &search.Query{Vector: []float32{1, 0, 0}})
		require.NoError(t, err)
		require.NoError(t, e.DeleteDocument(ctx, "a"))

		require.NoError(t, e.Close())

		events := sink.Events()
		require.Len(t, events, 3)
		assert.Equal(t, analytics.EventDocumentAdded, events[0].Type)
		assert.Equal(t, "a", events[0].EntityID)
		assert.Equal(t, analytics.EventSearchPerformed, events[1].Type)
		assert.Equal(t, analytics.EventDocumentDeleted, events[2].Type)
	})

	t.Run("AsyncDelivery", func(t *testing.T) {
		sink := &analytics.Memory{}
		e := newTestEngine(t, 3, semdex.WithAnalyticsSink(sink))

		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		assert.Eventually(t, func() bool {
			return sink.Len() == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("CachedSearchEmitsNoEvent", func(t *testing.T) {
		sink := &analytics.Memory{}
		e := newTestEngine(t, 3, semdex.WithAnalyticsSink(sink))

		require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))

		query := &search.Query{Vector: []float32{1, 0, 0}}
		_, err := e.Search(ctx, query)
		require.NoError(t, err)
		_, err = e.Search(ctx, query)
		require.NoError(t, err)

		require.NoError(t, e.Close())

		count := 0
		for _, event := range sink.Events() {
			if event.Type == analytics.EventSearchPerformed {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()

	e := newTestEngine(t, 3)
	require.NoError(t, e.AddDocument(ctx, newDoc("a", []float32{1, 0, 0})))
	require.NoError(t, e.AddDocument(ctx, newDoc("b", []float32{0, 1, 0})))

	_, err := e.Search(ctx, &search.Query{Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	stats := e.Stats()
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 3, stats.Dimension)
	assert.Equal(t, 2, stats.Quantizer.Codes)
	assert.Equal(t, int64(1), stats.SearchCache.Misses)
	assert.Equal(t, 1, stats.SearchCache.Entries)
	assert.False(t, stats.Graph.Built)
}
