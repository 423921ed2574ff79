package cluster

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, dim int) *store.Store {
	t.Helper()

	seed := int64(1)
	s, err := store.New(dim, func(o *store.Options) {
		o.Seed = &seed
	})
	require.NoError(t, err)

	return s
}

func newTestEngine(s *store.Store, optFns ...func(o *Options)) *Engine {
	seed := int64(7)
	all := append([]func(o *Options){func(o *Options) {
		o.Seed = &seed
	}}, optFns...)

	return New(s, all...)
}

func addDoc(t *testing.T, s *store.Store, id string, vec []float32, tags []string, eff *float64) {
	t.Helper()

	_, err := s.Upsert(&document.Document{
		ID:      id,
		Content: "content of " + id,
		Vector:  vec,
		Metadata: document.Metadata{
			Domain:        "coding",
			Type:          document.TypePrompt,
			Tags:          tags,
			Effectiveness: eff,
		},
	})
	require.NoError(t, err)
}

func ptr(v float64) *float64 {
	return &v
}

func allIDs(clusters []Cluster) []string {
	var ids []string
	for _, c := range clusters {
		ids = append(ids, c.DocumentIDs...)
	}
	sort.Strings(ids)

	return ids
}

func TestClusterValidation(t *testing.T) {
	s := newTestStore(t, 2)
	e := newTestEngine(s)

	addDoc(t, s, "a", []float32{1, 0}, nil, nil)
	addDoc(t, s, "b", []float32{0, 1}, nil, nil)
	addDoc(t, s, "c", []float32{1, 1}, nil, nil)

	t.Run("KExceedsCorpus", func(t *testing.T) {
		_, _, err := e.Cluster(context.Background(), 5, AlgorithmKMeans)
		require.ErrorIs(t, err, ErrTooManyClusters)
		assert.EqualError(t, err, "cannot create more clusters than documents")
	})

	t.Run("NonPositiveK", func(t *testing.T) {
		_, _, err := e.Cluster(context.Background(), 0, AlgorithmKMeans)
		assert.ErrorIs(t, err, ErrInvalidK)

		_, _, err = e.Cluster(context.Background(), -1, AlgorithmKMeans)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("NotImplementedVariants", func(t *testing.T) {
		for _, alg := range []Algorithm{AlgorithmHierarchical, AlgorithmDBSCAN} {
			_, _, err := e.Cluster(context.Background(), 2, alg)

			var notImpl *NotImplementedError
			require.ErrorAs(t, err, &notImpl)
			assert.Equal(t, alg, notImpl.Algorithm)
		}
	})

	t.Run("UnknownAlgorithm", func(t *testing.T) {
		_, _, err := e.Cluster(context.Background(), 2, Algorithm("spectral"))
		assert.ErrorIs(t, err, ErrUnknownAlgorithm)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := e.Cluster(ctx, 2, AlgorithmKMeans)
		assert.Error(t, err)
	})
}

func TestClusterSingle(t *testing.T) {
	s := newTestStore(t, 2)
	e := newTestEngine(s)

	addDoc(t, s, "a", []float32{1, 0}, []string{"go", "review"}, ptr(0.8))
	addDoc(t, s, "b", []float32{0, 1}, []string{"go"}, ptr(0.6))
	addDoc(t, s, "c", []float32{1, 1}, []string{"python"}, ptr(0.4))

	got, hit, err := e.Cluster(context.Background(), 1, "")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, 0, c.ID)
	assert.Equal(t, []string{"a", "b", "c"}, c.DocumentIDs)
	assert.Equal(t, 3, c.Stats.Size)

	// Pairwise similarities of the normalized vectors: 0, cos45, cos45.
	assert.InDelta(t, 0.4714, c.Stats.AvgIntraSimilarity, 1e-3)

	assert.Equal(t, []string{"go", "python", "review"}, c.Stats.DominantTags)

	assert.InDelta(t, 0.6, c.Stats.EffectivenessMean, 1e-9)
	assert.InDelta(t, 0.6, c.Stats.EffectivenessMedian, 1e-9)
	assert.InDelta(t, 0.2, c.Stats.EffectivenessStdDev, 1e-9)

	// Centroid is the mean of the normalized member vectors.
	assert.InDelta(t, 0.569, c.Centroid[0], 1e-3)
	assert.InDelta(t, 0.569, c.Centroid[1], 1e-3)
}

func TestClusterSingletons(t *testing.T) {
	s := newTestStore(t, 2)
	e := newTestEngine(s)

	addDoc(t, s, "a", []float32{1, 0}, nil, nil)
	addDoc(t, s, "b", []float32{0, 1}, nil, nil)
	addDoc(t, s, "c", []float32{1, 1}, nil, nil)

	got, _, err := e.Cluster(context.Background(), 3, AlgorithmKMeans)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, c := range got {
		assert.Equal(t, 1, c.Stats.Size)
		assert.Zero(t, c.Stats.AvgIntraSimilarity)
	}

	assert.Equal(t, []string{"a", "b", "c"}, allIDs(got))
}

func TestClusterPartition(t *testing.T) {
	s := newTestStore(t, 3)
	e := newTestEngine(s)

	vecs := [][]float32{
		{1, 0.01, 0},
		{1, -0.01, 0},
		{1, 0.02, 0},
		{0.01, 1, 0},
		{-0.01, 1, 0},
	}
	ids := []string{"a1", "a2", "a3", "b1", "b2"}
	for i, id := range ids {
		addDoc(t, s, id, vecs[i], nil, nil)
	}

	got, _, err := e.Cluster(context.Background(), 2, AlgorithmKMeans)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, allIDs(got))
	assert.Equal(t, 5, got[0].Stats.Size+got[1].Stats.Size)
}

func TestClusterNoEffectiveness(t *testing.T) {
	s := newTestStore(t, 2)
	e := newTestEngine(s)

	addDoc(t, s, "a", []float32{1, 0}, nil, nil)

	got, _, err := e.Cluster(context.Background(), 1, AlgorithmKMeans)
	require.NoError(t, err)

	st := got[0].Stats
	assert.Zero(t, st.EffectivenessMean)
	assert.Zero(t, st.EffectivenessMedian)
	assert.Zero(t, st.EffectivenessStdDev)
	assert.Empty(t, st.DominantTags)
}

func TestClusterCache(t *testing.T) {
	t.Run("HitPerKeyAndIsolation", func(t *testing.T) {
		s := newTestStore(t, 2)
		e := newTestEngine(s)

		addDoc(t, s, "a", []float32{1, 0}, []string{"go"}, nil)
		addDoc(t, s, "b", []float32{0, 1}, nil, nil)

		first, hit, err := e.Cluster(context.Background(), 1, AlgorithmKMeans)
		require.NoError(t, err)
		assert.False(t, hit)

		// Mutating a returned cluster must not poison the cache.
		first[0].DocumentIDs[0] = "mutated"
		first[0].Stats.DominantTags = append(first[0].Stats.DominantTags, "junk")

		second, hit, err := e.Cluster(context.Background(), 1, AlgorithmKMeans)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, []string{"a", "b"}, second[0].DocumentIDs)
		assert.Equal(t, []string{"go"}, second[0].Stats.DominantTags)

		_, hit, err = e.Cluster(context.Background(), 2, AlgorithmKMeans)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("InvalidateDropsEntries", func(t *testing.T) {
		s := newTestStore(t, 2)
		e := newTestEngine(s)

		addDoc(t, s, "a", []float32{1, 0}, nil, nil)

		_, _, err := e.Cluster(context.Background(), 1, AlgorithmKMeans)
		require.NoError(t, err)
		require.Equal(t, 1, e.CacheLen())

		assert.Equal(t, 1, e.Invalidate())

		_, hit, err := e.Cluster(context.Background(), 1, AlgorithmKMeans)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("ExpiresAfterTTL", func(t *testing.T) {
		s := newTestStore(t, 2)
		clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
		e := newTestEngine(s, func(o *Options) { o.Now = clock.Now })

		addDoc(t, s, "a", []float32{1, 0}, nil, nil)

		_, _, err := e.Cluster(context.Background(), 1, AlgorithmKMeans)
		require.NoError(t, err)

		clock.Advance(59 * time.Minute)
		_, hit, err := e.Cluster(context.Background(), 1, AlgorithmKMeans)
		require.NoError(t, err)
		assert.True(t, hit)

		clock.Advance(2 * time.Minute)
		_, hit, err = e.Cluster(context.Background(), 1, AlgorithmKMeans)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}
