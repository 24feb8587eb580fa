package search

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault-mcp/internal/storage"
)

// vectorWithSimilarity builds a unit vector whose cosine similarity against
// the query [1, 0] equals sim
func vectorWithSimilarity(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestSearchWithFacetsSimilarityBands(t *testing.T) {
	now := time.Now()
	similarities := []float64{0.95, 0.92, 0.8, 0.75, 0.6, 0.55, 0.4, 0.3, 0.2, 0.1}

	var docs []storage.EmbeddedDocument
	for i, sim := range similarities {
		docs = append(docs, embeddedDoc(int64(i+1), "doc", now, vectorWithSimilarity(sim)))
	}
	s := NewSearcher(&fakeStore{docs: docs})
	ctx := context.Background()

	faceted, err := s.SearchWithFacets(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, faceted.Results, 10)

	bands := faceted.Facets.SimilarityBands
	require.Len(t, bands, 4)
	assert.Equal(t, "0.9-1.0", bands[0].Range)
	assert.Equal(t, 2, bands[0].Count)
	assert.Equal(t, "0.7-0.9", bands[1].Range)
	assert.Equal(t, 2, bands[1].Count)
	assert.Equal(t, "0.5-0.7", bands[2].Range)
	assert.Equal(t, 2, bands[2].Count)
	assert.Equal(t, "0.0-0.5", bands[3].Range)
	assert.Equal(t, 4, bands[3].Count)
}

func TestSearchWithFacetsRecencyBands(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{docs: []storage.EmbeddedDocument{
		embeddedDoc(1, "hours old", now.Add(-2*time.Hour), []float32{1, 0}),
		embeddedDoc(2, "three days old", now.Add(-3*24*time.Hour), []float32{1, 0}),
		embeddedDoc(3, "two weeks old", now.Add(-14*24*time.Hour), []float32{1, 0}),
		embeddedDoc(4, "two months old", now.Add(-60*24*time.Hour), []float32{1, 0}),
		embeddedDoc(5, "also hours old", now.Add(-20*time.Hour), []float32{1, 0}),
	}}
	s := NewSearcher(store)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	faceted, err := s.SearchWithFacets(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)

	bands := faceted.Facets.RecencyBands
	require.Len(t, bands, 4)
	assert.Equal(t, "last_day", bands[0].Period)
	assert.Equal(t, 2, bands[0].Count)
	assert.Equal(t, "last_week", bands[1].Period)
	assert.Equal(t, 1, bands[1].Count)
	assert.Equal(t, "last_month", bands[2].Period)
	assert.Equal(t, 1, bands[2].Count)
	assert.Equal(t, "older", bands[3].Period)
	assert.Equal(t, 1, bands[3].Count)
}

func TestSearchWithFacetsEmptyCorpus(t *testing.T) {
	s := NewSearcher(&fakeStore{})
	ctx := context.Background()

	faceted, err := s.SearchWithFacets(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, faceted.Results)

	// Bands are always present, even when empty
	require.Len(t, faceted.Facets.SimilarityBands, 4)
	require.Len(t, faceted.Facets.RecencyBands, 4)
	for _, band := range faceted.Facets.SimilarityBands {
		assert.Zero(t, band.Count)
	}
}

func TestSearchWithFacetsNegativeSimilarityUnbanded(t *testing.T) {
	now := time.Now()
	store := &fakeStore{docs: []storage.EmbeddedDocument{
		embeddedDoc(1, "opposite", now, []float32{-1, 0}),
	}}
	s := NewSearcher(store)
	ctx := context.Background()

	faceted, err := s.SearchWithFacets(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, faceted.Results, 1)

	total := 0
	for _, band := range faceted.Facets.SimilarityBands {
		total += band.Count
	}
	assert.Zero(t, total)
}
