package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault-mcp/internal/storage"
	"github.com/docvault/docvault-mcp/pkg/types"
)

func TestHybridSearchSemanticOnly(t *testing.T) {
	s := NewSearcher(threeDocCorpus())
	ctx := context.Background()

	// textWeight=0, semanticWeight=1 reproduces the pure similarity ranking:
	// the exact match ranks first with totalScore = 1.0 * 1
	results, err := s.HybridSearch(ctx, "aligned", []float32{1, 0}, 0, 1, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, int64(1), results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].TotalScore, 1e-6)
	assert.InDelta(t, 0.0, results[0].TextScore, 1e-9)
	assert.InDelta(t, 1.0, results[0].SemanticScore, 1e-6)
}

func TestHybridSearchFlatTextWeight(t *testing.T) {
	now := time.Now()
	store := &fakeStore{docs: []storage.EmbeddedDocument{
		// Matches the text query once
		embeddedDoc(1, "kubernetes intro", now, []float32{0, 1}),
		// Matches the text query in both title and content words
		{
			Document: types.Document{
				ID:        2,
				Title:     "kubernetes networking kubernetes",
				Content:   "kubernetes everywhere",
				CreatedAt: now,
			},
			Vector: []float32{0, 1},
		},
		// No text match, perfect vector match
		embeddedDoc(3, "unrelated title", now, []float32{1, 0}),
	}}
	s := NewSearcher(store)
	ctx := context.Background()

	results, err := s.HybridSearch(ctx, "kubernetes", []float32{1, 0}, 0.4, 0.6, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := make(map[int64]types.HybridResult, len(results))
	for _, res := range results {
		byID[res.Document.ID] = res
	}

	// Text contribution is a flat weight regardless of match quality
	assert.InDelta(t, 0.4, byID[1].TextScore, 1e-9)
	assert.InDelta(t, 0.4, byID[2].TextScore, 1e-9)

	// Text-only documents keep semanticScore from their similarity leg entry;
	// both are orthogonal to the query so it contributes 0
	assert.InDelta(t, 0.0, byID[1].SemanticScore, 1e-6)

	// Vector-only document: textScore stays 0
	assert.InDelta(t, 0.0, byID[3].TextScore, 1e-9)
	assert.InDelta(t, 0.6, byID[3].SemanticScore, 1e-6)

	// totalScore = textScore + semanticScore, sorted descending
	assert.Equal(t, int64(3), results[0].Document.ID)
	assert.InDelta(t, 0.6, results[0].TotalScore, 1e-6)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].TotalScore, results[i].TotalScore)
	}
}

func TestHybridSearchDocumentInBothLegs(t *testing.T) {
	now := time.Now()
	store := &fakeStore{docs: []storage.EmbeddedDocument{
		embeddedDoc(1, "vector databases", now, []float32{1, 0}),
		embeddedDoc(2, "cooking", now, []float32{0, 1}),
	}}
	s := NewSearcher(store)
	ctx := context.Background()

	results, err := s.HybridSearch(ctx, "vector", []float32{1, 0}, 0.5, 0.5, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Document 1 appears in both legs: flat text weight plus graded semantic score
	assert.Equal(t, int64(1), results[0].Document.ID)
	assert.InDelta(t, 0.5, results[0].TextScore, 1e-9)
	assert.InDelta(t, 0.5, results[0].SemanticScore, 1e-6)
	assert.InDelta(t, 1.0, results[0].TotalScore, 1e-6)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestHybridSearchLimit(t *testing.T) {
	now := time.Now()
	var docs []storage.EmbeddedDocument
	for i := int64(1); i <= 10; i++ {
		docs = append(docs, embeddedDoc(i, "shared topic", now, []float32{1, float32(i) * 0.01}))
	}
	s := NewSearcher(&fakeStore{docs: docs})
	ctx := context.Background()

	results, err := s.HybridSearch(ctx, "shared", []float32{1, 0}, 0.5, 0.5, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestHybridSearchDimensionMismatchSurfaces(t *testing.T) {
	now := time.Now()
	store := &fakeStore{docs: []storage.EmbeddedDocument{
		embeddedDoc(1, "ok", now, []float32{1, 0, 0}),
	}}
	s := NewSearcher(store)
	ctx := context.Background()

	_, err := s.HybridSearch(ctx, "ok", []float32{1, 0}, 0.5, 0.5, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestHybridSearchInvalidInput(t *testing.T) {
	s := NewSearcher(threeDocCorpus())
	ctx := context.Background()

	_, err := s.HybridSearch(ctx, "", []float32{1, 0}, 0.5, 0.5, 5)
	assert.Error(t, err)

	_, err = s.HybridSearch(ctx, "query", nil, 0.5, 0.5, 5)
	assert.Error(t, err)
}
