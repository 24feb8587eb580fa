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

func TestClusteringHighThresholdYieldsSingletons(t *testing.T) {
	s := NewSearcher(threeDocCorpus())
	ctx := context.Background()

	// No pair in the corpus reaches 0.99 similarity to each other
	clusters, err := s.SearchWithClustering(ctx, []float32{1, 0}, 3, 0.99)
	require.NoError(t, err)
	require.Len(t, clusters, 3)

	for i, cluster := range clusters {
		assert.Equal(t, i+1, cluster.ClusterID)
		assert.Len(t, cluster.Members, 1)
	}

	// Cluster seeds follow the ranked order
	assert.Equal(t, int64(1), clusters[0].Members[0].Document.ID)
	assert.Equal(t, int64(3), clusters[1].Members[0].Document.ID)
	assert.Equal(t, int64(2), clusters[2].Members[0].Document.ID)
}

func TestClusteringAbsorbsNearbyDocuments(t *testing.T) {
	s := NewSearcher(threeDocCorpus())
	ctx := context.Background()

	// cos([1,0],[0.7,0.7]) is about 0.707, above the 0.5 threshold, so the
	// diagonal document joins the aligned seed's cluster
	clusters, err := s.SearchWithClustering(ctx, []float32{1, 0}, 3, 0.5)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	require.Len(t, clusters[0].Members, 2)
	assert.Equal(t, int64(1), clusters[0].Members[0].Document.ID)
	assert.Equal(t, int64(3), clusters[0].Members[1].Document.ID)

	require.Len(t, clusters[1].Members, 1)
	assert.Equal(t, int64(2), clusters[1].Members[0].Document.ID)
}

func TestClusteringIsNotTransitive(t *testing.T) {
	now := time.Now()
	// b sits between a and c: similar to both, while a and c are not similar
	// to each other. Greedy seed-to-candidate absorption puts b in a's
	// cluster, leaving c alone even though cos(b,c) exceeds the threshold.
	store := &fakeStore{docs: []storage.EmbeddedDocument{
		embeddedDoc(1, "a", now, []float32{1, 0}),
		embeddedDoc(2, "b", now, []float32{0.8, 0.6}),
		embeddedDoc(3, "c", now, []float32{0.35, 0.937}),
	}}
	s := NewSearcher(store)
	ctx := context.Background()

	clusters, err := s.SearchWithClustering(ctx, []float32{1, 0}, 5, 0.75)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	assert.Equal(t, int64(1), clusters[0].Members[0].Document.ID)
	require.Len(t, clusters[0].Members, 2)
	assert.Equal(t, int64(2), clusters[0].Members[1].Document.ID)

	require.Len(t, clusters[1].Members, 1)
	assert.Equal(t, int64(3), clusters[1].Members[0].Document.ID)
}

func TestClusteringLimit(t *testing.T) {
	now := time.Now()
	var docs []storage.EmbeddedDocument
	// Mutually orthogonal-ish vectors so every document seeds its own cluster
	for i := int64(1); i <= 6; i++ {
		vec := make([]float32, 6)
		vec[i-1] = 1
		docs = append(docs, embeddedDoc(i, "doc", now, vec))
	}
	s := NewSearcher(&fakeStore{docs: docs})
	ctx := context.Background()

	query := make([]float32, 6)
	query[0] = 1

	clusters, err := s.SearchWithClustering(ctx, query, 2, 0.9)
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestClusteringEmptyCorpus(t *testing.T) {
	s := NewSearcher(&fakeStore{})
	ctx := context.Background()

	clusters, err := s.SearchWithClustering(ctx, []float32{1, 0}, 3, 0.5)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClusteringMembersAreScoredResults(t *testing.T) {
	s := NewSearcher(threeDocCorpus())
	ctx := context.Background()

	clusters, err := s.SearchWithClustering(ctx, []float32{1, 0}, 3, 0.99)
	require.NoError(t, err)
	require.NotEmpty(t, clusters)

	var all []types.ScoredResult
	for _, cluster := range clusters {
		all = append(all, cluster.Members...)
	}
	require.Len(t, all, 3)
	assert.InDelta(t, 1.0, all[0].Similarity, 1e-6)
}
