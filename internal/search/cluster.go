package search

import (
	"context"
	"fmt"

	"github.com/docvault/docvault-mcp/internal/vectormath"
	"github.com/docvault/docvault-mcp/pkg/types"
)

// SearchWithClustering groups the top-ranked results into similarity
// clusters. The ranked list is oversampled 3x, then walked greedily: each
// unprocessed document seeds a new cluster and absorbs every later
// unprocessed document whose cosine similarity TO THE SEED exceeds the
// threshold. Clustering stops once limit clusters exist or candidates run out.
//
// Membership is seed-to-candidate only, not transitive: two documents can
// land in different clusters even if each exceeds the threshold against a
// third. Cluster shapes therefore depend on ranked-list order. Keep it that
// way; connected-component clustering is a different contract.
func (s *Searcher) SearchWithClustering(ctx context.Context, queryVector []float32, limit int, similarityThreshold float64) ([]types.Cluster, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked, err := s.rankCorpus(ctx, queryVector, Options{Limit: limit * clusterOversample})
	if err != nil {
		return nil, err
	}

	clusters := make([]types.Cluster, 0, limit)
	processed := make([]bool, len(ranked))

	for i := range ranked {
		if processed[i] {
			continue
		}
		if len(clusters) == limit {
			break
		}
		processed[i] = true

		cluster := types.Cluster{
			ClusterID: len(clusters) + 1,
			Members:   []types.ScoredResult{ranked[i].result},
		}
		seed := ranked[i].vector

		for j := i + 1; j < len(ranked); j++ {
			if processed[j] {
				continue
			}
			similarity, err := vectormath.CosineSimilarity(seed, ranked[j].vector)
			if err != nil {
				return nil, fmt.Errorf("documents %d and %d: %w",
					ranked[i].result.Document.ID, ranked[j].result.Document.ID, err)
			}
			if similarity > similarityThreshold {
				processed[j] = true
				cluster.Members = append(cluster.Members, ranked[j].result)
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters, nil
}
