package search

import (
	"context"
	"time"

	"github.com/docvault/docvault-mcp/pkg/types"
)

// Similarity band labels, checked in descending order; first match wins
const (
	bandHigh   = "0.9-1.0"
	bandUpper  = "0.7-0.9"
	bandMiddle = "0.5-0.7"
	bandLow    = "0.0-0.5"
)

// Recency band labels, checked from newest; first match wins
const (
	periodDay   = "last_day"
	periodWeek  = "last_week"
	periodMonth = "last_month"
	periodOlder = "older"
)

// SearchWithFacets runs a similarity search and bucket-counts the results by
// similarity band and by document age relative to call time. All bands are
// always present in the summary, including empty ones.
func (s *Searcher) SearchWithFacets(ctx context.Context, queryVector []float32, limit int) (*types.FacetedResults, error) {
	results, err := s.SearchSimilar(ctx, queryVector, Options{Limit: limit})
	if err != nil {
		return nil, err
	}

	return &types.FacetedResults{
		Results: results,
		Facets:  summarizeFacets(results, s.now()),
	}, nil
}

func summarizeFacets(results []types.ScoredResult, now time.Time) types.FacetSummary {
	similarityBands := []types.BandCount{
		{Range: bandHigh},
		{Range: bandUpper},
		{Range: bandMiddle},
		{Range: bandLow},
	}
	recencyBands := []types.PeriodCount{
		{Period: periodDay},
		{Period: periodWeek},
		{Period: periodMonth},
		{Period: periodOlder},
	}

	for _, res := range results {
		switch {
		case res.Similarity >= 0.9:
			similarityBands[0].Count++
		case res.Similarity >= 0.7:
			similarityBands[1].Count++
		case res.Similarity >= 0.5:
			similarityBands[2].Count++
		case res.Similarity >= 0.0:
			similarityBands[3].Count++
		}
		// Negative similarities fall outside every band

		age := now.Sub(res.Document.CreatedAt)
		switch {
		case age <= 24*time.Hour:
			recencyBands[0].Count++
		case age <= 7*24*time.Hour:
			recencyBands[1].Count++
		case age <= 30*24*time.Hour:
			recencyBands[2].Count++
		default:
			recencyBands[3].Count++
		}
	}

	return types.FacetSummary{
		SimilarityBands: similarityBands,
		RecencyBands:    recencyBands,
	}
}
