package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/docvault/docvault-mcp/pkg/types"
)

// textLeg holds the keyword half of a hybrid search
type textLeg struct {
	docs []types.Document
	err  error
}

// semanticLeg holds the vector half of a hybrid search
type semanticLeg struct {
	results []types.ScoredResult
	err     error
}

// HybridSearch merges keyword and vector similarity rankings into one list.
// Both legs run concurrently and are oversampled 2x before fusion.
//
// Fusion uses a weighted linear combination: every document found by text
// search contributes a flat textWeight (not graded by match quality), every
// document found by similarity search contributes similarity * semanticWeight,
// and totalScore is their sum. A text match contributes textWeight exactly
// once, no matter how many terms matched or where.
func (s *Searcher) HybridSearch(ctx context.Context, queryText string, queryVector []float32, textWeight, semanticWeight float64, limit int) ([]types.HybridResult, error) {
	if queryText == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	textChan := make(chan textLeg, 1)
	semanticChan := make(chan semanticLeg, 1)

	go func() {
		var leg textLeg
		leg.docs, leg.err = s.store.SearchByText(ctx, queryText, limit*hybridOversample)
		select {
		case textChan <- leg:
		case <-ctx.Done():
		}
	}()

	go func() {
		var leg semanticLeg
		leg.results, leg.err = s.SearchSimilar(ctx, queryVector, Options{Limit: limit * hybridOversample})
		select {
		case semanticChan <- leg:
		case <-ctx.Done():
		}
	}()

	var text textLeg
	var semantic semanticLeg
	var textDone, semanticDone bool
	for !textDone || !semanticDone {
		select {
		case text = <-textChan:
			textDone = true
		case semantic = <-semanticChan:
			semanticDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// A dimension mismatch (or any other leg failure) must surface to the
	// caller rather than degrade into a text-only ranking
	if text.err != nil {
		return nil, fmt.Errorf("text search failed: %w", text.err)
	}
	if semantic.err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", semantic.err)
	}

	merged := make(map[int64]*types.HybridResult, len(text.docs)+len(semantic.results))

	for _, doc := range text.docs {
		merged[doc.ID] = &types.HybridResult{
			ScoredResult: types.ScoredResult{Document: doc},
			TextScore:    textWeight,
		}
	}

	for _, res := range semantic.results {
		entry, ok := merged[res.Document.ID]
		if !ok {
			entry = &types.HybridResult{}
			merged[res.Document.ID] = entry
		}
		entry.ScoredResult = res
		entry.SemanticScore = res.Similarity * semanticWeight
	}

	results := make([]types.HybridResult, 0, len(merged))
	for _, entry := range merged {
		entry.TotalScore = entry.TextScore + entry.SemanticScore
		results = append(results, *entry)
	}

	// Descending total score, document id ascending on ties for determinism
	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if limit > len(results) {
		limit = len(results)
	}
	return results[:limit], nil
}
