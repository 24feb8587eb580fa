// Package search implements the ranking engine over the document corpus:
// brute-force vector similarity, substring text matching, hybrid score
// fusion, greedy similarity clustering, and facet summaries.
//
// Every operation is a pure function of (query, corpus snapshot, parameters):
// each call reads the corpus once from the store, computes in memory, and
// returns transient result structures. Nothing is cached between calls, so
// results always reflect the store at call time. The per-candidate scoring
// loop is the only parallel section; the merge and sort steps stay sequential
// and deterministic (ties always break by document id ascending).
//
// Similarity search is a full corpus scan, O(N*D) per call. That is
// intentional for small corpora; an approximate-nearest-neighbor index could
// replace the scan behind the same contract as long as exact ties keep their
// deterministic order.
//
// # Basic Usage
//
//	s := search.NewSearcher(store)
//
//	results, err := s.SearchSimilar(ctx, queryVector, search.Options{
//	    Limit: 10,
//	    Mode:  search.ModeCosine,
//	})
//
//	hybrid, err := s.HybridSearch(ctx, "go concurrency", queryVector, 0.3, 0.7, 10)
//
//	clusters, err := s.SearchWithClustering(ctx, queryVector, 5, 0.8)
//
//	faceted, err := s.SearchWithFacets(ctx, queryVector, 20)
//
// # Error behavior
//
// A dimension mismatch between the query vector and any candidate fails the
// whole call with types.ErrDimensionMismatch: it signals an embedding-model
// change that requires re-embedding the corpus, and skipping the bad rows
// would hide that. Malformed (undecodable) embeddings are the opposite case:
// the store skips them per record with a warning, and search only fails when
// every candidate was malformed. An empty result list is never an error.
package search
