// Package types defines the shared data types for document search.
//
// Core types:
//   - Document: a stored document with title, content, and optional metadata
//   - ScoredResult: a document scored against a query vector
//   - HybridResult: a scored result with text and semantic score components
//   - Cluster: a greedy similarity grouping of scored results
//   - FacetSummary: similarity-band and recency-band counts over a result set
//
// All result types are transient: they are computed fresh per query and are
// never persisted or mutated after construction.
//
// The package also defines the domain error taxonomy. ErrDimensionMismatch
// is a contract violation (fail fast, never retry); ErrMalformedEmbedding is
// a per-record data error (skip the record in bulk operations, fail only when
// every candidate is affected).
package types
