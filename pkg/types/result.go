package types

// ScoredResult pairs a document with its similarity to a query vector.
// Similarity and Distance are two views of the same comparison: for cosine
// mode distance = 1 - similarity; for euclidean mode similarity = 1 / (1 + distance).
type ScoredResult struct {
	Document   Document
	Similarity float64
	Distance   float64
}

// HybridResult extends ScoredResult with the per-leg scores from hybrid
// search. TotalScore = TextScore + SemanticScore.
type HybridResult struct {
	ScoredResult

	TextScore     float64
	SemanticScore float64
	TotalScore    float64
}

// Cluster is a group of scored results whose members all exceed the
// clustering threshold against the cluster's seed (the first member).
type Cluster struct {
	ClusterID int
	Members   []ScoredResult
}

// BandCount is the number of results whose similarity falls within a band
type BandCount struct {
	Range string
	Count int
}

// PeriodCount is the number of results whose age falls within a period
type PeriodCount struct {
	Period string
	Count  int
}

// FacetSummary holds bucket counts over a result set
type FacetSummary struct {
	SimilarityBands []BandCount
	RecencyBands    []PeriodCount
}

// FacetedResults bundles a ranked result list with its facet counts
type FacetedResults struct {
	Results []ScoredResult
	Facets  FacetSummary
}

// Validate checks if the scored result is valid
func (sr *ScoredResult) Validate() error {
	if sr.Document.ID == 0 {
		return ErrInvalidDocumentID
	}
	if sr.Distance < 0 {
		return ErrInvalidDistance
	}
	return nil
}
