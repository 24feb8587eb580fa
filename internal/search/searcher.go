package search

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault-mcp/internal/storage"
	"github.com/docvault/docvault-mcp/internal/vectormath"
	"github.com/docvault/docvault-mcp/pkg/types"
)

// Mode selects the similarity measure used for ranking
type Mode string

const (
	// ModeCosine ranks by cosine similarity (default); distance = 1 - similarity
	ModeCosine Mode = "cosine"
	// ModeEuclidean ranks by euclidean distance; similarity = 1 / (1 + distance)
	ModeEuclidean Mode = "euclidean"
)

const (
	// DefaultLimit is used when a caller passes a non-positive limit
	DefaultLimit = 5

	// hybridOversample widens both hybrid legs so fusion has enough
	// candidates before truncation
	hybridOversample = 2

	// clusterOversample widens the ranked list fed to greedy clustering
	clusterOversample = 3
)

// Filters narrows the candidate set for similarity search
type Filters struct {
	// Since and Until bound document creation time; both inclusive, zero is open
	Since time.Time
	Until time.Time

	// MinSimilarity discards results below the threshold when > 0. The filter
	// applies to the similarity field, not distance.
	MinSimilarity float64

	// MaxResults caps the result count when > 0, overriding a larger limit
	MaxResults int
}

// Options configures a similarity search
type Options struct {
	Limit   int  // defaults to DefaultLimit
	Mode    Mode // defaults to ModeCosine
	Filters *Filters
}

// normalize applies defaults and rejects unknown modes
func (o *Options) normalize() error {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Mode == "" {
		o.Mode = ModeCosine
	}
	if o.Mode != ModeCosine && o.Mode != ModeEuclidean {
		return fmt.Errorf("unsupported search mode: %s", o.Mode)
	}
	return nil
}

// Searcher ranks stored documents against query vectors and query text.
// Every call reads a fresh corpus snapshot from the store and computes a pure
// function of that snapshot plus its inputs; nothing is cached between calls.
type Searcher struct {
	store   storage.Store
	workers int
	now     func() time.Time // injectable for recency faceting tests
}

// NewSearcher creates a new Searcher backed by the given store
func NewSearcher(store storage.Store) *Searcher {
	return &Searcher{
		store:   store,
		workers: runtime.GOMAXPROCS(0),
		now:     time.Now,
	}
}

// scoredDoc keeps the candidate vector alongside the scored result so
// clustering can compute pairwise similarities without re-reading the store
type scoredDoc struct {
	result types.ScoredResult
	vector []float32
}

// SearchSimilar scores every stored document against the query vector, sorts
// descending by similarity (ties broken by document id ascending), and
// truncates to the effective limit. A dimension mismatch on any candidate
// fails the whole call: a silent skip would hide a corpus/model mismatch.
func (s *Searcher) SearchSimilar(ctx context.Context, queryVector []float32, opts Options) ([]types.ScoredResult, error) {
	ranked, err := s.rankCorpus(ctx, queryVector, opts)
	if err != nil {
		return nil, err
	}

	results := make([]types.ScoredResult, len(ranked))
	for i, sd := range ranked {
		results[i] = sd.result
	}
	return results, nil
}

// rankCorpus is the shared scan-score-sort-truncate pipeline behind
// SearchSimilar, clustering, and faceting
func (s *Searcher) rankCorpus(ctx context.Context, queryVector []float32, opts Options) ([]scoredDoc, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	var dateRange *storage.DateRange
	if f := opts.Filters; f != nil && (!f.Since.IsZero() || !f.Until.IsZero()) {
		dateRange = &storage.DateRange{Since: f.Since, Until: f.Until}
	}

	corpus, err := s.store.ListEmbedded(ctx, dateRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	if len(corpus.Documents) == 0 {
		// An empty result is a valid outcome, but an empty result caused by
		// every candidate being undecodable is an ambiguous signal; fail loudly.
		if corpus.Malformed > 0 {
			return nil, fmt.Errorf("%w: all %d candidate embeddings are malformed",
				types.ErrMalformedEmbedding, corpus.Malformed)
		}
		return nil, nil
	}

	scored, err := s.scoreCandidates(ctx, queryVector, corpus.Documents, opts.Mode)
	if err != nil {
		return nil, err
	}

	if f := opts.Filters; f != nil && f.MinSimilarity > 0 {
		filtered := scored[:0]
		for _, sd := range scored {
			if sd.result.Similarity >= f.MinSimilarity {
				filtered = append(filtered, sd)
			}
		}
		scored = filtered
	}

	// Descending similarity; ties broken by document id ascending so ranking
	// stays deterministic regardless of store iteration order
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].result.Similarity != scored[j].result.Similarity {
			return scored[i].result.Similarity > scored[j].result.Similarity
		}
		return scored[i].result.Document.ID < scored[j].result.Document.ID
	})

	limit := opts.Limit
	if f := opts.Filters; f != nil && f.MaxResults > 0 && f.MaxResults < limit {
		limit = f.MaxResults
	}
	if limit > len(scored) {
		limit = len(scored)
	}

	return scored[:limit], nil
}

// scoreCandidates computes similarity and distance for every candidate. Each
// candidate's score is independent, so the loop is split across workers; the
// output slice is indexed by candidate position to keep results deterministic.
func (s *Searcher) scoreCandidates(ctx context.Context, queryVector []float32, candidates []storage.EmbeddedDocument, mode Mode) ([]scoredDoc, error) {
	scored := make([]scoredDoc, len(candidates))

	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	chunkSize := (len(candidates) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(candidates); start += chunkSize {
		end := start + chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}

		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				cand := candidates[i]
				var similarity, distance float64
				switch mode {
				case ModeEuclidean:
					d, err := vectormath.EuclideanDistance(queryVector, cand.Vector)
					if err != nil {
						return fmt.Errorf("document %d: %w", cand.Document.ID, err)
					}
					distance = d
					similarity = 1 / (1 + d)
				default:
					sim, err := vectormath.CosineSimilarity(queryVector, cand.Vector)
					if err != nil {
						return fmt.Errorf("document %d: %w", cand.Document.ID, err)
					}
					similarity = sim
					distance = 1 - sim
				}

				scored[i] = scoredDoc{
					result: types.ScoredResult{
						Document:   cand.Document,
						Similarity: similarity,
						Distance:   distance,
					},
					vector: cand.Vector,
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scored, nil
}

// SearchByText matches a single term against title or content,
// case-insensitive, ordered by recency descending
func (s *Searcher) SearchByText(ctx context.Context, term string, limit int) ([]types.Document, error) {
	return s.store.SearchByText(ctx, term, limit)
}

// SearchByTextAdvanced combines multiple terms with AND or OR semantics
func (s *Searcher) SearchByTextAdvanced(ctx context.Context, terms []string, op storage.TermOperator, limit int) ([]types.Document, error) {
	return s.store.SearchByTextAdvanced(ctx, terms, op, limit)
}
