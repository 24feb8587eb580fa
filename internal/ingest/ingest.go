package ingest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault-mcp/internal/embedder"
	"github.com/docvault/docvault-mcp/internal/storage"
	"github.com/docvault/docvault-mcp/pkg/types"
)

// Draft is a document to ingest, before the store assigns an id
type Draft struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

// Config contains configuration for the ingestor
type Config struct {
	Workers   int // Number of concurrent batches (default: runtime.NumCPU())
	BatchSize int // Documents per embedding request and transaction (default: 20)
}

// Stats reports the outcome of an ingestion run
type Stats struct {
	DocumentsAdded  int
	DocumentsFailed int
	ErrorMessages   []string
	Duration        time.Duration
}

// Ingestor writes documents and their embeddings in batches: embed a batch,
// then persist it in one transaction
type Ingestor struct {
	store    storage.Store
	embedder embedder.Embedder
}

// New creates a new Ingestor
func New(store storage.Store, emb embedder.Embedder) *Ingestor {
	return &Ingestor{store: store, embedder: emb}
}

// IngestDocuments embeds and stores the drafts. A failed batch is recorded
// in the stats and does not abort the remaining batches; per-draft
// validation failures skip only the offending draft.
func (in *Ingestor) IngestDocuments(ctx context.Context, drafts []Draft, config *Config) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	if len(drafts) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}
	if in.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}

	workers := runtime.NumCPU()
	batchSize := 20
	if config != nil {
		if config.Workers > 0 {
			workers = config.Workers
		}
		if config.BatchSize > 0 {
			batchSize = config.BatchSize
		}
	}
	if batchSize > embedder.MaxBatchSize {
		batchSize = embedder.MaxBatchSize
	}

	var mu sync.Mutex // Protects stats
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < len(drafts); i += batchSize {
		end := i + batchSize
		if end > len(drafts) {
			end = len(drafts)
		}
		batch := drafts[i:end]

		g.Go(func() error {
			added, failed, errs := in.ingestBatch(gctx, batch)
			mu.Lock()
			stats.DocumentsAdded += added
			stats.DocumentsFailed += failed
			stats.ErrorMessages = append(stats.ErrorMessages, errs...)
			mu.Unlock()
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// ingestBatch embeds one batch and writes it transactionally
func (in *Ingestor) ingestBatch(ctx context.Context, batch []Draft) (added, failed int, errs []string) {
	// Drop invalid drafts up front so one bad draft doesn't sink the batch
	valid := make([]Draft, 0, len(batch))
	for _, draft := range batch {
		doc := types.Document{Title: draft.Title, Content: draft.Content}
		if err := doc.Validate(); err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("draft %q: %v", draft.Title, err))
			continue
		}
		valid = append(valid, draft)
	}
	if len(valid) == 0 {
		return added, failed, errs
	}

	texts := make([]string, len(valid))
	for i, draft := range valid {
		texts[i] = draft.Title + "\n\n" + draft.Content
	}

	embeddings, err := in.embedder.GenerateBatch(ctx, texts)
	if err != nil {
		failed += len(valid)
		errs = append(errs, fmt.Sprintf("batch embedding failed: %v", err))
		return added, failed, errs
	}

	tx, err := in.store.BeginTx(ctx)
	if err != nil {
		failed += len(valid)
		errs = append(errs, fmt.Sprintf("begin transaction failed: %v", err))
		return added, failed, errs
	}
	defer func() { _ = tx.Rollback() }()

	for i, draft := range valid {
		doc := &types.Document{
			Title:    draft.Title,
			Content:  draft.Content,
			Category: draft.Category,
			Tags:     draft.Tags,
		}
		if err := tx.CreateDocument(ctx, doc); err != nil {
			failed += len(valid)
			errs = append(errs, fmt.Sprintf("create document %q: %v", draft.Title, err))
			return added, failed, errs
		}

		emb := &storage.Embedding{
			DocumentID: doc.ID,
			Vector:     embeddings[i].Vector,
			Model:      embeddings[i].Model,
		}
		if err := tx.UpsertEmbedding(ctx, emb); err != nil {
			failed += len(valid)
			errs = append(errs, fmt.Sprintf("store embedding for %q: %v", draft.Title, err))
			return added, failed, errs
		}
	}

	if err := tx.Commit(); err != nil {
		failed += len(valid)
		errs = append(errs, fmt.Sprintf("commit failed: %v", err))
		return added, failed, errs
	}

	added = len(valid)
	return added, failed, errs
}
