package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault-mcp/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func addDocument(t *testing.T, store *SQLiteStore, title, content string, createdAt time.Time, vector []float32) *types.Document {
	t.Helper()
	ctx := context.Background()

	doc := &types.Document{Title: title, Content: content, CreatedAt: createdAt}
	require.NoError(t, store.CreateDocument(ctx, doc))

	if vector != nil {
		require.NoError(t, store.UpsertEmbedding(ctx, &Embedding{
			DocumentID: doc.ID,
			Vector:     vector,
		}))
	}
	return doc
}

func TestDocumentCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &types.Document{
		Title:    "Go Concurrency Patterns",
		Content:  "Pipelines and cancellation with goroutines and channels.",
		Category: "programming",
		Tags:     []string{"go", "concurrency"},
	}
	require.NoError(t, store.CreateDocument(ctx, doc))
	require.NotZero(t, doc.ID)

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, "programming", got.Category)
	assert.Equal(t, []string{"go", "concurrency"}, got.Tags)

	got.Title = "Go Concurrency Patterns, revised"
	got.Tags = nil
	require.NoError(t, store.UpdateDocument(ctx, got))

	updated, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency Patterns, revised", updated.Title)
	assert.Nil(t, updated.Tags)

	require.NoError(t, store.DeleteDocument(ctx, doc.ID))
	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.CreateDocument(ctx, &types.Document{Content: "no title"})
	assert.ErrorIs(t, err, types.ErrEmptyTitle)

	err = store.CreateDocument(ctx, &types.Document{Title: "no content"})
	assert.ErrorIs(t, err, types.ErrEmptyContent)
}

func TestEmbeddingUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := addDocument(t, store, "doc", "content", time.Time{}, nil)

	vector := []float32{0.25, -1.5, 3.0}
	require.NoError(t, store.UpsertEmbedding(ctx, &Embedding{
		DocumentID: doc.ID,
		Vector:     vector,
		Model:      "test-model",
	}))

	emb, err := store.GetEmbedding(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, vector, emb.Vector)
	assert.Equal(t, EncodingFloat32LE, emb.Encoding)
	assert.Equal(t, 3, emb.Dimension)
	assert.Equal(t, "test-model", emb.Model)

	// Upsert replaces the existing vector
	replacement := []float32{9, 9}
	require.NoError(t, store.UpsertEmbedding(ctx, &Embedding{
		DocumentID: doc.ID,
		Vector:     replacement,
		Encoding:   EncodingJSON,
	}))

	emb, err = store.GetEmbedding(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, replacement, emb.Vector)
	assert.Equal(t, EncodingJSON, emb.Encoding)
	assert.Equal(t, 2, emb.Dimension)
}

func TestListEmbedded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := addDocument(t, store, "old", "old content", now.AddDate(0, 0, -30), []float32{1, 0})
	recent := addDocument(t, store, "recent", "recent content", now.AddDate(0, 0, -1), []float32{0, 1})
	addDocument(t, store, "no embedding", "ignored", now, nil)

	corpus, err := store.ListEmbedded(ctx, nil)
	require.NoError(t, err)
	require.Len(t, corpus.Documents, 2)
	assert.Zero(t, corpus.Malformed)

	// Snapshot is ordered by document id
	assert.Equal(t, old.ID, corpus.Documents[0].Document.ID)
	assert.Equal(t, recent.ID, corpus.Documents[1].Document.ID)
	assert.Equal(t, []float32{1, 0}, corpus.Documents[0].Vector)

	// Date range bounds are inclusive
	corpus, err = store.ListEmbedded(ctx, &DateRange{Since: now.AddDate(0, 0, -7)})
	require.NoError(t, err)
	require.Len(t, corpus.Documents, 1)
	assert.Equal(t, recent.ID, corpus.Documents[0].Document.ID)

	corpus, err = store.ListEmbedded(ctx, &DateRange{Until: now.AddDate(0, 0, -7)})
	require.NoError(t, err)
	require.Len(t, corpus.Documents, 1)
	assert.Equal(t, old.ID, corpus.Documents[0].Document.ID)

	corpus, err = store.ListEmbedded(ctx, &DateRange{
		Since: old.CreatedAt,
		Until: old.CreatedAt,
	})
	require.NoError(t, err)
	require.Len(t, corpus.Documents, 1)
	assert.Equal(t, old.ID, corpus.Documents[0].Document.ID)
}

func TestListEmbeddedSkipsMalformed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	good := addDocument(t, store, "good", "content", time.Time{}, []float32{1, 2, 3})
	bad := addDocument(t, store, "bad", "content", time.Time{}, nil)

	// Corrupt row written directly: blob length not divisible by 4
	_, err := store.db.ExecContext(ctx,
		"INSERT INTO embeddings (document_id, vector, encoding, dimension) VALUES (?, ?, ?, ?)",
		bad.ID, []byte{1, 2, 3}, string(EncodingFloat32LE), 3)
	require.NoError(t, err)

	corpus, err := store.ListEmbedded(ctx, nil)
	require.NoError(t, err)
	require.Len(t, corpus.Documents, 1)
	assert.Equal(t, good.ID, corpus.Documents[0].Document.ID)
	assert.Equal(t, 1, corpus.Malformed)

	// Single-document read fails loudly instead of skipping
	_, err = store.GetEmbedding(ctx, bad.ID)
	assert.ErrorIs(t, err, types.ErrMalformedEmbedding)
}

func TestGetEmbedded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := addDocument(t, store, "doc", "content", time.Time{}, []float32{0.5, 0.5})

	embedded, err := store.GetEmbedded(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, embedded.Document.ID)
	assert.Equal(t, []float32{0.5, 0.5}, embedded.Vector)

	_, err = store.GetEmbedded(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := addDocument(t, store, "a", "b", time.Time{}, nil)
	addDocument(t, store, "c", "d", time.Time{}, nil)
	require.NoError(t, store.UpsertEmbedding(ctx, &Embedding{
		DocumentID: doc.ID,
		Vector:     []float32{1},
		Model:      "test-model",
	}))

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.DocumentCount)
	assert.Equal(t, 1, status.EmbeddingCount)
	assert.Equal(t, []string{"test-model"}, status.Models)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	doc := &types.Document{Title: "transient", Content: "rolled back"}
	require.NoError(t, tx.CreateDocument(ctx, doc))
	require.NoError(t, tx.Rollback())

	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionSatisfiesStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	// Nesting is rejected rather than silently joining the outer transaction
	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)

	// Closing a transaction must not close the underlying connection
	require.NoError(t, tx.Close())
	require.NoError(t, tx.Rollback())

	doc := &types.Document{Title: "still open", Content: "connection survives tx close"}
	require.NoError(t, store.CreateDocument(ctx, doc))
}
