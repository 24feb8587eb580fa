// Package storage provides SQLite-based persistence for documents and their
// embedding vectors.
//
// Tables:
//   - documents: title, content, optional category and JSON tag list
//   - embeddings: one vector per document, stored as packed little-endian
//     float32 or as a JSON number array (the encoding column records which)
//
// Embeddings are decoded exactly once, at the store boundary; everything
// above this package works with []float32 and never sees raw blobs. A row
// whose embedding cannot be decoded is skipped with a logged warning during
// corpus reads and reported through Corpus.Malformed, so callers can
// distinguish an empty corpus from a fully corrupt one.
//
// # Build Tags
//
// The package supports two build configurations:
//
// Pure Go build (default, or purego tag):
//
//	CGO_ENABLED=0 go build -tags "purego" ./...
//
// uses modernc.org/sqlite and needs no C compiler.
//
// CGO build (cgo_sqlite tag):
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
//
// uses github.com/mattn/go-sqlite3.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("docvault.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	doc := &types.Document{Title: "Go Concurrency", Content: "..."}
//	if err := store.CreateDocument(ctx, doc); err != nil {
//	    return err
//	}
//
//	err = store.UpsertEmbedding(ctx, &storage.Embedding{
//	    DocumentID: doc.ID,
//	    Vector:     vector,
//	    Model:      "text-embedding-3-small",
//	})
//
//	corpus, err := store.ListEmbedded(ctx, nil)
package storage
