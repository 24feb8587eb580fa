package storage

import (
	"context"
	"time"

	"github.com/docvault/docvault-mcp/pkg/types"
)

// TermOperator combines multiple terms in advanced text search
type TermOperator string

const (
	// TermAND requires every term to match (in title or content, independently per term)
	TermAND TermOperator = "AND"
	// TermOR requires at least one term to match
	TermOR TermOperator = "OR"
)

// Store defines the interface for persisting and querying documents and embeddings
type Store interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, id int64) (*types.Document, error)
	UpdateDocument(ctx context.Context, doc *types.Document) error
	DeleteDocument(ctx context.Context, id int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, emb *Embedding) error
	GetEmbedding(ctx context.Context, documentID int64) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, documentID int64) error

	// Corpus reads for search
	ListEmbedded(ctx context.Context, dateRange *DateRange) (*Corpus, error)
	GetEmbedded(ctx context.Context, id int64) (*EmbeddedDocument, error)

	// Text search (case-insensitive substring match over title and content)
	SearchByText(ctx context.Context, term string, limit int) ([]types.Document, error)
	SearchByTextAdvanced(ctx context.Context, terms []string, op TermOperator, limit int) ([]types.Document, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// Embedding represents a stored embedding for a document. Vector is the
// decoded form; Encoding records how it is persisted.
type Embedding struct {
	DocumentID int64
	Vector     []float32
	Encoding   Encoding
	Dimension  int
	Model      string
	CreatedAt  time.Time
}

// EmbeddedDocument pairs a document with its decoded embedding vector
type EmbeddedDocument struct {
	Document types.Document
	Vector   []float32
}

// Corpus is a point-in-time snapshot of all documents that carry an
// embedding. Malformed counts rows whose embeddings could not be decoded;
// those rows are excluded from Documents.
type Corpus struct {
	Documents []EmbeddedDocument
	Malformed int
}

// DateRange filters documents by creation time. Both bounds are inclusive;
// a zero bound is open.
type DateRange struct {
	Since time.Time
	Until time.Time
}

// Status contains statistics about the document store
type Status struct {
	DocumentCount  int
	EmbeddingCount int
	Models         []string
}
