package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/docvault/docvault-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStore) querier() querier {
	return s.db
}

// marshalTags encodes a tag list as JSON text, NULL when empty
func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalTags decodes the JSON tag column, nil when NULL
func unmarshalTags(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

// nullableString maps "" to NULL
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Document operations

func (s *SQLiteStore) createDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	tags, err := marshalTags(doc.Tags)
	if err != nil {
		return err
	}

	now := time.Now()
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO documents (title, content, category, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		doc.Title, doc.Content, nullableString(doc.Category), tags, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	doc.ID = id
	doc.CreatedAt = createdAt
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	return s.createDocumentWithQuerier(ctx, s.querier(), doc)
}

func (t *sqliteTx) CreateDocument(ctx context.Context, doc *types.Document) error {
	return t.store.createDocumentWithQuerier(ctx, t.querier(), doc)
}

func scanDocument(row interface{ Scan(...interface{}) error }) (*types.Document, error) {
	var doc types.Document
	var category, tags sql.NullString
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &category, &tags, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Category = category.String
	decoded, err := unmarshalTags(tags)
	if err != nil {
		return nil, err
	}
	doc.Tags = decoded
	return &doc, nil
}

const documentColumns = "id, title, content, category, tags, created_at, updated_at"

func (s *SQLiteStore) getDocumentWithQuerier(ctx context.Context, q querier, id int64) (*types.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE id = ?"
	doc, err := scanDocument(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), id)
}

func (t *sqliteTx) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	return t.store.getDocumentWithQuerier(ctx, t.querier(), id)
}

func (s *SQLiteStore) updateDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	tags, err := marshalTags(doc.Tags)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `
		UPDATE documents
		SET title = ?, content = ?, category = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		doc.Title, doc.Content, nullableString(doc.Category), tags, now, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("document %d: %w", doc.ID, ErrNotFound)
	}
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *types.Document) error {
	return s.updateDocumentWithQuerier(ctx, s.querier(), doc)
}

func (t *sqliteTx) UpdateDocument(ctx context.Context, doc *types.Document) error {
	return t.store.updateDocumentWithQuerier(ctx, t.querier(), doc)
}

func (s *SQLiteStore) deleteDocumentWithQuerier(ctx context.Context, q querier, id int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), id)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, id int64) error {
	return t.store.deleteDocumentWithQuerier(ctx, t.querier(), id)
}

// Embedding operations

func (s *SQLiteStore) upsertEmbeddingWithQuerier(ctx context.Context, q querier, emb *Embedding) error {
	if len(emb.Vector) == 0 {
		return fmt.Errorf("%w: empty vector", types.ErrMalformedEmbedding)
	}

	encoding := emb.Encoding
	if encoding == "" {
		encoding = EncodingFloat32LE
	}

	blob, err := EncodeVector(emb.Vector, encoding)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `
		INSERT INTO embeddings (document_id, vector, encoding, dimension, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			vector = excluded.vector,
			encoding = excluded.encoding,
			dimension = excluded.dimension,
			model = excluded.model
	`
	if _, err := q.ExecContext(ctx, query,
		emb.DocumentID, blob, string(encoding), len(emb.Vector), nullableString(emb.Model), now); err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	emb.Encoding = encoding
	emb.Dimension = len(emb.Vector)
	return nil
}

func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, emb *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), emb)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, emb *Embedding) error {
	return t.store.upsertEmbeddingWithQuerier(ctx, t.querier(), emb)
}

func (s *SQLiteStore) getEmbeddingWithQuerier(ctx context.Context, q querier, documentID int64) (*Embedding, error) {
	query := `
		SELECT document_id, vector, encoding, dimension, model, created_at
		FROM embeddings
		WHERE document_id = ?
	`
	var emb Embedding
	var blob []byte
	var encoding string
	var model sql.NullString
	err := q.QueryRowContext(ctx, query, documentID).Scan(
		&emb.DocumentID, &blob, &encoding, &emb.Dimension, &model, &emb.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("embedding for document %d: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	emb.Encoding = Encoding(encoding)
	emb.Model = model.String
	vector, err := DecodeVector(blob, emb.Encoding)
	if err != nil {
		return nil, fmt.Errorf("document %d: %w", documentID, err)
	}
	emb.Vector = vector
	return &emb, nil
}

func (s *SQLiteStore) GetEmbedding(ctx context.Context, documentID int64) (*Embedding, error) {
	return s.getEmbeddingWithQuerier(ctx, s.querier(), documentID)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, documentID int64) (*Embedding, error) {
	return t.store.getEmbeddingWithQuerier(ctx, t.querier(), documentID)
}

func (s *SQLiteStore) deleteEmbeddingWithQuerier(ctx context.Context, q querier, documentID int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM embeddings WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteEmbedding(ctx context.Context, documentID int64) error {
	return s.deleteEmbeddingWithQuerier(ctx, s.querier(), documentID)
}

func (t *sqliteTx) DeleteEmbedding(ctx context.Context, documentID int64) error {
	return t.store.deleteEmbeddingWithQuerier(ctx, t.querier(), documentID)
}

// Corpus reads

func (s *SQLiteStore) listEmbeddedWithQuerier(ctx context.Context, q querier, dateRange *DateRange) (*Corpus, error) {
	query := `
		SELECT d.id, d.title, d.content, d.category, d.tags, d.created_at, d.updated_at,
		       e.vector, e.encoding
		FROM documents d
		INNER JOIN embeddings e ON d.id = e.document_id
		WHERE 1=1
	`
	args := []interface{}{}
	if dateRange != nil {
		if !dateRange.Since.IsZero() {
			query += " AND d.created_at >= ?"
			args = append(args, dateRange.Since)
		}
		if !dateRange.Until.IsZero() {
			query += " AND d.created_at <= ?"
			args = append(args, dateRange.Until)
		}
	}
	query += " ORDER BY d.id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus: %w", err)
	}
	defer func() { _ = rows.Close() }()

	corpus := &Corpus{}
	for rows.Next() {
		var doc types.Document
		var category, tags sql.NullString
		var blob []byte
		var encoding string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &category, &tags,
			&doc.CreatedAt, &doc.UpdatedAt, &blob, &encoding); err != nil {
			return nil, fmt.Errorf("failed to scan corpus row: %w", err)
		}

		doc.Category = category.String
		decoded, err := unmarshalTags(tags)
		if err != nil {
			return nil, err
		}
		doc.Tags = decoded

		vector, err := DecodeVector(blob, Encoding(encoding))
		if err != nil {
			// A single corrupt row must not block results for the rest of the
			// corpus. Callers can tell "empty" from "all malformed" via the count.
			log.Printf("WARNING: skipping document %d: %v", doc.ID, err)
			corpus.Malformed++
			continue
		}

		corpus.Documents = append(corpus.Documents, EmbeddedDocument{Document: doc, Vector: vector})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return corpus, nil
}

func (s *SQLiteStore) ListEmbedded(ctx context.Context, dateRange *DateRange) (*Corpus, error) {
	return s.listEmbeddedWithQuerier(ctx, s.querier(), dateRange)
}

func (t *sqliteTx) ListEmbedded(ctx context.Context, dateRange *DateRange) (*Corpus, error) {
	return t.store.listEmbeddedWithQuerier(ctx, t.querier(), dateRange)
}

func (s *SQLiteStore) getEmbeddedWithQuerier(ctx context.Context, q querier, id int64) (*EmbeddedDocument, error) {
	doc, err := s.getDocumentWithQuerier(ctx, q, id)
	if err != nil {
		return nil, err
	}
	emb, err := s.getEmbeddingWithQuerier(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return &EmbeddedDocument{Document: *doc, Vector: emb.Vector}, nil
}

func (s *SQLiteStore) GetEmbedded(ctx context.Context, id int64) (*EmbeddedDocument, error) {
	return s.getEmbeddedWithQuerier(ctx, s.querier(), id)
}

func (t *sqliteTx) GetEmbedded(ctx context.Context, id int64) (*EmbeddedDocument, error) {
	return t.store.getEmbeddedWithQuerier(ctx, t.querier(), id)
}

// Status operations

func (s *SQLiteStore) getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{}

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&status.DocumentCount); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&status.EmbeddingCount); err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}

	rows, err := q.QueryContext(ctx, "SELECT DISTINCT model FROM embeddings WHERE model IS NOT NULL ORDER BY model")
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var model string
		if err := rows.Scan(&model); err != nil {
			return nil, err
		}
		status.Models = append(status.Models, model)
	}

	return status, rows.Err()
}

func (s *SQLiteStore) GetStatus(ctx context.Context) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier())
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return t.store.getStatusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
