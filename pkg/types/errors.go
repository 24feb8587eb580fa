package types

import "errors"

// Domain errors
var (
	// ErrDimensionMismatch is returned when two vectors of unequal length are
	// compared. It signals a query/corpus model mismatch and is never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrMalformedEmbedding is returned when a stored embedding cannot be
	// decoded into a numeric vector
	ErrMalformedEmbedding = errors.New("malformed embedding")

	// Document validation errors
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrEmptyContent = errors.New("content cannot be empty")

	// Result validation errors
	ErrInvalidDocumentID = errors.New("invalid document ID")
	ErrInvalidDistance   = errors.New("distance must be >= 0")
)
