package types

import "time"

// Document represents a stored document. IDs are assigned by the store;
// Category and Tags are optional metadata.
type Document struct {
	ID        int64
	Title     string
	Content   string
	Category  string   // Empty when unset
	Tags      []string // Nil when unset
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that a document is well-formed before storage
func (d *Document) Validate() error {
	if d.Title == "" {
		return ErrEmptyTitle
	}
	if d.Content == "" {
		return ErrEmptyContent
	}
	return nil
}
