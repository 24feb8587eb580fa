package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/docvault/docvault-mcp/pkg/types"
)

const (
	// DefaultTextLimit caps text search results when no limit is given
	DefaultTextLimit = 10
)

// likeEscaper escapes LIKE wildcards so search terms match literally
var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
)

// likePattern builds a case-insensitive substring pattern for a term
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// searchByTextWithQuerier runs a LIKE-based substring search over title and
// content. Results are ordered by recency (newest first), ties broken by id
// descending so ordering stays deterministic.
func (s *SQLiteStore) searchByTextWithQuerier(ctx context.Context, q querier, terms []string, op TermOperator, limit int) ([]types.Document, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("at least one search term is required")
	}
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			return nil, fmt.Errorf("search term cannot be empty")
		}
	}

	var joiner string
	switch op {
	case TermAND:
		joiner = " AND "
	case TermOR:
		joiner = " OR "
	default:
		return nil, fmt.Errorf("unsupported term operator %q", op)
	}

	if limit <= 0 {
		limit = DefaultTextLimit
	}

	conditions := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms)*2+1)
	for _, term := range terms {
		conditions = append(conditions, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`)
		pattern := likePattern(term)
		args = append(args, pattern, pattern)
	}

	query := "SELECT " + documentColumns + " FROM documents WHERE " +
		strings.Join(conditions, joiner) +
		" ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute text search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]types.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan text result: %w", err)
		}
		results = append(results, *doc)
	}

	return results, rows.Err()
}

// SearchByText matches a single term against title or content
func (s *SQLiteStore) SearchByText(ctx context.Context, term string, limit int) ([]types.Document, error) {
	return s.searchByTextWithQuerier(ctx, s.querier(), []string{term}, TermOR, limit)
}

func (t *sqliteTx) SearchByText(ctx context.Context, term string, limit int) ([]types.Document, error) {
	return t.store.searchByTextWithQuerier(ctx, t.querier(), []string{term}, TermOR, limit)
}

// SearchByTextAdvanced combines multiple terms with AND or OR semantics.
// AND requires every term to match in title or content, independently per
// term; OR requires at least one.
func (s *SQLiteStore) SearchByTextAdvanced(ctx context.Context, terms []string, op TermOperator, limit int) ([]types.Document, error) {
	return s.searchByTextWithQuerier(ctx, s.querier(), terms, op, limit)
}

func (t *sqliteTx) SearchByTextAdvanced(ctx context.Context, terms []string, op TermOperator, limit int) ([]types.Document, error) {
	return t.store.searchByTextWithQuerier(ctx, t.querier(), terms, op, limit)
}
