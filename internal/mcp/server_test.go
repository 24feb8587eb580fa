package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault-mcp/internal/embedder"
	"github.com/docvault/docvault-mcp/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb, err := embedder.NewMockProvider(embedder.NewCache(embedder.DefaultCacheSize))
	require.NoError(t, err)

	return newServer(store, emb)
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &parsed))
	return parsed
}

func addTestDocument(t *testing.T, s *Server, title, content string) int64 {
	t.Helper()
	result, err := s.handleAddDocument(context.Background(), callRequest(map[string]interface{}{
		"title":   title,
		"content": content,
	}))
	require.NoError(t, err)
	parsed := resultJSON(t, result)
	return int64(parsed["id"].(float64))
}

func TestServerInitialization(t *testing.T) {
	t.Run("custom path creates directory", func(t *testing.T) {
		t.Setenv(embedder.EnvProvider, embedder.ProviderMock)

		server, err := NewServer(t.TempDir())
		require.NoError(t, err)
		defer server.storage.Close()

		assert.NotNil(t, server.mcp)
		assert.NotNil(t, server.searcher)
		assert.NotNil(t, server.ingestor)
	})
}

func TestAddAndGetDocument(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	id := addTestDocument(t, s, "greeting", "hello world")
	require.Positive(t, id)

	result, err := s.handleGetDocument(ctx, callRequest(map[string]interface{}{
		"id": float64(id),
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, "greeting", parsed["title"])
	assert.Equal(t, "hello world", parsed["content"])
}

func TestAddDocumentValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleAddDocument(ctx, callRequest(map[string]interface{}{
		"content": "no title",
	}))
	requireMCPCode(t, err, ErrorCodeInvalidParams)

	_, err = s.handleAddDocument(ctx, callRequest(map[string]interface{}{
		"title": "no content",
	}))
	requireMCPCode(t, err, ErrorCodeInvalidParams)
}

func TestAddDocuments(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleAddDocuments(ctx, callRequest(map[string]interface{}{
		"documents": []interface{}{
			map[string]interface{}{"title": "a", "content": "first"},
			map[string]interface{}{"title": "b", "content": "second"},
			map[string]interface{}{"title": "c", "content": "third"},
		},
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(3), parsed["added"])
	assert.Equal(t, float64(0), parsed["failed"])

	status, err := s.handleGetStatus(ctx, callRequest(nil))
	require.NoError(t, err)
	statusParsed := resultJSON(t, status)
	assert.Equal(t, float64(3), statusParsed["document_count"])
	assert.Equal(t, float64(3), statusParsed["embedding_count"])
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleGetDocument(context.Background(), callRequest(map[string]interface{}{
		"id": float64(9999),
	}))
	requireMCPCode(t, err, ErrorCodeDocumentNotFound)
}

func TestDeleteDocument(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	id := addTestDocument(t, s, "ephemeral", "soon gone")

	result, err := s.handleDeleteDocument(ctx, callRequest(map[string]interface{}{
		"id": float64(id),
	}))
	require.NoError(t, err)
	parsed := resultJSON(t, result)
	assert.Equal(t, true, parsed["deleted"])

	_, err = s.handleGetDocument(ctx, callRequest(map[string]interface{}{
		"id": float64(id),
	}))
	requireMCPCode(t, err, ErrorCodeDocumentNotFound)
}

func TestSearchSimilar(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	addTestDocument(t, s, "go routines", "goroutines and channels")
	addTestDocument(t, s, "cooking", "how to bake bread")

	// The mock embedder is deterministic, so a query equal to the stored
	// title+content text reproduces that document's vector exactly
	result, err := s.handleSearchSimilar(ctx, callRequest(map[string]interface{}{
		"query": "go routines\n\ngoroutines and channels",
		"limit": float64(5),
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(2), parsed["count"])

	results := parsed["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "go routines", first["title"])
	assert.InDelta(t, 1.0, first["similarity"].(float64), 1e-6)
}

func TestSearchSimilarEmptyCorpus(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSearchSimilar(context.Background(), callRequest(map[string]interface{}{
		"query": "anything",
	}))
	require.NoError(t, err)
	assert.Equal(t, emptyResultMessage, resultText(t, result))
}

func TestSearchSimilarValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleSearchSimilar(ctx, callRequest(map[string]interface{}{}))
	requireMCPCode(t, err, ErrorCodeEmptyQuery)

	_, err = s.handleSearchSimilar(ctx, callRequest(map[string]interface{}{
		"query": "x",
		"limit": float64(0),
	}))
	requireMCPCode(t, err, ErrorCodeInvalidParams)

	_, err = s.handleSearchSimilar(ctx, callRequest(map[string]interface{}{
		"query": "x",
		"mode":  "manhattan",
	}))
	requireMCPCode(t, err, ErrorCodeInvalidParams)

	_, err = s.handleSearchSimilar(ctx, callRequest(map[string]interface{}{
		"query": "x",
		"since": "not-a-timestamp",
	}))
	requireMCPCode(t, err, ErrorCodeInvalidParams)
}

func TestSearchText(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	addTestDocument(t, s, "Go Patterns", "worker pools and pipelines")
	addTestDocument(t, s, "Rust Patterns", "ownership and borrowing")

	result, err := s.handleSearchText(ctx, callRequest(map[string]interface{}{
		"query": "patterns",
	}))
	require.NoError(t, err)
	parsed := resultJSON(t, result)
	assert.Equal(t, float64(2), parsed["count"])

	result, err = s.handleSearchText(ctx, callRequest(map[string]interface{}{
		"terms":    []interface{}{"patterns", "worker"},
		"operator": "and",
	}))
	require.NoError(t, err)
	parsed = resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["count"])

	result, err = s.handleSearchText(ctx, callRequest(map[string]interface{}{
		"query": "nonexistent",
	}))
	require.NoError(t, err)
	assert.Equal(t, emptyResultMessage, resultText(t, result))
}

func TestHybridSearch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	addTestDocument(t, s, "database indexing", "btree and hash indexes")

	result, err := s.handleHybridSearch(ctx, callRequest(map[string]interface{}{
		"query": "database indexing\n\nbtree and hash indexes",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["count"])
	first := parsed["results"].([]interface{})[0].(map[string]interface{})
	assert.Contains(t, first, "total_score")
	assert.Contains(t, first, "semantic_score")
}

func TestSearchClustered(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	addTestDocument(t, s, "alpha", "first document")
	addTestDocument(t, s, "beta", "second document")

	result, err := s.handleSearchClustered(ctx, callRequest(map[string]interface{}{
		"query":     "first document",
		"threshold": float64(0.99),
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	// Hash vectors of distinct texts are effectively orthogonal, so a 0.99
	// threshold keeps every document in its own cluster
	assert.Equal(t, float64(2), parsed["count"])
}

func TestSearchFacets(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	addTestDocument(t, s, "solo", "only document")

	result, err := s.handleSearchFacets(ctx, callRequest(map[string]interface{}{
		"query": "anything at all",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	facets := parsed["facets"].(map[string]interface{})
	assert.Len(t, facets["similarity_bands"].([]interface{}), 4)
	assert.Len(t, facets["recency_bands"].([]interface{}), 4)
}

func TestGetStatusEmpty(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetStatus(context.Background(), callRequest(nil))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(0), parsed["document_count"])
	assert.Equal(t, embedder.ProviderMock, parsed["provider"])
}

func requireMCPCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code)
}
