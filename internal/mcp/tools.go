package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docvault/docvault-mcp/internal/ingest"
	"github.com/docvault/docvault-mcp/internal/search"
	"github.com/docvault/docvault-mcp/internal/storage"
	"github.com/docvault/docvault-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeDocumentNotFound   = -32001 // No document with the given id
	ErrorCodeEmptyQuery         = -32002 // Query parameter is empty
	ErrorCodeDimensionMismatch  = -32003 // Query and corpus vectors disagree on dimension
	ErrorCodeMalformedEmbedding = -32004 // Every candidate embedding failed to decode
)

const emptyResultMessage = "no matching documents found"

// handleAddDocument handles the add_document tool invocation
func (s *Server) handleAddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	draft, err := parseDraft(args)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}

	emb, err := s.embedder.GenerateEmbedding(ctx, draft.Title+"\n\n"+draft.Content)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "embedding failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	doc := &types.Document{
		Title:    draft.Title,
		Content:  draft.Content,
		Category: draft.Category,
		Tags:     draft.Tags,
	}

	tx, err := s.storage.BeginTx(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to begin transaction", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.CreateDocument(ctx, doc); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to store document", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := tx.UpsertEmbedding(ctx, &storage.Embedding{
		DocumentID: doc.ID,
		Vector:     emb.Vector,
		Model:      emb.Model,
	}); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to store embedding", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to commit", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"id":        doc.ID,
		"title":     doc.Title,
		"dimension": emb.Dimension,
		"model":     emb.Model,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAddDocuments handles the add_documents tool invocation
func (s *Server) handleAddDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rawDocs, ok := args["documents"].([]interface{})
	if !ok || len(rawDocs) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "documents parameter is required", map[string]interface{}{
			"param":  "documents",
			"reason": "missing or empty",
		})
	}

	drafts := make([]ingest.Draft, 0, len(rawDocs))
	for i, raw := range rawDocs {
		fields, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("document %d is not an object", i), nil)
		}
		draft, err := parseDraft(fields)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("document %d: %s", i, err.Error()), nil)
		}
		drafts = append(drafts, draft)
	}

	stats, err := s.ingestor.IngestDocuments(ctx, drafts, nil)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"added":       stats.DocumentsAdded,
		"failed":      stats.DocumentsFailed,
		"duration_ms": stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDocument handles the get_document tool invocation
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := parseDocumentID(args)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}

	doc, err := s.storage.GetDocument(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeDocumentNotFound, fmt.Sprintf("document %d not found", id), nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(documentFields(doc))), nil
}

// handleDeleteDocument handles the delete_document tool invocation
func (s *Server) handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := parseDocumentID(args)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}

	if err := s.storage.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeDocumentNotFound, fmt.Sprintf("document %d not found", id), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to delete document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"deleted": true,
		"id":      id,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSimilar handles the search_similar tool invocation
func (s *Server) handleSearchSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}
	opts, err := parseSearchOptions(args)
	if err != nil {
		return nil, err
	}

	vector, mcpErr := s.embedQuery(ctx, query)
	if mcpErr != nil {
		return nil, mcpErr
	}

	results, err := s.searcher.SearchSimilar(ctx, vector, opts)
	if err != nil {
		return nil, mapSearchError(err)
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(emptyResultMessage), nil
	}

	items := make([]map[string]interface{}, len(results))
	for i, res := range results {
		items[i] = scoredFields(res)
	}
	response := map[string]interface{}{
		"results": items,
		"count":   len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchText handles the search_text tool invocation
func (s *Server) handleSearchText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	limit := getIntDefault(args, "limit", storage.DefaultTextLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	var (
		docs []types.Document
		err  error
	)
	if rawTerms, ok := args["terms"].([]interface{}); ok && len(rawTerms) > 0 {
		terms := make([]string, 0, len(rawTerms))
		for _, raw := range rawTerms {
			term, ok := raw.(string)
			if !ok || term == "" {
				return nil, newMCPError(ErrorCodeEmptyQuery, "terms must be non-empty strings", nil)
			}
			terms = append(terms, term)
		}

		op := storage.TermAND
		switch getStringDefault(args, "operator", "and") {
		case "and":
		case "or":
			op = storage.TermOR
		default:
			return nil, newMCPError(ErrorCodeInvalidParams, "operator must be and or or", nil)
		}
		docs, err = s.searcher.SearchByTextAdvanced(ctx, terms, op, limit)
	} else {
		query, qerr := requireQuery(args)
		if qerr != nil {
			return nil, qerr
		}
		docs, err = s.searcher.SearchByText(ctx, query, limit)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "text search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText(emptyResultMessage), nil
	}

	items := make([]map[string]interface{}, len(docs))
	for i := range docs {
		items[i] = documentFields(&docs[i])
	}
	response := map[string]interface{}{
		"results": items,
		"count":   len(docs),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleHybridSearch handles the hybrid_search tool invocation
func (s *Server) handleHybridSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}

	textWeight := getFloatDefault(args, "text_weight", 0.3)
	semanticWeight := getFloatDefault(args, "semantic_weight", 0.7)
	if textWeight < 0 || semanticWeight < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "weights must be non-negative", nil)
	}
	limit := getIntDefault(args, "limit", search.DefaultLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	vector, mcpErr := s.embedQuery(ctx, query)
	if mcpErr != nil {
		return nil, mcpErr
	}

	results, err := s.searcher.HybridSearch(ctx, query, vector, textWeight, semanticWeight, limit)
	if err != nil {
		return nil, mapSearchError(err)
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(emptyResultMessage), nil
	}

	items := make([]map[string]interface{}, len(results))
	for i, res := range results {
		fields := documentFields(&res.Document)
		fields["text_score"] = res.TextScore
		fields["semantic_score"] = res.SemanticScore
		fields["total_score"] = res.TotalScore
		items[i] = fields
	}
	response := map[string]interface{}{
		"results": items,
		"count":   len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchClustered handles the search_clustered tool invocation
func (s *Server) handleSearchClustered(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}
	threshold := getFloatDefault(args, "threshold", 0.8)
	if threshold < 0 || threshold > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "threshold must be between 0.0 and 1.0", map[string]interface{}{
			"param": "threshold",
			"value": threshold,
		})
	}
	limit := getIntDefault(args, "limit", search.DefaultLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	vector, mcpErr := s.embedQuery(ctx, query)
	if mcpErr != nil {
		return nil, mcpErr
	}

	clusters, err := s.searcher.SearchWithClustering(ctx, vector, limit, threshold)
	if err != nil {
		return nil, mapSearchError(err)
	}
	if len(clusters) == 0 {
		return mcp.NewToolResultText(emptyResultMessage), nil
	}

	items := make([]map[string]interface{}, len(clusters))
	for i, cluster := range clusters {
		members := make([]map[string]interface{}, len(cluster.Members))
		for j, member := range cluster.Members {
			members[j] = scoredFields(member)
		}
		items[i] = map[string]interface{}{
			"cluster_id": cluster.ClusterID,
			"members":    members,
		}
	}
	response := map[string]interface{}{
		"clusters": items,
		"count":    len(clusters),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchFacets handles the search_facets tool invocation
func (s *Server) handleSearchFacets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}
	limit := getIntDefault(args, "limit", search.DefaultLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	vector, mcpErr := s.embedQuery(ctx, query)
	if mcpErr != nil {
		return nil, mcpErr
	}

	faceted, err := s.searcher.SearchWithFacets(ctx, vector, limit)
	if err != nil {
		return nil, mapSearchError(err)
	}

	items := make([]map[string]interface{}, len(faceted.Results))
	for i, res := range faceted.Results {
		items[i] = scoredFields(res)
	}

	bands := make([]map[string]interface{}, len(faceted.Facets.SimilarityBands))
	for i, band := range faceted.Facets.SimilarityBands {
		bands[i] = map[string]interface{}{"range": band.Range, "count": band.Count}
	}
	periods := make([]map[string]interface{}, len(faceted.Facets.RecencyBands))
	for i, period := range faceted.Facets.RecencyBands {
		periods[i] = map[string]interface{}{"period": period.Period, "count": period.Count}
	}

	response := map[string]interface{}{
		"results": items,
		"count":   len(faceted.Results),
		"facets": map[string]interface{}{
			"similarity_bands": bands,
			"recency_bands":    periods,
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"document_count":  status.DocumentCount,
		"embedding_count": status.EmbeddingCount,
		"models":          status.Models,
		"provider":        s.embedder.Provider(),
		"model":           s.embedder.Model(),
		"dimension":       s.embedder.Dimension(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// embedQuery turns query text into a vector, mapping failures to MCP errors
func (s *Server) embedQuery(ctx context.Context, query string) ([]float32, error) {
	emb, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to embed query", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return emb.Vector, nil
}

// mapSearchError translates search failures into MCP error codes
func mapSearchError(err error) error {
	switch {
	case errors.Is(err, types.ErrDimensionMismatch):
		return newMCPError(ErrorCodeDimensionMismatch, "embedding dimension mismatch", map[string]interface{}{
			"error": err.Error(),
			"hint":  "the corpus contains embeddings from a different model; re-embed the corpus with a single model",
		})
	case errors.Is(err, types.ErrMalformedEmbedding):
		return newMCPError(ErrorCodeMalformedEmbedding, "stored embeddings are unreadable", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// requireQuery extracts the mandatory non-empty query parameter
func requireQuery(args map[string]interface{}) (string, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "", newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	return query, nil
}

// parseDraft builds an ingest.Draft from tool arguments
func parseDraft(args map[string]interface{}) (ingest.Draft, error) {
	title, ok := args["title"].(string)
	if !ok || title == "" {
		return ingest.Draft{}, errors.New("title parameter is required and cannot be empty")
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return ingest.Draft{}, errors.New("content parameter is required and cannot be empty")
	}

	draft := ingest.Draft{
		Title:    title,
		Content:  content,
		Category: getStringDefault(args, "category", ""),
	}
	if rawTags, ok := args["tags"].([]interface{}); ok {
		for _, raw := range rawTags {
			if tag, ok := raw.(string); ok && tag != "" {
				draft.Tags = append(draft.Tags, tag)
			}
		}
	}
	return draft, nil
}

// parseDocumentID extracts the mandatory positive id parameter
func parseDocumentID(args map[string]interface{}) (int64, error) {
	var id int64
	switch val := args["id"].(type) {
	case float64:
		id = int64(val)
	case int:
		id = int64(val)
	case int64:
		id = val
	default:
		return 0, errors.New("id parameter is required")
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

// parseSearchOptions builds search.Options from search_similar arguments
func parseSearchOptions(args map[string]interface{}) (search.Options, error) {
	limit := getIntDefault(args, "limit", search.DefaultLimit)
	if limit < 1 || limit > 100 {
		return search.Options{}, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := search.Mode(getStringDefault(args, "mode", string(search.ModeCosine)))
	if mode != search.ModeCosine && mode != search.ModeEuclidean {
		return search.Options{}, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   string(mode),
			"allowed": []string{string(search.ModeCosine), string(search.ModeEuclidean)},
		})
	}

	filters := &search.Filters{
		MinSimilarity: getFloatDefault(args, "min_similarity", 0),
		MaxResults:    getIntDefault(args, "max_results", 0),
	}
	for key, dst := range map[string]*time.Time{"since": &filters.Since, "until": &filters.Until} {
		raw := getStringDefault(args, key, "")
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return search.Options{}, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("%s must be an RFC 3339 timestamp", key), map[string]interface{}{
				"param": key,
				"value": raw,
			})
		}
		*dst = ts
	}

	return search.Options{Limit: limit, Mode: mode, Filters: filters}, nil
}

// documentFields formats a document for tool output
func documentFields(doc *types.Document) map[string]interface{} {
	fields := map[string]interface{}{
		"id":         doc.ID,
		"title":      doc.Title,
		"content":    doc.Content,
		"created_at": doc.CreatedAt.Format(time.RFC3339),
		"updated_at": doc.UpdatedAt.Format(time.RFC3339),
	}
	if doc.Category != "" {
		fields["category"] = doc.Category
	}
	if len(doc.Tags) > 0 {
		fields["tags"] = doc.Tags
	}
	return fields
}

// scoredFields formats a scored result for tool output
func scoredFields(res types.ScoredResult) map[string]interface{} {
	fields := documentFields(&res.Document)
	fields["similarity"] = res.Similarity
	fields["distance"] = res.Distance
	return fields
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
