package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// draftProperties describes one document payload; shared by the single and
// bulk add tools
func draftProperties() map[string]interface{} {
	return map[string]interface{}{
		"title": map[string]interface{}{
			"type":        "string",
			"description": "Document title (required, non-empty)",
		},
		"content": map[string]interface{}{
			"type":        "string",
			"description": "Document body text (required, non-empty)",
		},
		"category": map[string]interface{}{
			"type":        "string",
			"description": "Optional category label",
		},
		"tags": map[string]interface{}{
			"type":        "array",
			"description": "Optional tags",
			"items": map[string]interface{}{
				"type": "string",
			},
		},
	}
}

// addDocumentTool returns the tool definition for add_document
func addDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_document",
		Description: "Store a document and its embedding, making it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: draftProperties(),
			Required:   []string{"title", "content"},
		},
	}
}

// addDocumentsTool returns the tool definition for add_documents
func addDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_documents",
		Description: "Bulk-store documents with embeddings; failures are reported per document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"documents": map[string]interface{}{
					"type":        "array",
					"description": "Documents to store",
					"items": map[string]interface{}{
						"type":       "object",
						"properties": draftProperties(),
						"required":   []string{"title", "content"},
					},
				},
			},
			Required: []string{"documents"},
		},
	}
}

// getDocumentTool returns the tool definition for get_document
func getDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_document",
		Description: "Fetch a stored document by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Document id",
				},
			},
			Required: []string{"id"},
		},
	}
}

// deleteDocumentTool returns the tool definition for delete_document
func deleteDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document and its embedding by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Document id",
				},
			},
			Required: []string{"id"},
		},
	}
}

// searchSimilarTool returns the tool definition for search_similar
func searchSimilarTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_similar",
		Description: "Rank stored documents by vector similarity to a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query text; embedded before ranking",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default 5)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Distance metric: cosine (default) or euclidean",
					"enum":        []string{"cosine", "euclidean"},
					"default":     "cosine",
				},
				"min_similarity": map[string]interface{}{
					"type":        "number",
					"description": "Discard results below this similarity (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Hard cap on result count; overrides a larger limit",
					"minimum":     1,
				},
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Only documents created at or after this RFC 3339 timestamp",
				},
				"until": map[string]interface{}{
					"type":        "string",
					"description": "Only documents created at or before this RFC 3339 timestamp",
				},
			},
			Required: []string{"query"},
		},
	}
}

// searchTextTool returns the tool definition for search_text
func searchTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_text",
		Description: "Case-insensitive substring search over titles and content, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Single search term; ignored when terms is given",
				},
				"terms": map[string]interface{}{
					"type":        "array",
					"description": "Multiple search terms combined with operator",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"operator": map[string]interface{}{
					"type":        "string",
					"description": "How to combine terms: and (default) or or",
					"enum":        []string{"and", "or"},
					"default":     "and",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default 10)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

// hybridSearchTool returns the tool definition for hybrid_search
func hybridSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hybrid_search",
		Description: "Combine text matching and vector similarity into one weighted ranking",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query text; used for both the text leg and the embedded vector leg",
				},
				"text_weight": map[string]interface{}{
					"type":        "number",
					"description": "Weight credited to documents matched by text (default 0.3)",
					"default":     0.3,
					"minimum":     0.0,
				},
				"semantic_weight": map[string]interface{}{
					"type":        "number",
					"description": "Multiplier applied to vector similarity (default 0.7)",
					"default":     0.7,
					"minimum":     0.0,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default 5)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// searchClusteredTool returns the tool definition for search_clustered
func searchClusteredTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_clustered",
		Description: "Similarity search with results grouped into clusters of mutually similar documents",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query text; embedded before ranking",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of clusters (default 5)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Similarity above which a result joins an existing cluster (default 0.8)",
					"default":     0.8,
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// searchFacetsTool returns the tool definition for search_facets
func searchFacetsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_facets",
		Description: "Similarity search with result counts summarized by similarity band and recency",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query text; embedded before ranking",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default 5)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report document and embedding counts and the embedding models in use",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
