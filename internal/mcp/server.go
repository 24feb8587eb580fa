package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/docvault/docvault-mcp/internal/embedder"
	"github.com/docvault/docvault-mcp/internal/ingest"
	"github.com/docvault/docvault-mcp/internal/search"
	"github.com/docvault/docvault-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "docvault-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.docvault"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Store
	searcher *search.Searcher
	embedder embedder.Embedder
	ingestor *ingest.Ingestor
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".docvault")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "docvault.db")

	store, err := storage.NewSQLiteStore(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// One embedder instance: the query cache it carries serves both
	// ingestion and search
	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return newServer(store, emb), nil
}

// newServer wires a server from explicit dependencies
func newServer(store storage.Store, emb embedder.Embedder) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		searcher: search.NewSearcher(store),
		embedder: emb,
		ingestor: ingest.New(store, emb),
	}

	s.registerTools()

	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(addDocumentTool(), s.handleAddDocument)
	s.mcp.AddTool(addDocumentsTool(), s.handleAddDocuments)
	s.mcp.AddTool(getDocumentTool(), s.handleGetDocument)
	s.mcp.AddTool(deleteDocumentTool(), s.handleDeleteDocument)
	s.mcp.AddTool(searchSimilarTool(), s.handleSearchSimilar)
	s.mcp.AddTool(searchTextTool(), s.handleSearchText)
	s.mcp.AddTool(hybridSearchTool(), s.handleHybridSearch)
	s.mcp.AddTool(searchClusteredTool(), s.handleSearchClustered)
	s.mcp.AddTool(searchFacetsTool(), s.handleSearchFacets)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
