package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/pawnls/internal/indexer"
	"github.com/dshills/pawnls/internal/searcher"
	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/internal/symbols"
)

const (
	// ServerName is the MCP server name
	ServerName = "pawnls"
	// ServerVersion is the current server version
	ServerVersion = "0.1.0"
	// DBFile is the cache file created inside the database directory
	DBFile = "pawnls.db"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	table    *symbols.Table
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
}

// NewServer opens the extraction cache in dbPath and creates a server
// with an empty symbol table
func NewServer(dbPath string) (*Server, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dbPath, DBFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return New(store, indexer.New(symbols.NewTable(), store)), nil
}

// New creates a server around an existing indexer. The searcher shares
// the indexer's table.
func New(store storage.Storage, idx *indexer.Indexer) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		table:    idx.Table(),
		indexer:  idx,
		searcher: searcher.NewSearcher(idx.Table(), store),
	}
	s.registerTools()
	return s
}

// Indexer returns the indexer feeding the server's table
func (s *Server) Indexer() *indexer.Indexer {
	return s.indexer
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the cache without serving
func (s *Server) Close() error {
	return s.storage.Close()
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexWorkspaceTool(), s.handleIndexWorkspace)
	s.mcp.AddTool(lookupSymbolTool(), s.handleLookupSymbol)
	s.mcp.AddTool(completeTool(), s.handleComplete)
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
