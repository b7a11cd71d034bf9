package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/searcher"
	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/internal/symbols"
	"github.com/dshills/pawnls/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeWorkspaceNotFound  = -32001 // Path holds no Pawn sources
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Workspace not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleIndexWorkspace handles the index_workspace tool invocation
func (s *Server) handleIndexWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, path, err := workspaceArgs(request)
	if err != nil {
		return nil, err
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid "+config.FileName, map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.indexer.SetSettings(settings)

	roots := s.indexer.Roots()
	if !slices.Contains(roots, path) {
		s.indexer.SetRoots(append(roots, path))
	}

	stats, err := s.indexer.IndexWorkspace(ctx, path)
	if errors.Is(err, types.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":           true,
		"files_indexed":     stats.FilesIndexed,
		"files_cached":      stats.FilesCached,
		"files_ignored":     stats.FilesIgnored,
		"files_failed":      stats.FilesFailed,
		"symbols_extracted": stats.SymbolsExtracted,
		"words_collected":   stats.WordsCollected,
		"duration_ms":       stats.Duration.Milliseconds(),
		"table":             s.table.Stats(),
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

// handleLookupSymbol handles the lookup_symbol tool invocation
func (s *Server) handleLookupSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, path, err := workspaceArgs(request)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(getStringDefault(args, "name", ""))
	if name == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "name parameter is required and cannot be empty", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}
	if err := s.requireIndexed(path); err != nil {
		return nil, err
	}

	sym, ok := s.table.Lookup(name)
	if !ok {
		response := map[string]interface{}{
			"found":       false,
			"name":        name,
			"suggestions": s.searcher.Suggest(types.StripTag(name), 5),
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]interface{}{
		"found":  true,
		"symbol": symbolJSON(sym),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleComplete handles the complete tool invocation
func (s *Server) handleComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, path, err := workspaceArgs(request)
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 200 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 200", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	if err := s.requireIndexed(path); err != nil {
		return nil, err
	}

	var items []symbols.CompletionItem
	if file := getStringDefault(args, "file", ""); file != "" {
		if !filepath.IsAbs(file) {
			file = filepath.Join(path, file)
		}
		if !types.IsSourceFile(file) {
			return nil, newMCPError(ErrorCodeInvalidParams, "file is not a Pawn source file", map[string]interface{}{
				"param": "file",
				"value": file,
			})
		}
		items = s.table.Completion(types.FileURI(file))
	} else {
		items = s.table.SymbolItems()
	}

	prefix := strings.ToLower(getStringDefault(args, "prefix", ""))
	matched := make([]map[string]interface{}, 0, limit)
	total := 0
	for _, item := range items {
		if !strings.HasPrefix(strings.ToLower(item.Label), prefix) &&
			!strings.HasPrefix(strings.ToLower(item.InsertText), prefix) {
			continue
		}
		total++
		if len(matched) == limit {
			continue
		}
		item = s.table.ResolveCompletion(item)
		matched = append(matched, map[string]interface{}{
			"label":         item.Label,
			"kind":          completionKindName(item.Kind),
			"detail":        item.Detail,
			"insert_text":   item.InsertText,
			"documentation": item.Documentation,
		})
	}

	response := map[string]interface{}{
		"prefix":  prefix,
		"items":   matched,
		"total":   total,
		"limited": total > len(matched),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSymbols handles the search_symbols tool invocation
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, path, err := workspaceArgs(request)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(getStringDefault(args, "query", ""))
	if query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	if err := s.requireIndexed(path); err != nil {
		return nil, err
	}

	var workspaceID int64
	if ws, err := s.storage.GetWorkspace(ctx, path); err == nil {
		workspaceID = ws.ID
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:       query,
		Limit:       limit,
		WorkspaceID: workspaceID,
		UseCache:    true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"rank":        r.Rank,
			"score":       fmt.Sprintf("%.3f", r.RelevanceScore),
			"matched_doc": r.MatchedDoc,
			"symbol":      symbolJSON(*r.Symbol),
		})
	}

	response := map[string]interface{}{
		"query":       query,
		"results":     results,
		"total":       resp.TotalResults,
		"cache_hit":   resp.CacheHit,
		"duration_ms": resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, path, err := workspaceArgs(request)
	if err != nil {
		return nil, err
	}

	ws, err := s.storage.GetWorkspace(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Workspace not indexed. Use index_workspace tool to index this workspace.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get workspace status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, ws.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"loaded":  slices.Contains(s.indexer.Roots(), path),
		"workspace": map[string]interface{}{
			"path":             ws.RootPath,
			"index_version":    ws.IndexVersion,
			"last_indexed_at":  ws.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
			"last_duration_ms": ws.LastDuration.Milliseconds(),
		},
		"statistics": map[string]interface{}{
			"documents_count": status.DocumentsCount,
			"symbols_count":   status.SymbolsCount,
			"words_count":     status.WordsCount,
			"index_size_mb":   fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"table": s.table.Stats(),
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// workspaceArgs extracts the arguments and the validated workspace path
// every tool takes
func workspaceArgs(request mcp.CallToolRequest) (map[string]interface{}, string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		code := ErrorCodeInvalidParams
		if errors.Is(err, ErrNoSourceFiles) {
			code = ErrorCodeWorkspaceNotFound
		}
		return nil, "", newMCPError(code, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	return args, filepath.Clean(path), nil
}

func (s *Server) requireIndexed(path string) error {
	if slices.Contains(s.indexer.Roots(), path) {
		return nil
	}
	return newMCPError(ErrorCodeNotIndexed, "workspace not indexed", map[string]interface{}{
		"path": path,
		"hint": "call index_workspace first",
	})
}

func symbolJSON(sym types.Symbol) map[string]interface{} {
	return map[string]interface{}{
		"name":          sym.Name,
		"kind":          sym.Kind.String(),
		"label":         sym.Label,
		"insert_text":   sym.InsertText,
		"documentation": sym.Documentation,
		"parameters":    sym.Parameters,
		"uri":           sym.Location.URI,
		"line":          sym.Location.Range.Start.Line,
		"character":     sym.Location.Range.Start.Character,
	}
}

func completionKindName(k symbols.CompletionKind) string {
	switch k {
	case symbols.CompletionFunction:
		return "function"
	case symbols.CompletionConstant:
		return "constant"
	default:
		return "text"
	}
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

// validatePath checks that a path is an absolute, readable directory with
// at least one Pawn source file below it
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	hasSources := false
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && types.IsSourceFile(p) {
			hasSources = true
			return fs.SkipAll
		}
		return nil
	})

	if !hasSources {
		return ErrNoSourceFiles
	}

	return nil
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

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoSourceFiles   = errors.New("directory does not contain Pawn source files")
)
