package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the workspace root (a server or gamemode folder containing .pwn/.inc files)",
	}
}

// indexWorkspaceTool returns the tool definition for index_workspace
func indexWorkspaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_workspace",
		Description: "Index a Pawn workspace so its natives, functions, macros and snippets can be looked up",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
			},
			Required: []string{"path"},
		},
	}
}

// lookupSymbolTool returns the tool definition for lookup_symbol
func lookupSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "lookup_symbol",
		Description: "Look up one symbol by name and return its signature, documentation and definition site. Suggests close names when it is unknown.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name, optionally tagged (e.g. SetPlayerHealth or Float:floatsqrt)",
				},
			},
			Required: []string{"path", "name"},
		},
	}
}

// completeTool returns the tool definition for complete
func completeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "complete",
		Description: "List completion items whose label or insert text starts with a prefix",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"prefix": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive prefix; empty lists everything",
				},
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Optional source file whose free words are offered as well, absolute or relative to path",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of items to return (1-200)",
					"default":     20,
					"minimum":     1,
					"maximum":     200,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Fuzzy search symbol names, falling back to the documentation index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Name fragment or documentation words",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a Pawn workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
			},
			Required: []string{"path"},
		},
	}
}
