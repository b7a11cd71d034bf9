// Package mcp implements the Model Context Protocol (MCP) server for pawnls.
//
// The MCP server exposes the symbol table to AI coding assistants through
// five tools:
//   - index_workspace: Index a Pawn workspace and load it into the table
//   - lookup_symbol: Return one symbol's signature, documentation and location
//   - complete: List completion items matching a prefix
//   - search_symbols: Fuzzy search symbol names and documentation
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
//	pawnls mcp
//
// # Tool: lookup_symbol
//
//	Request:
//	{
//	  "name": "lookup_symbol",
//	  "arguments": {
//	    "path": "/srv/samp",
//	    "name": "SetPlayerHealth"
//	  }
//	}
//
//	Response:
//	{
//	  "found": true,
//	  "symbol": {
//	    "name": "SetPlayerHealth",
//	    "kind": "native",
//	    "label": "SetPlayerHealth(playerid, Float:health)",
//	    "parameters": ["playerid", "Float:health"],
//	    "uri": "file:///srv/samp/include/a_samp.inc",
//	    "line": 112
//	  }
//	}
//
// Unknown names answer with "found": false and up to five close names in
// "suggestions".
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Path contains no Pawn sources
//   - -32002: Indexing in progress
//   - -32003: Workspace not indexed
//   - -32004: Empty query or name
//
// The server logs to stderr; stdout is reserved for the protocol.
package mcp
