// Package types provides shared type definitions for the pawnls server.
//
// This package defines the domain types used across the analyzer, the
// symbol table, storage and both protocol surfaces.
//
// # Core Types
//
// Symbol represents one declaration recognized in Pawn source text:
//
//	symbol := types.Symbol{
//	    Name:       "SetHealth",
//	    Kind:       types.KindNative,
//	    Label:      "SetHealth(playerid, Float:health)",
//	    InsertText: "SetHealth",
//	    Parameters: []string{"playerid", "Float:health"},
//	}
//
// # Precedence
//
// SymbolKind values are ordered. When two documents declare the same name
// the symbol table keeps the one whose kind ranks higher:
//
//	macro-constant < macro-function < custom-snippet < forward
//	    < bare-call < function < native
//
// Kind.Outranks is the single comparison every insert goes through.
//
// # Positions
//
// Position, Range and Location mirror the editor protocol: lines and
// characters are zero-based and characters count UTF-16 code units.
//
// # Tags
//
// Pawn declarations may carry a tag such as Float: in front of the name.
// StripTag removes it; symbol names are always stored without the tag while
// labels keep the text as written.
package types
