package types

import (
	"errors"
	"strings"
)

// SymbolKind identifies which extraction pass produced a symbol.
//
// The numeric order is the precedence order: a symbol of a higher kind
// replaces a symbol of a lower kind with the same name, never the reverse.
type SymbolKind int

const (
	KindMacroConstant SymbolKind = iota
	KindMacroFunction
	KindCustomSnippet
	KindForward
	KindBareCall
	KindFunction
	KindNative
)

var kindNames = [...]string{
	KindMacroConstant: "macro-constant",
	KindMacroFunction: "macro-function",
	KindCustomSnippet: "custom-snippet",
	KindForward:       "forward",
	KindBareCall:      "bare-call",
	KindFunction:      "function",
	KindNative:        "native",
}

// String returns the stable name of the kind, used in storage and tool output.
func (k SymbolKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseSymbolKind is the inverse of String.
func ParseSymbolKind(s string) (SymbolKind, error) {
	for i, name := range kindNames {
		if name == s {
			return SymbolKind(i), nil
		}
	}
	return 0, ErrInvalidKind
}

// Outranks reports whether a symbol of kind k may replace one of kind other.
func (k SymbolKind) Outranks(other SymbolKind) bool {
	return k > other
}

// IsCallable reports whether symbols of this kind carry a parameter list.
func (k SymbolKind) IsCallable() bool {
	return k != KindMacroConstant
}

// Position is a zero-based line/character pair. Character counts UTF-16
// code units, as editors send them.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position
	End   Position
}

// Location points at a range inside a document.
type Location struct {
	URI   string
	Range Range
}

// Symbol is one recognized declaration or macro.
type Symbol struct {
	// Name is the lookup key with any tag prefix removed
	Name string
	Kind SymbolKind

	Label         string // e.g. "SetHealth(playerid, Float:health)"
	InsertText    string
	Documentation string
	Parameters    []string

	Location  Location
	SourceURI string
}

// Validate checks the fields every extraction pass must fill in.
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}
	if s.Kind < KindMacroConstant || s.Kind > KindNative {
		return ErrInvalidKind
	}
	if s.SourceURI == "" {
		return errors.New("source uri is required")
	}
	if s.Location.Range.Start.Line > s.Location.Range.End.Line {
		return errors.New("invalid range: start line after end line")
	}
	return nil
}

// StripTag removes a leading "tag:" qualifier, e.g. "Float:GetSpeed" -> "GetSpeed".
func StripTag(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ParseResult is the output of running the extractor over one document.
type ParseResult struct {
	URI     string
	Symbols []Symbol
	Words   []string
}
