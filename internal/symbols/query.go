package symbols

import (
	"strings"

	"github.com/dshills/pawnls/internal/scan"
	"github.com/dshills/pawnls/pkg/types"
)

// CompletionKind mirrors the editor's completion item kinds that the
// table produces
type CompletionKind int

const (
	CompletionText CompletionKind = iota
	CompletionFunction
	CompletionConstant
)

// CompletionItem is one entry of a completion list
type CompletionItem struct {
	Label         string
	Kind          CompletionKind
	Detail        string
	InsertText    string
	Documentation string
}

// Hover is the markdown shown for the identifier under the cursor
type Hover struct {
	Contents string
	Range    types.Range
}

// Signature describes one callable in a signature help response
type Signature struct {
	Label           string
	Documentation   string
	Parameters      []string
	ActiveParameter int
}

// SignatureHelp is the response for a cursor inside an argument list.
// ActiveParameter on the signature is the computed argument index and is
// not clamped to the parameter count.
type SignatureHelp struct {
	Signatures      []Signature
	ActiveSignature int
	ActiveParameter int
}

func completionKind(k types.SymbolKind) CompletionKind {
	if k == types.KindMacroConstant {
		return CompletionConstant
	}
	return CompletionFunction
}

// Completion returns every bound symbol plus the free words of uri
func (t *Table) Completion(uri string) []CompletionItem {
	if !types.IsSourceFile(uri) {
		return nil
	}

	items := t.SymbolItems()
	for _, w := range t.Words(uri) {
		items = append(items, CompletionItem{
			Label:      w,
			Kind:       CompletionText,
			InsertText: w,
		})
	}
	return items
}

// SymbolItems returns a completion item for every bound symbol, without
// any document's free words
func (t *Table) SymbolItems() []CompletionItem {
	syms := t.Symbols()
	items := make([]CompletionItem, 0, len(syms))
	for _, s := range syms {
		items = append(items, CompletionItem{
			Label:         s.Label,
			Kind:          completionKind(s.Kind),
			Detail:        s.Kind.String(),
			InsertText:    s.InsertText,
			Documentation: s.Documentation,
		})
	}
	return items
}

var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

// ResolveCompletion expands literal \n and \t sequences in the insert text
func (t *Table) ResolveCompletion(item CompletionItem) CompletionItem {
	item.InsertText = escapes.Replace(item.InsertText)
	return item
}

// Hover renders the symbol under the cursor
func (t *Table) Hover(uri, text string, pos types.Position) *Hover {
	if !types.IsSourceFile(uri) {
		return nil
	}
	offset := scan.ToOffset(text, pos)
	id := scan.IdentifierAt(text, offset)
	if id.Name == "" {
		return nil
	}
	sym, ok := t.Lookup(id.Name)
	if !ok {
		return nil
	}

	return &Hover{
		Contents: strings.Join([]string{
			"```pawn",
			sym.Label,
			"```",
			"---",
			sym.Documentation,
		}, "\n"),
		Range: identifierRange(text, offset, id.Name),
	}
}

// SignatureHelp describes the call whose argument list contains the cursor
func (t *Table) SignatureHelp(uri, text string, pos types.Position) *SignatureHelp {
	if !types.IsSourceFile(uri) {
		return nil
	}
	call := scan.EnclosingCall(text, scan.ToOffset(text, pos))
	if call.Name == "" {
		return nil
	}
	sym, ok := t.Lookup(call.Name)
	if !ok {
		return nil
	}

	params := sym.Parameters
	if params == nil {
		params = []string{}
	}
	return &SignatureHelp{
		Signatures: []Signature{{
			Label:           sym.Label,
			Documentation:   sym.Documentation,
			Parameters:      params,
			ActiveParameter: call.ParameterIndex,
		}},
	}
}

// Definition returns where the symbol under the cursor was declared
func (t *Table) Definition(uri, text string, pos types.Position) *types.Location {
	if !types.IsSourceFile(uri) {
		return nil
	}
	id := scan.IdentifierAt(text, scan.ToOffset(text, pos))
	if id.Name == "" {
		return nil
	}
	sym, ok := t.Lookup(id.Name)
	if !ok {
		return nil
	}
	loc := sym.Location
	return &loc
}

// identifierRange returns the span of the identifier run around offset
func identifierRange(text string, offset int, name string) types.Range {
	end := offset
	for end < len(text) && scan.IsIdentChar(text[end]) {
		end++
	}
	start := end - len(name)
	if start < 0 {
		start = 0
	}
	return types.Range{
		Start: scan.PositionAt(text, start),
		End:   scan.PositionAt(text, end),
	}
}
