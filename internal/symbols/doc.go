// Package symbols holds the global symbol table and answers editor
// queries against it.
//
// The table binds each name to at most one symbol. Kinds are ranked
// (types.SymbolKind order) and a name bound by a higher kind is never
// taken over by a lower one:
//
//	t := symbols.NewTable()
//	t.Replace(uri, result.Symbols, result.Words)
//
//	hover := t.Hover(uri, text, types.Position{Line: 3, Character: 10})
//	help := t.SignatureHelp(uri, text, pos)
//
// Queries take the document text and a cursor position, recover context
// with the scan package and return nil when nothing applies. A URI
// without a Pawn extension never produces a result.
//
// The table is safe for concurrent use.
package symbols
