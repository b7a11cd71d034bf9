// Package format reformats Pawn source through a C-like beautifier.
//
// Pawn syntax the beautifier does not understand is rewritten into
// placeholders first and restored afterwards. Results are returned as
// minimal line edits so editors keep cursor and undo state outside the
// changed lines.
//
//	f := format.New(nil, settings.Format) // runs js-beautify
//	edits, err := f.Document(ctx, text)
package format
