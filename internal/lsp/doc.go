// Package lsp serves the symbol table to editors over the Language Server
// Protocol.
//
// The handler keeps the text of open documents, reparses a document on
// every open, change and save, and answers completion, hover, signature
// help, definition, formatting, folding, color and symbol requests from
// the shared table. Workspace folders are indexed in the background after
// the client has sent its configuration.
//
// Usage:
//
//	srv := lsp.New(indexer.New(symbols.NewTable(), store), store)
//	err := srv.RunStdio()
package lsp
