// Package storage provides the SQLite-backed extraction cache.
//
// Parsing a large include tree on every editor start is wasted work when
// most files have not changed. The cache records, per document, the
// xxhash of its content, the parser option set used, and every symbol
// candidate and free word produced. The indexer replays a document from
// the cache when both the hash and the options match.
//
// # Database Schema
//
// Tables:
//   - workspaces: indexed workspace roots and last run statistics
//   - documents: URI, content hash and option set per file
//   - symbols: extraction candidates in extraction order
//   - words: free words in order of first appearance
//   - symbols_fts: FTS5 index over names, labels and documentation
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "pawnls.db"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	doc, err := store.GetDocument(ctx, ws.ID, uri)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // parse and store
//	}
//
// # Transactions
//
// A document's row, symbols and words are written in one transaction:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	_ = tx.UpsertDocument(ctx, doc)
//	_ = tx.DeleteSymbolsByDocument(ctx, doc.ID)
//	for i, sym := range result.Symbols {
//	    _ = tx.InsertSymbol(ctx, storage.FromTypesSymbol(sym, doc.ID, i))
//	}
//	_ = tx.ReplaceWords(ctx, doc.ID, result.Words)
//	return tx.Commit()
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with the
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3; add sqlite_fts5
// so that driver compiles in FTS5. DriverName and BuildMode report which
// one is linked.
package storage
