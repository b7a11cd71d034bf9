// Package indexer keeps the symbol table in step with the workspace.
//
// Single documents come in through ParseDocument, usually from an editor
// buffer. Whole workspaces go through IndexWorkspace, which walks the
// folder, skips hidden directories and ignore-listed files, and extracts
// every source file:
//
//	table := symbols.NewTable()
//	idx := indexer.New(table, store)
//	stats, err := idx.IndexWorkspace(ctx, "/srv/samp/gamemodes")
//
// # Extraction cache
//
// With a storage backend each file is hashed with xxhash. A stored
// extraction is replayed when both the hash and the parser option set
// match, otherwise the file is parsed and the stored copy replaced in one
// transaction. Documents that disappeared from disk are pruned at the end
// of a pass.
//
// # Concurrency
//
// Files are read and extracted by an errgroup bounded by a semaphore of
// Settings.Index.Workers. Results are applied to the table one document at
// a time in walk order. A second workspace pass started while one is
// running fails fast with types.ErrIndexingInProgress.
package indexer
