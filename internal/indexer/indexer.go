package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/ignore"
	"github.com/dshills/pawnls/internal/parser"
	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/internal/symbols"
	"github.com/dshills/pawnls/pkg/types"
)

var log = commonlog.GetLogger("pawnls.indexer")

// Indexer feeds documents into the symbol table: parse -> cache -> table
type Indexer struct {
	parser  *parser.Parser
	table   *symbols.Table
	storage storage.Storage // optional extraction cache
	ignores *ignore.List
	lock    IndexLock

	mu       sync.RWMutex
	settings config.Settings
	roots    []string
	// documents applied by the last workspace pass, per root
	applied map[string]map[string]struct{}
}

// Statistics contains statistics about a workspace pass
type Statistics struct {
	FilesIndexed     int           `json:"files_indexed"`
	FilesCached      int           `json:"files_cached"`
	FilesIgnored     int           `json:"files_ignored"`
	FilesFailed      int           `json:"files_failed"`
	SymbolsExtracted int           `json:"symbols_extracted"`
	WordsCollected   int           `json:"words_collected"`
	Duration         time.Duration `json:"duration"`
	ErrorMessages    []string      `json:"error_messages,omitempty"`
}

func (s *Statistics) add(o *Statistics) {
	s.FilesIndexed += o.FilesIndexed
	s.FilesCached += o.FilesCached
	s.FilesIgnored += o.FilesIgnored
	s.FilesFailed += o.FilesFailed
	s.SymbolsExtracted += o.SymbolsExtracted
	s.WordsCollected += o.WordsCollected
	s.ErrorMessages = append(s.ErrorMessages, o.ErrorMessages...)
}

// New creates an Indexer writing into table. store may be nil, in which
// case every document is parsed.
func New(table *symbols.Table, store storage.Storage) *Indexer {
	return &Indexer{
		parser:   parser.New(),
		table:    table,
		storage:  store,
		ignores:  ignore.NewList(16),
		settings: config.Default(),
		applied:  make(map[string]map[string]struct{}),
	}
}

// Table returns the symbol table the indexer writes to
func (idx *Indexer) Table() *symbols.Table {
	return idx.table
}

// Lock returns the lock guarding workspace passes
func (idx *Indexer) Lock() *IndexLock {
	return &idx.lock
}

// Ignores returns the cached ignore lists
func (idx *Indexer) Ignores() *ignore.List {
	return idx.ignores
}

// Settings returns the active configuration
func (idx *Indexer) Settings() config.Settings {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.settings
}

// SetSettings replaces the active configuration. Already indexed documents
// keep their symbols until the next pass.
func (idx *Indexer) SetSettings(s config.Settings) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.settings = s
}

// SetRoots replaces the workspace folders
func (idx *Indexer) SetRoots(roots []string) {
	clean := make([]string, 0, len(roots))
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		clean = append(clean, filepath.Clean(r))
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.roots = clean
}

// Roots returns the workspace folders
func (idx *Indexer) Roots() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string(nil), idx.roots...)
}

// RootFor returns the workspace folder containing path, preferring the
// deepest one, or "" when the path is outside every folder
func (idx *Indexer) RootFor(path string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	best := ""
	for _, r := range idx.roots {
		rel, err := filepath.Rel(r, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if len(r) > len(best) {
			best = r
		}
	}
	return best
}

// ParseDocument extracts one document's symbols into the table. With
// reset the document's earlier symbols and words are dropped first;
// without it new candidates are added next to them. Other documents are
// never touched. Non-source and ignore-listed documents are skipped with
// ErrNotSourceFile and ErrIgnored.
func (idx *Indexer) ParseDocument(ctx context.Context, uri, text string, reset bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !types.IsSourceFile(uri) {
		return types.ErrNotSourceFile
	}

	if path, err := types.URIPath(uri); err == nil {
		if root := idx.RootFor(path); root != "" && !idx.ignores.Allowed(root, path) {
			if reset {
				idx.table.Remove(uri)
			}
			return types.ErrIgnored
		}
	}

	result := idx.parser.Parse(uri, text, idx.Settings().ParserOptions())
	if reset {
		idx.table.Replace(uri, result.Symbols, result.Words)
	} else {
		idx.table.Add(uri, result.Symbols, result.Words)
	}
	log.Debugf("parsed %s: %d symbols, %d words", uri, len(result.Symbols), len(result.Words))
	return nil
}

// RemoveDocument drops a document from the table and the cache
func (idx *Indexer) RemoveDocument(ctx context.Context, uri string) error {
	idx.table.Remove(uri)
	if idx.storage == nil {
		return nil
	}
	path, err := types.URIPath(uri)
	if err != nil {
		return err
	}
	root := idx.RootFor(path)
	if root == "" {
		return nil
	}
	ws, err := idx.storage.GetWorkspace(ctx, root)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	doc, err := idx.storage.GetDocument(ctx, ws.ID, uri)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return idx.storage.DeleteDocument(ctx, doc.ID)
}

// IndexFile reads one file from disk into the table, going through the
// cache like a workspace pass does
func (idx *Indexer) IndexFile(ctx context.Context, path string) error {
	uri := types.FileURI(path)
	if !types.IsSourceFile(path) {
		return types.ErrNotSourceFile
	}
	root := idx.RootFor(path)
	if root != "" && !idx.ignores.Allowed(root, path) {
		idx.table.Remove(uri)
		return types.ErrIgnored
	}

	var ws *storage.Workspace
	if idx.storage != nil && root != "" {
		var err error
		if ws, err = idx.getOrCreateWorkspace(ctx, root); err != nil {
			return err
		}
	}

	res, err := idx.extractFile(ctx, ws, root, path, idx.Settings().ParserOptions())
	if err != nil {
		return err
	}
	idx.table.Replace(res.uri, res.symbols, res.words)
	return nil
}

// IndexWorkspace walks root and applies every source file to the table.
// Returns ErrIndexingInProgress when another pass is running.
func (idx *Indexer) IndexWorkspace(ctx context.Context, root string) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, types.ErrIndexingInProgress
	}
	defer idx.lock.Release()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path: %w", err)
	}
	return idx.indexRoot(ctx, abs)
}

// ReindexAll clears the table and indexes every workspace folder again
func (idx *Indexer) ReindexAll(ctx context.Context) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, types.ErrIndexingInProgress
	}
	defer idx.lock.Release()

	start := time.Now()
	idx.table.Reset()
	idx.mu.Lock()
	idx.applied = make(map[string]map[string]struct{})
	idx.mu.Unlock()

	total := &Statistics{ErrorMessages: make([]string, 0)}
	for _, root := range idx.Roots() {
		stats, err := idx.indexRoot(ctx, root)
		if err != nil {
			return nil, err
		}
		total.add(stats)
	}
	total.Duration = time.Since(start)
	return total, nil
}

// extraction is the outcome of one file
type extraction struct {
	uri     string
	symbols []types.Symbol
	words   []string
	cached  bool
}

func (idx *Indexer) indexRoot(ctx context.Context, root string) (*Statistics, error) {
	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", root)
	}

	var ws *storage.Workspace
	if idx.storage != nil {
		if ws, err = idx.getOrCreateWorkspace(ctx, root); err != nil {
			return nil, fmt.Errorf("failed to get or create workspace: %w", err)
		}
	}

	files, err := discoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	matcher := idx.ignores.Matcher(root)
	kept := files[:0]
	for _, f := range files {
		if matcher.Match(f) {
			stats.FilesIgnored++
			continue
		}
		kept = append(kept, f)
	}

	results, err := idx.extractFiles(ctx, ws, root, kept, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}

	// apply in walk order so equal-kind ties resolve the same way each pass
	current := make(map[string]struct{}, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		idx.table.Replace(res.uri, res.symbols, res.words)
		current[res.uri] = struct{}{}
		if res.cached {
			stats.FilesCached++
		} else {
			stats.FilesIndexed++
		}
		stats.SymbolsExtracted += len(res.symbols)
		stats.WordsCollected += len(res.words)
	}

	idx.mu.Lock()
	for uri := range idx.applied[root] {
		if _, ok := current[uri]; !ok {
			idx.table.Remove(uri)
		}
	}
	idx.applied[root] = current
	idx.mu.Unlock()

	stats.Duration = time.Since(startTime)

	if ws != nil {
		if err := idx.pruneDocuments(ctx, ws, current); err != nil {
			return nil, err
		}
		ws.TotalDocuments = len(current)
		ws.TotalSymbols = stats.SymbolsExtracted
		ws.LastIndexedAt = time.Now()
		ws.LastDuration = stats.Duration
		if err := idx.storage.UpdateWorkspace(ctx, ws); err != nil {
			return nil, fmt.Errorf("failed to update workspace stats: %w", err)
		}
	}

	log.Infof("indexed %s: %d parsed, %d cached, %d ignored, %d failed in %s",
		root, stats.FilesIndexed, stats.FilesCached, stats.FilesIgnored, stats.FilesFailed, stats.Duration)
	return stats, nil
}

// extractFiles reads and extracts files concurrently. The result slice is
// parallel to files; failed entries are nil.
func (idx *Indexer) extractFiles(ctx context.Context, ws *storage.Workspace, root string, files []string, stats *Statistics) ([]*extraction, error) {
	settings := idx.Settings()
	opts := settings.ParserOptions()
	workers := settings.Index.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]*extraction, len(files))
	semaphore := make(chan struct{}, workers)

	var (
		failed int32
		mu     sync.Mutex // protects stats.ErrorMessages
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			res, err := idx.extractFile(gctx, ws, root, path, opts)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				log.Warningf("failed to index %s: %v", path, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.FilesFailed += int(failed)
	return results, nil
}

// extractFile hashes path and replays the cached extraction when content
// and options match, otherwise parses and refreshes the cache
func (idx *Indexer) extractFile(ctx context.Context, ws *storage.Workspace, root, path string, opts parser.Options) (*extraction, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	uri := types.FileURI(path)
	hash := xxhash.Sum64(content)

	if ws != nil {
		if res, ok, err := idx.replay(ctx, ws, uri, hash, opts.Bits()); err != nil {
			return nil, err
		} else if ok {
			return res, nil
		}
	}

	result := idx.parser.Parse(uri, string(content), opts)
	res := &extraction{uri: uri, symbols: result.Symbols, words: result.Words}

	if ws != nil {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		doc := &storage.Document{
			WorkspaceID: ws.ID,
			URI:         uri,
			FilePath:    filepath.ToSlash(rel),
			ContentHash: hash,
			Options:     opts.Bits(),
			ModTime:     info.ModTime(),
			SizeBytes:   info.Size(),
		}
		if err := idx.store(ctx, doc, result); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// replay loads a stored extraction if it was made from the same content
// with the same options
func (idx *Indexer) replay(ctx context.Context, ws *storage.Workspace, uri string, hash uint64, options uint8) (*extraction, bool, error) {
	doc, err := idx.storage.GetDocument(ctx, ws.ID, uri)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if doc.ContentHash != hash || doc.Options != options {
		return nil, false, nil
	}

	stored, err := idx.storage.ListSymbolsByDocument(ctx, doc.ID)
	if err != nil {
		return nil, false, err
	}
	words, err := idx.storage.ListWords(ctx, doc.ID)
	if err != nil {
		return nil, false, err
	}

	res := &extraction{uri: uri, words: words, cached: true}
	res.symbols = make([]types.Symbol, 0, len(stored))
	for _, s := range stored {
		res.symbols = append(res.symbols, s.ToTypesSymbol(uri))
	}
	return res, true, nil
}

// store writes a fresh extraction in one transaction
func (idx *Indexer) store(ctx context.Context, doc *storage.Document, result *types.ParseResult) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	if err := tx.DeleteSymbolsByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete old symbols: %w", err)
	}
	for i := range result.Symbols {
		if err := tx.InsertSymbol(ctx, storage.FromTypesSymbol(result.Symbols[i], doc.ID, i)); err != nil {
			return fmt.Errorf("failed to store symbol: %w", err)
		}
	}
	if err := tx.ReplaceWords(ctx, doc.ID, result.Words); err != nil {
		return fmt.Errorf("failed to store words: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// pruneDocuments drops cached documents that were not seen in this pass
func (idx *Indexer) pruneDocuments(ctx context.Context, ws *storage.Workspace, seen map[string]struct{}) error {
	docs, err := idx.storage.ListDocuments(ctx, ws.ID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	for _, d := range docs {
		if _, ok := seen[d.URI]; ok {
			continue
		}
		if err := idx.storage.DeleteDocument(ctx, d.ID); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", d.URI, err)
		}
	}
	return nil
}

// getOrCreateWorkspace retrieves an existing workspace or creates a new one
func (idx *Indexer) getOrCreateWorkspace(ctx context.Context, root string) (*storage.Workspace, error) {
	ws, err := idx.storage.GetWorkspace(ctx, root)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	ws = &storage.Workspace{
		RootPath:     root,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateWorkspace(ctx, ws); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return idx.storage.GetWorkspace(ctx, root)
		}
		return nil, err
	}
	return ws, nil
}

// discoverFiles finds all source files under root in walk order
func discoverFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// skip hidden directories
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if types.IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
