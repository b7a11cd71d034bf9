// Package watch keeps the symbol table in step with files changed outside
// an editor.
//
// Events are collected per path and applied once the directory has been
// quiet for the debounce interval. A changed .pawnignore reindexes every
// workspace folder; other source files are reparsed or removed one by one.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"

	"github.com/dshills/pawnls/internal/ignore"
	"github.com/dshills/pawnls/internal/indexer"
	"github.com/dshills/pawnls/pkg/types"
)

var log = commonlog.GetLogger("pawnls.watch")

// Watcher applies file system changes below the watched roots to an
// indexer
type Watcher struct {
	fs       *fsnotify.Watcher
	indexer  *indexer.Indexer
	debounce time.Duration

	pending map[string]struct{}
	flushes atomic.Int64
}

// New creates a Watcher. Nothing is watched until Add is called.
func New(idx *indexer.Indexer, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = time.Millisecond
	}
	return &Watcher{
		fs:       w,
		indexer:  idx,
		debounce: debounce,
		pending:  make(map[string]struct{}),
	}, nil
}

// Add watches root and every non-hidden directory below it
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			log.Warningf("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is done, then releases the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warningf("watcher error: %v", err)

		case <-fire:
			fire = nil
			w.flush(ctx)
		}
	}
}

// Close stops watching. Run also closes the watcher when it returns.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Flushes reports how many debounced batches have been applied
func (w *Watcher) Flushes() int64 {
	return w.flushes.Load()
}

// handle records a relevant event and reports whether it was one
func (w *Watcher) handle(event fsnotify.Event) bool {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.Add(path); err != nil {
				log.Warningf("failed to watch new directory %s: %v", path, err)
			}
			return false
		}
	}
	if event.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Base(path) != ignore.FileName && !types.IsSourceFile(path) {
		return false
	}

	w.pending[path] = struct{}{}
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(paths)
	defer w.flushes.Add(1)

	reindex := false
	for _, p := range paths {
		if filepath.Base(p) == ignore.FileName {
			w.indexer.Ignores().Invalidate(filepath.Dir(p))
			reindex = true
		}
	}
	if reindex {
		stats, err := w.indexer.ReindexAll(ctx)
		if err != nil {
			log.Warningf("reindex after %s change failed: %v", ignore.FileName, err)
			return
		}
		log.Infof("reindexed %d files after %s change", stats.FilesIndexed+stats.FilesCached, ignore.FileName)
		return
	}

	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			if err := w.indexer.RemoveDocument(ctx, types.FileURI(p)); err != nil {
				log.Warningf("failed to remove %s: %v", p, err)
			}
			continue
		}
		err := w.indexer.IndexFile(ctx, p)
		if err != nil && !errors.Is(err, types.ErrIgnored) {
			log.Warningf("failed to index %s: %v", p, err)
		}
	}
	log.Debugf("applied %d file changes", len(paths))
}
