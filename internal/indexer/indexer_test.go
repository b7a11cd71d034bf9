package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/ignore"
	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/internal/symbols"
	"github.com/dshills/pawnls/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const mainSource = `#include <a_samp>

native SetHealth(playerid, Float:health);

stock GiveCash(playerid, amount)
{
	return 1;
}
`

const includeSource = `#define MAX_CASH 500000
#define Clamp(%0,%1) ((%0) > (%1) ? (%1) : (%0))
`

func setupTestStorage(t testing.TB) storage.Storage {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestFile(t testing.TB, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func setupWorkspace(t testing.TB) string {
	dir := t.TempDir()
	createTestFile(t, dir, "gamemodes/main.pwn", mainSource)
	createTestFile(t, dir, "include/cash.inc", includeSource)
	return dir
}

func TestNew(t *testing.T) {
	table := symbols.NewTable()
	idx := New(table, nil)

	assert.Same(t, table, idx.Table())
	assert.NotNil(t, idx.Ignores())
	assert.Equal(t, config.Default(), idx.Settings())
	assert.Empty(t, idx.Roots())
}

func TestParseDocument(t *testing.T) {
	idx := New(symbols.NewTable(), nil)
	ctx := context.Background()
	uri := "file:///srv/main.pwn"

	require.NoError(t, idx.ParseDocument(ctx, uri, mainSource, true))
	sym, ok := idx.Table().Lookup("SetHealth")
	require.True(t, ok)
	assert.Equal(t, types.KindNative, sym.Kind)
	assert.Equal(t, uri, sym.SourceURI)

	// reparsing the same text is idempotent
	before := idx.Table().Stats()
	require.NoError(t, idx.ParseDocument(ctx, uri, mainSource, true))
	assert.Equal(t, before, idx.Table().Stats())

	// edits drop symbols the document no longer declares
	require.NoError(t, idx.ParseDocument(ctx, uri, "native Other();\n", true))
	_, ok = idx.Table().Lookup("SetHealth")
	assert.False(t, ok)
	_, ok = idx.Table().Lookup("Other")
	assert.True(t, ok)
}

func TestParseDocument_NonSource(t *testing.T) {
	idx := New(symbols.NewTable(), nil)

	err := idx.ParseDocument(context.Background(), "file:///srv/readme.md", mainSource, false)
	assert.ErrorIs(t, err, types.ErrNotSourceFile)
	assert.Empty(t, idx.Table().Symbols())
}

func TestParseDocument_Reset(t *testing.T) {
	idx := New(symbols.NewTable(), nil)
	ctx := context.Background()
	uri := "file:///srv/main.pwn"

	require.NoError(t, idx.ParseDocument(ctx, "file:///srv/a.inc", "native FromA();\n", true))
	require.NoError(t, idx.ParseDocument(ctx, uri, "native Old();\n", true))
	require.NoError(t, idx.ParseDocument(ctx, uri, mainSource, true))

	_, ok := idx.Table().Lookup("FromA")
	assert.True(t, ok, "other documents keep their symbols")
	_, ok = idx.Table().Lookup("Old")
	assert.False(t, ok)
	_, ok = idx.Table().Lookup("GiveCash")
	assert.True(t, ok)
}

func TestParseDocument_Accumulates(t *testing.T) {
	idx := New(symbols.NewTable(), nil)
	ctx := context.Background()
	uri := "file:///srv/main.pwn"

	require.NoError(t, idx.ParseDocument(ctx, "file:///srv/a.inc", "native FromA();\n", false))
	require.NoError(t, idx.ParseDocument(ctx, uri, "native Old();\n", false))
	require.NoError(t, idx.ParseDocument(ctx, uri, mainSource, false))

	for _, name := range []string{"FromA", "Old", "SetHealth", "GiveCash"} {
		sym, ok := idx.Table().Lookup(name)
		if assert.True(t, ok, name) && name != "FromA" {
			assert.Equal(t, uri, sym.SourceURI)
		}
	}
}

func TestParseDocument_IgnoredKeepsSymbolsWithoutReset(t *testing.T) {
	dir := setupWorkspace(t)
	idx := New(symbols.NewTable(), nil)
	idx.SetRoots([]string{dir})
	ctx := context.Background()

	uri := types.FileURI(filepath.Join(dir, "include", "cash.inc"))
	require.NoError(t, idx.ParseDocument(ctx, uri, includeSource, true))

	createTestFile(t, dir, ignore.FileName, "include\n")
	idx.Ignores().Invalidate(dir)

	assert.ErrorIs(t, idx.ParseDocument(ctx, uri, includeSource, false), types.ErrIgnored)
	_, ok := idx.Table().Lookup("MAX_CASH")
	assert.True(t, ok)

	assert.ErrorIs(t, idx.ParseDocument(ctx, uri, includeSource, true), types.ErrIgnored)
	_, ok = idx.Table().Lookup("MAX_CASH")
	assert.False(t, ok)
}

func TestParseDocument_RespectsSettings(t *testing.T) {
	idx := New(symbols.NewTable(), nil)
	s := config.Default()
	s.Language.AllowNatives = false
	idx.SetSettings(s)

	require.NoError(t, idx.ParseDocument(context.Background(), "file:///srv/main.pwn", mainSource, false))
	_, ok := idx.Table().Lookup("SetHealth")
	assert.False(t, ok)
	_, ok = idx.Table().Lookup("GiveCash")
	assert.True(t, ok)
}

func TestParseDocument_Ignored(t *testing.T) {
	dir := setupWorkspace(t)
	createTestFile(t, dir, ignore.FileName, "include\n")

	idx := New(symbols.NewTable(), nil)
	idx.SetRoots([]string{dir})
	ctx := context.Background()

	uri := types.FileURI(filepath.Join(dir, "include", "cash.inc"))
	err := idx.ParseDocument(ctx, uri, includeSource, false)
	assert.ErrorIs(t, err, types.ErrIgnored)
	_, ok := idx.Table().Lookup("MAX_CASH")
	assert.False(t, ok)

	uri = types.FileURI(filepath.Join(dir, "gamemodes", "main.pwn"))
	assert.NoError(t, idx.ParseDocument(ctx, uri, mainSource, false))
}

func TestParseDocument_Cancelled(t *testing.T) {
	idx := New(symbols.NewTable(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := idx.ParseDocument(ctx, "file:///srv/main.pwn", mainSource, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRootFor(t *testing.T) {
	idx := New(symbols.NewTable(), nil)
	outer := t.TempDir()
	inner := filepath.Join(outer, "nested")
	idx.SetRoots([]string{outer, inner})

	assert.Equal(t, inner, idx.RootFor(filepath.Join(inner, "a.pwn")))
	assert.Equal(t, outer, idx.RootFor(filepath.Join(outer, "b.pwn")))
	assert.Equal(t, "", idx.RootFor(filepath.Join(filepath.Dir(outer), "c.pwn")))
}

func TestDiscoverFiles(t *testing.T) {
	dir := setupWorkspace(t)
	createTestFile(t, dir, ".git/hooks/x.pwn", "native Hidden();\n")
	createTestFile(t, dir, "README.md", "# server\n")
	createTestFile(t, dir, "filterscripts/admin.pawn", "native Admin();\n")

	files, err := discoverFiles(dir)
	require.NoError(t, err)

	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.ElementsMatch(t, []string{"gamemodes/main.pwn", "include/cash.inc", "filterscripts/admin.pawn"}, rel)
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	files, err := discoverFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIndexWorkspace_WithoutStorage(t *testing.T) {
	dir := setupWorkspace(t)
	idx := New(symbols.NewTable(), nil)

	stats, err := idx.IndexWorkspace(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesCached)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 4, stats.SymbolsExtracted)
	assert.Greater(t, stats.WordsCollected, 0)

	for _, name := range []string{"SetHealth", "GiveCash", "MAX_CASH", "Clamp"} {
		_, ok := idx.Table().Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestIndexWorkspace_ReplaysCache(t *testing.T) {
	dir := setupWorkspace(t)
	store := setupTestStorage(t)
	idx := New(symbols.NewTable(), store)
	ctx := context.Background()

	stats, err := idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesCached)
	first, _ := idx.Table().Lookup("SetHealth")

	stats, err = idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 2, stats.FilesCached)
	assert.Equal(t, 4, stats.SymbolsExtracted)

	replayed, ok := idx.Table().Lookup("SetHealth")
	require.True(t, ok)
	assert.Equal(t, first, replayed)

	// a changed file is parsed again
	createTestFile(t, dir, "include/cash.inc", includeSource+"#define MIN_CASH 0\n")
	stats, err = idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesCached)
	_, ok = idx.Table().Lookup("MIN_CASH")
	assert.True(t, ok)

	ws, err := store.GetWorkspace(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, ws.TotalDocuments)
	assert.Equal(t, 5, ws.TotalSymbols)
	assert.False(t, ws.LastIndexedAt.IsZero())
}

func TestIndexWorkspace_OptionsInvalidateCache(t *testing.T) {
	dir := setupWorkspace(t)
	idx := New(symbols.NewTable(), setupTestStorage(t))
	ctx := context.Background()

	_, err := idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)

	s := config.Default()
	s.Language.AllowDefine = false
	idx.SetSettings(s)

	stats, err := idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesCached)
	_, ok := idx.Table().Lookup("MAX_CASH")
	assert.False(t, ok)
}

func TestIndexWorkspace_PrunesDeletedFiles(t *testing.T) {
	dir := setupWorkspace(t)
	store := setupTestStorage(t)
	idx := New(symbols.NewTable(), store)
	ctx := context.Background()

	_, err := idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "include", "cash.inc")))
	stats, err := idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesCached)

	_, ok := idx.Table().Lookup("MAX_CASH")
	assert.False(t, ok)

	ws, err := store.GetWorkspace(ctx, dir)
	require.NoError(t, err)
	docs, err := store.ListDocuments(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIndexWorkspace_IgnoreList(t *testing.T) {
	dir := setupWorkspace(t)
	createTestFile(t, dir, ignore.FileName, "// vendored\ninclude/*.inc\n")
	idx := New(symbols.NewTable(), nil)

	stats, err := idx.IndexWorkspace(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesIgnored)

	_, ok := idx.Table().Lookup("MAX_CASH")
	assert.False(t, ok)
}

func TestIndexWorkspace_NotADirectory(t *testing.T) {
	dir := setupWorkspace(t)
	idx := New(symbols.NewTable(), nil)

	_, err := idx.IndexWorkspace(context.Background(), filepath.Join(dir, "gamemodes", "main.pwn"))
	assert.Error(t, err)

	_, err = idx.IndexWorkspace(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestIndexWorkspace_InProgress(t *testing.T) {
	dir := setupWorkspace(t)
	idx := New(symbols.NewTable(), nil)

	require.True(t, idx.lock.TryAcquire())
	_, err := idx.IndexWorkspace(context.Background(), dir)
	assert.ErrorIs(t, err, types.ErrIndexingInProgress)
	_, err = idx.ReindexAll(context.Background())
	assert.ErrorIs(t, err, types.ErrIndexingInProgress)
	idx.lock.Release()

	_, err = idx.IndexWorkspace(context.Background(), dir)
	assert.NoError(t, err)
}

func TestIndexWorkspace_ConcurrentCalls(t *testing.T) {
	dir := setupWorkspace(t)
	idx := New(symbols.NewTable(), setupTestStorage(t))

	const callers = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := idx.IndexWorkspace(context.Background(), dir)
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, types.ErrIndexingInProgress):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, succeeded.Load(), int32(1))
	assert.Equal(t, int32(callers), succeeded.Load()+rejected.Load())
	assert.False(t, idx.lock.Held())
}

func TestIndexWorkspace_ContextCancellation(t *testing.T) {
	dir := setupWorkspace(t)
	idx := New(symbols.NewTable(), setupTestStorage(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexWorkspace(ctx, dir)
	assert.Error(t, err)
	assert.False(t, idx.lock.Held())
}

func TestReindexAll(t *testing.T) {
	first := setupWorkspace(t)
	second := t.TempDir()
	createTestFile(t, second, "scripts/admin.pwn", "native Kick(playerid);\n")

	idx := New(symbols.NewTable(), nil)
	idx.SetRoots([]string{first, second})
	ctx := context.Background()

	// a stray buffer outside every folder is dropped by the reset
	require.NoError(t, idx.ParseDocument(ctx, "file:///tmp/scratch.pwn", "native Stray();\n", false))

	stats, err := idx.ReindexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FilesIndexed)
	assert.Equal(t, 5, stats.SymbolsExtracted)

	_, ok := idx.Table().Lookup("Kick")
	assert.True(t, ok)
	_, ok = idx.Table().Lookup("Stray")
	assert.False(t, ok)
}

func TestIndexFile(t *testing.T) {
	dir := setupWorkspace(t)
	store := setupTestStorage(t)
	idx := New(symbols.NewTable(), store)
	idx.SetRoots([]string{dir})
	ctx := context.Background()

	path := filepath.Join(dir, "include", "cash.inc")
	require.NoError(t, idx.IndexFile(ctx, path))
	_, ok := idx.Table().Lookup("Clamp")
	assert.True(t, ok)

	ws, err := store.GetWorkspace(ctx, dir)
	require.NoError(t, err)
	doc, err := store.GetDocument(ctx, ws.ID, types.FileURI(path))
	require.NoError(t, err)
	assert.Equal(t, "include/cash.inc", doc.FilePath)

	assert.ErrorIs(t, idx.IndexFile(ctx, filepath.Join(dir, "notes.txt")), types.ErrNotSourceFile)
	assert.Error(t, idx.IndexFile(ctx, filepath.Join(dir, "missing.pwn")))
}

func TestRemoveDocument(t *testing.T) {
	dir := setupWorkspace(t)
	store := setupTestStorage(t)
	idx := New(symbols.NewTable(), store)
	idx.SetRoots([]string{dir})
	ctx := context.Background()

	_, err := idx.IndexWorkspace(ctx, dir)
	require.NoError(t, err)

	uri := types.FileURI(filepath.Join(dir, "include", "cash.inc"))
	require.NoError(t, idx.RemoveDocument(ctx, uri))

	_, ok := idx.Table().Lookup("MAX_CASH")
	assert.False(t, ok)

	ws, err := store.GetWorkspace(ctx, dir)
	require.NoError(t, err)
	_, err = store.GetDocument(ctx, ws.ID, uri)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// removing twice is fine
	assert.NoError(t, idx.RemoveDocument(ctx, uri))
}

func TestIndexLock(t *testing.T) {
	t.Run("acquire release", func(t *testing.T) {
		var lock IndexLock
		require.True(t, lock.TryAcquire())
		assert.True(t, lock.Held())
		assert.False(t, lock.TryAcquire())
		lock.Release()
		assert.False(t, lock.Held())
		assert.True(t, lock.TryAcquire())
		lock.Release()
	})

	t.Run("one winner under contention", func(t *testing.T) {
		var lock IndexLock
		const goroutines = 100

		var (
			wg       sync.WaitGroup
			acquired atomic.Int32
		)
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				if lock.TryAcquire() {
					acquired.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), acquired.Load())
	})
}
