package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dshills/pawnls/internal/ignore"
	"github.com/dshills/pawnls/internal/indexer"
	"github.com/dshills/pawnls/internal/symbols"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// setupWatched indexes a workspace holding main.pwn and starts a watcher
// on it that is stopped when the test ends
func setupWatched(t *testing.T) (*indexer.Indexer, *Watcher, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "main.pwn", "native Kick(playerid);\n")

	idx := indexer.New(symbols.NewTable(), nil)
	idx.SetRoots([]string{root})
	_, err := idx.IndexWorkspace(context.Background(), root)
	require.NoError(t, err)

	w, err := New(idx, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Add(root))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return idx, w, root
}

func has(idx *indexer.Indexer, name string) bool {
	_, ok := idx.Table().Lookup(name)
	return ok
}

func TestWatcher_CreateAndChange(t *testing.T) {
	idx, w, root := setupWatched(t)
	require.True(t, has(idx, "Kick"))

	writeFile(t, root, "cash.inc", "#define MAX_CASH 500000\n")
	assert.Eventually(t, func() bool { return has(idx, "MAX_CASH") }, waitFor, tick)

	writeFile(t, root, "main.pwn", "native Ban(playerid);\n")
	assert.Eventually(t, func() bool { return has(idx, "Ban") && !has(idx, "Kick") }, waitFor, tick)
	assert.Positive(t, w.Flushes())
}

func TestWatcher_Remove(t *testing.T) {
	idx, _, root := setupWatched(t)

	require.NoError(t, os.Remove(filepath.Join(root, "main.pwn")))
	assert.Eventually(t, func() bool { return !has(idx, "Kick") }, waitFor, tick)
}

func TestWatcher_NewDirectory(t *testing.T) {
	idx, _, root := setupWatched(t)

	dir := filepath.Join(root, "include")
	require.NoError(t, os.Mkdir(dir, 0755))

	// the new directory is watched once its create event is handled, so
	// keep touching the file until a write lands
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "money.inc"), []byte("native GivePlayerMoney(playerid, money);\n"), 0644)
		return has(idx, "GivePlayerMoney")
	}, waitFor, 50*time.Millisecond)
}

func TestWatcher_IgnoreListReindexes(t *testing.T) {
	idx, _, root := setupWatched(t)

	writeFile(t, root, ignore.FileName, "main.pwn\n")
	assert.Eventually(t, func() bool { return !has(idx, "Kick") }, waitFor, tick)

	writeFile(t, root, ignore.FileName, "// nothing ignored\n")
	assert.Eventually(t, func() bool { return has(idx, "Kick") }, waitFor, tick)
}

func TestHandle(t *testing.T) {
	idx := indexer.New(symbols.NewTable(), nil)
	w, err := New(idx, 0)
	require.NoError(t, err)
	defer w.Close()

	dir := t.TempDir()
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{name: "source write", event: fsnotify.Event{Name: filepath.Join(dir, "a.pwn"), Op: fsnotify.Write}, want: true},
		{name: "include remove", event: fsnotify.Event{Name: filepath.Join(dir, "a.inc"), Op: fsnotify.Remove}, want: true},
		{name: "ignore file", event: fsnotify.Event{Name: filepath.Join(dir, ignore.FileName), Op: fsnotify.Create}, want: true},
		{name: "chmod only", event: fsnotify.Event{Name: filepath.Join(dir, "a.pwn"), Op: fsnotify.Chmod}, want: false},
		{name: "other file", event: fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}, want: false},
		{name: "directory", event: fsnotify.Event{Name: dir, Op: fsnotify.Create}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.handle(tt.event))
		})
	}
	assert.Len(t, w.pending, 3)
	assert.Equal(t, time.Millisecond, w.debounce)
}
