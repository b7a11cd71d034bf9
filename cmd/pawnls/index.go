package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/indexer"
	"github.com/dshills/pawnls/internal/symbols"
	"github.com/dshills/pawnls/internal/watch"
)

var (
	flagWatch bool
	flagJSON  bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a workspace folder and print statistics",
	Long:  "Walks the folder, extracts symbols from every .pwn, .inc and .pawn file not listed in .pawnignore, and stores the results in the extraction cache.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagWatch, "watch", false, "keep running and reindex files as they change")
	indexCmd.Flags().BoolVar(&flagJSON, "json", false, "print statistics as JSON")
	indexCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "do not use the extraction cache")
}

func runIndex(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	settings, err := config.Load(root)
	if err != nil {
		return err
	}

	store := openStore()
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx := indexer.New(symbols.NewTable(), store)
	idx.SetSettings(settings)
	idx.SetRoots([]string{root})

	stats, err := idx.IndexWorkspace(ctx, root)
	if err != nil {
		return err
	}
	if err := printStats(cmd.OutOrStdout(), stats, idx.Table().Stats()); err != nil {
		return err
	}

	if !flagWatch {
		return nil
	}
	w, err := watch.New(idx, time.Duration(settings.Index.DebounceMs)*time.Millisecond)
	if err != nil {
		return err
	}
	if err := w.Add(idx.Roots()[0]); err != nil {
		_ = w.Close()
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s, press Ctrl-C to stop\n", idx.Roots()[0])
	return w.Run(ctx)
}

func printStats(out io.Writer, stats *indexer.Statistics, table symbols.Stats) error {
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"files_indexed":     stats.FilesIndexed,
			"files_cached":      stats.FilesCached,
			"files_ignored":     stats.FilesIgnored,
			"files_failed":      stats.FilesFailed,
			"symbols_extracted": stats.SymbolsExtracted,
			"words_collected":   stats.WordsCollected,
			"duration_ms":       stats.Duration.Milliseconds(),
			"errors":            stats.ErrorMessages,
			"table":             table,
		})
	}

	fmt.Fprintf(out, "Files indexed:  %d\n", stats.FilesIndexed)
	fmt.Fprintf(out, "Files cached:   %d\n", stats.FilesCached)
	fmt.Fprintf(out, "Files ignored:  %d\n", stats.FilesIgnored)
	fmt.Fprintf(out, "Files failed:   %d\n", stats.FilesFailed)
	fmt.Fprintf(out, "Symbols:        %d (%d bound)\n", stats.SymbolsExtracted, table.Symbols)
	fmt.Fprintf(out, "Words:          %d\n", stats.WordsCollected)
	fmt.Fprintf(out, "Duration:       %s\n", stats.Duration.Round(time.Millisecond))
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(out, "  error: %s\n", msg)
	}
	return nil
}
