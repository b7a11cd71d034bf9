package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/mcp"
	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/internal/watch"
)

var flagRoots []string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the Model Context Protocol on stdio",
	Long:  "Serves the index_workspace, lookup_symbol, complete, search_symbols and get_status tools. Folders given with --root are indexed at startup and watched for changes.",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	mcpCmd.Flags().StringArrayVar(&flagRoots, "root", nil, "workspace folder to index and watch (repeatable)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	log.Printf("pawnls MCP server %s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	dbPath, err := config.DBPath()
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if len(flagRoots) > 0 {
		idx := server.Indexer()
		idx.SetRoots(flagRoots)
		for _, root := range idx.Roots() {
			settings, err := config.Load(root)
			if err != nil {
				log.Printf("Config for %s: %v", root, err)
			}
			idx.SetSettings(settings)
			stats, err := idx.IndexWorkspace(ctx, root)
			if err != nil {
				return fmt.Errorf("failed to index %s: %w", root, err)
			}
			log.Printf("Indexed %s: %d files (%d cached)", root, stats.FilesIndexed+stats.FilesCached, stats.FilesCached)
		}

		w, err := watch.New(idx, time.Duration(idx.Settings().Index.DebounceMs)*time.Millisecond)
		if err != nil {
			return err
		}
		for _, root := range idx.Roots() {
			if err := w.Add(root); err != nil {
				_ = w.Close()
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Printf("Watcher stopped: %v", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
