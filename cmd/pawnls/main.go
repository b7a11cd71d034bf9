// Command pawnls analyzes Pawn sources for editors and agents.
//
// It serves the Language Server Protocol on stdio by default, the Model
// Context Protocol with "pawnls mcp", and indexes a directory once with
// "pawnls index".
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	// commonlog needs a backend to write anything
	_ "github.com/tliron/commonlog/simple"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/lsp"
	"github.com/dshills/pawnls/internal/mcp"
	"github.com/dshills/pawnls/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagLogFile   string
	flagVerbosity int
	flagNoCache   bool
)

func main() {
	// stdout is reserved for the protocols
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pawnls",
	Short:         "Pawn language server",
	Long:          "pawnls indexes Pawn sources and answers completion, hover, signature help and definition requests over LSP or MCP.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log", os.Getenv("PAWNLS_LOG"), "log file (default: stderr, env PAWNLS_LOG)")
	rootCmd.PersistentFlags().IntVarP(&flagVerbosity, "verbosity", "v", envInt("PAWNLS_VERBOSITY", 0), "log verbosity from -4 (none) to 2 (debug)")

	rootCmd.AddCommand(serveCmd, mcpCmd, indexCmd, versionCmd)
	lsp.Version = version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pawnls\n")
		fmt.Fprintf(out, "Version: %s\n", version)
		fmt.Fprintf(out, "Build Time: %s\n", buildTime)
		fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
		fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
	},
}

func configureLogging() {
	if flagLogFile == "" {
		commonlog.Configure(flagVerbosity, nil)
		return
	}
	path := flagLogFile
	commonlog.Configure(flagVerbosity, &path)
}

func envInt(name string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return v
	}
	return fallback
}

// openStore opens the extraction cache. Without a usable cache the
// analyzer still works, it just parses every file on each index pass.
func openStore() storage.Storage {
	if flagNoCache {
		return nil
	}
	dbPath, err := config.DBPath()
	if err != nil {
		log.Printf("Extraction cache disabled: %v", err)
		return nil
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		log.Printf("Extraction cache disabled: %v", err)
		return nil
	}
	store, err := storage.NewSQLiteStorage(filepath.Join(dbPath, mcp.DBFile))
	if err != nil {
		log.Printf("Extraction cache disabled: %v", err)
		return nil
	}
	return store
}
