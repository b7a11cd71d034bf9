package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/dshills/pawnls/internal/indexer"
	"github.com/dshills/pawnls/internal/lsp"
	"github.com/dshills/pawnls/internal/symbols"
)

var flagDebug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Language Server Protocol on stdio (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "log protocol traffic")
	serveCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "do not use the extraction cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	store := openStore()
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	log.Printf("pawnls %s starting LSP on stdio", version)
	srv := lsp.New(indexer.New(symbols.NewTable(), store), store)
	return srv.RunStdio(flagDebug)
}
