package lsp

import (
	"context"
	"errors"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/format"
	"github.com/dshills/pawnls/internal/indexer"
	"github.com/dshills/pawnls/internal/searcher"
	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/pkg/types"
)

const (
	// Name is reported to the client in the initialize result
	Name = "pawnls"
)

// Version is set by the command at startup
var Version = "0.1.0"

var log = commonlog.GetLogger("pawnls.lsp")

// Server implements the language server handlers
type Server struct {
	handler  protocol.Handler
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	store    storage.Storage

	// beautifier overrides the external formatter command, used in tests
	beautifier format.Beautifier

	mu        sync.RWMutex
	documents map[string]string
	// editor settings, applied in order over the project config file
	initOptions  any
	editorConfig any
	pullConfig   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server around idx. store backs the workspace symbol
// documentation search and may be nil.
func New(idx *indexer.Indexer, store storage.Storage) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		indexer:   idx,
		searcher:  searcher.NewSearcher(idx.Table(), store),
		store:     store,
		documents: make(map[string]string),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.didOpen,
		TextDocumentDidChange: s.didChange,
		TextDocumentDidSave:   s.didSave,
		TextDocumentDidClose:  s.didClose,

		TextDocumentCompletion:        s.completion,
		CompletionItemResolve:         s.completionResolve,
		TextDocumentHover:             s.hover,
		TextDocumentSignatureHelp:     s.signatureHelp,
		TextDocumentDefinition:        s.definition,
		TextDocumentDocumentSymbol:    s.documentSymbol,
		TextDocumentColor:             s.documentColor,
		TextDocumentColorPresentation: s.colorPresentation,
		TextDocumentFormatting:        s.formatting,
		TextDocumentRangeFormatting:   s.rangeFormatting,
		TextDocumentFoldingRange:      s.foldingRange,

		WorkspaceSymbol:                    s.workspaceSymbol,
		WorkspaceExecuteCommand:            s.executeCommand,
		WorkspaceDidChangeConfiguration:    s.didChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: s.didChangeWorkspaceFolders,
		WorkspaceDidChangeWatchedFiles:     s.didChangeWatchedFiles,
		WorkspaceDidRenameFiles:            s.didRenameFiles,
	}
	return s
}

// Handler returns the protocol handler for use with a glsp server
func (s *Server) Handler() *protocol.Handler {
	return &s.handler
}

// Indexer returns the indexer feeding the server's table
func (s *Server) Indexer() *indexer.Indexer {
	return s.indexer
}

// RunStdio serves the protocol on stdin and stdout until the client exits
func (s *Server) RunStdio(debug bool) error {
	defer s.Close()
	return server.NewServer(&s.handler, Name, debug).RunStdio()
}

// Close cancels background indexing and waits for it to stop
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until background work started so far has finished
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	var roots []string
	for _, folder := range params.WorkspaceFolders {
		if p, err := types.URIPath(folder.URI); err == nil {
			roots = append(roots, p)
		}
	}
	if len(roots) == 0 {
		switch {
		case params.RootURI != nil:
			if p, err := types.URIPath(*params.RootURI); err == nil {
				roots = append(roots, p)
			}
		case params.RootPath != nil && *params.RootPath != "":
			roots = append(roots, *params.RootPath)
		}
	}
	s.indexer.SetRoots(roots)

	s.mu.Lock()
	s.initOptions = params.InitializationOptions
	s.pullConfig = params.Capabilities.Workspace != nil &&
		params.Capabilities.Workspace.Configuration != nil &&
		*params.Capabilities.Workspace.Configuration
	s.mu.Unlock()
	s.indexer.SetSettings(s.settings())

	if params.Trace != nil {
		protocol.SetTraceValue(*params.Trace)
	}
	log.Infof("initialize: %d workspace folders", len(roots))

	version := Version
	return protocol.InitializeResult{
		Capabilities: s.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

func (s *Server) capabilities() protocol.ServerCapabilities {
	syncKind := protocol.TextDocumentSyncKindFull
	yes := true
	scheme := "file"

	return protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &yes,
			Change:    &syncKind,
			Save:      &protocol.SaveOptions{IncludeText: &yes},
		},
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{"#", "@"},
			ResolveProvider:   &yes,
		},
		HoverProvider: true,
		SignatureHelpProvider: &protocol.SignatureHelpOptions{
			TriggerCharacters:   []string{"(", ","},
			RetriggerCharacters: []string{","},
		},
		DefinitionProvider:              true,
		DocumentSymbolProvider:          true,
		ColorProvider:                   true,
		DocumentFormattingProvider:      true,
		DocumentRangeFormattingProvider: true,
		FoldingRangeProvider:            true,
		WorkspaceSymbolProvider:         true,
		ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
			Commands: []string{CommandInitIgnore, CommandAddToIgnore, CommandReindex},
		},
		Workspace: &protocol.ServerCapabilitiesWorkspace{
			WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
				Supported:           &yes,
				ChangeNotifications: &protocol.BoolOrString{Value: true},
			},
			FileOperations: &protocol.ServerCapabilitiesWorkspaceFileOperations{
				DidRename: &protocol.FileOperationRegistrationOptions{
					Filters: []protocol.FileOperationFilter{{
						Scheme:  &scheme,
						Pattern: protocol.FileOperationPattern{Glob: "**/*"},
					}},
				},
			},
		},
	}
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.background(func(bg context.Context) {
		s.fetchConfiguration(ctx)
		s.reindex(bg)
	})
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.cancel()
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// background runs fn outside the request loop. Requests to the client
// block until the reply is read, which the loop cannot do while it is
// inside a handler.
func (s *Server) background(fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// settings composes the project config file of the first workspace folder
// with the editor's initialization options and configuration section
func (s *Server) settings() config.Settings {
	settings := config.Default()
	if roots := s.indexer.Roots(); len(roots) > 0 {
		loaded, err := config.Load(roots[0])
		if err != nil {
			log.Warningf("%v", err)
		} else {
			settings = loaded
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	settings.ApplyEditor(s.initOptions)
	settings.ApplyEditor(s.editorConfig)
	return settings
}

// fetchConfiguration asks the client for the pawn.language section
func (s *Server) fetchConfiguration(ctx *glsp.Context) {
	s.mu.RLock()
	pull := s.pullConfig
	s.mu.RUnlock()
	if !pull || ctx.Call == nil {
		return
	}

	section := config.Section
	var result []any
	ctx.Call(protocol.ServerWorkspaceConfiguration, protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{{Section: &section}},
	}, &result)
	if len(result) == 0 || result[0] == nil {
		return
	}

	s.mu.Lock()
	s.editorConfig = result[0]
	s.mu.Unlock()
}

// reindex applies the current settings, rebuilds the table from every
// workspace folder and lays the open documents back over it
func (s *Server) reindex(ctx context.Context) {
	s.indexer.SetSettings(s.settings())

	stats, err := s.indexer.ReindexAll(ctx)
	switch {
	case errors.Is(err, types.ErrIndexingInProgress):
		log.Infof("reindex skipped: %v", err)
		return
	case err != nil:
		log.Warningf("reindex failed: %v", err)
	default:
		log.Infof("indexed %d files (%d cached, %d ignored) in %s",
			stats.FilesIndexed+stats.FilesCached, stats.FilesCached, stats.FilesIgnored, stats.Duration)
	}
	s.searcher.InvalidateCache()

	s.mu.RLock()
	open := make(map[string]string, len(s.documents))
	for uri, text := range s.documents {
		open[uri] = text
	}
	s.mu.RUnlock()
	for uri, text := range open {
		s.parse(ctx, uri, text)
	}
}

// notify shows a message in the editor
func notify(ctx *glsp.Context, kind protocol.MessageType, message string) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{
		Type:    kind,
		Message: message,
	})
}
