package lsp

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/pawnls/internal/ignore"
	"github.com/dshills/pawnls/pkg/types"
)

// normalize rewrites file URIs to the form the indexer produces so that
// an open document and its file on disk share one table entry
func normalize(uri string) string {
	if p, err := types.URIPath(uri); err == nil {
		return types.FileURI(p)
	}
	return uri
}

// text returns the open document's text, or the file's content when the
// document is not open
func (s *Server) text(uri string) (string, bool) {
	uri = normalize(uri)
	s.mu.RLock()
	text, ok := s.documents[uri]
	s.mu.RUnlock()
	if ok {
		return text, true
	}

	p, err := types.URIPath(uri)
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (s *Server) isOpen(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.documents[uri]
	return ok
}

// parse reparses one document, skipping what the indexer does not take
func (s *Server) parse(ctx context.Context, uri, text string) {
	err := s.indexer.ParseDocument(ctx, uri, text, true)
	if err != nil && !errors.Is(err, types.ErrNotSourceFile) && !errors.Is(err, types.ErrIgnored) {
		log.Warningf("failed to parse %s: %v", uri, err)
	}
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := normalize(params.TextDocument.URI)
	s.mu.Lock()
	s.documents[uri] = params.TextDocument.Text
	s.mu.Unlock()

	s.parse(s.ctx, uri, params.TextDocument.Text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := normalize(params.TextDocument.URI)

	// full sync: the last whole-text change wins
	var text string
	var found bool
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text, found = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text, found = c.Text, true
			}
		}
	}
	if !found {
		return nil
	}

	s.mu.Lock()
	s.documents[uri] = text
	s.mu.Unlock()

	s.parse(s.ctx, uri, text)
	return nil
}

func (s *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := normalize(params.TextDocument.URI)

	if p, err := types.URIPath(uri); err == nil && filepath.Base(p) == ignore.FileName {
		s.ignoreChanged(p)
		return nil
	}

	text, ok := "", false
	if params.Text != nil {
		text, ok = *params.Text, true
		s.mu.Lock()
		s.documents[uri] = text
		s.mu.Unlock()
	} else {
		text, ok = s.text(uri)
	}
	if ok {
		s.parse(s.ctx, uri, text)
	}
	return nil
}

// didClose forgets the editor's text. The table keeps the document, read
// back from disk so unsaved edits do not linger.
func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := normalize(params.TextDocument.URI)
	s.mu.Lock()
	delete(s.documents, uri)
	s.mu.Unlock()

	if !types.IsSourceFile(uri) {
		return nil
	}
	s.refresh(s.ctx, uri)
	return nil
}

// refresh reloads uri from disk, or drops it when the file is gone
func (s *Server) refresh(ctx context.Context, uri string) {
	p, err := types.URIPath(uri)
	if err != nil {
		return
	}
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		if err := s.indexer.RemoveDocument(ctx, uri); err != nil {
			log.Warningf("failed to remove %s: %v", uri, err)
		}
		return
	}
	err = s.indexer.IndexFile(ctx, p)
	if err != nil && !errors.Is(err, types.ErrIgnored) && !errors.Is(err, types.ErrNotSourceFile) {
		log.Warningf("failed to index %s: %v", p, err)
	}
}

// ignoreChanged drops the cached ignore list of the file's folder and
// rebuilds the table
func (s *Server) ignoreChanged(path string) {
	s.indexer.Ignores().Invalidate(filepath.Dir(path))
	s.background(s.reindex)
}

func (s *Server) didChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	s.mu.Lock()
	pull := s.pullConfig
	if params.Settings != nil {
		s.editorConfig = params.Settings
	}
	s.mu.Unlock()

	s.background(func(bg context.Context) {
		if pull {
			s.fetchConfiguration(ctx)
		}
		s.reindex(bg)
	})
	return nil
}

func (s *Server) didChangeWorkspaceFolders(ctx *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	removed := make(map[string]struct{})
	for _, folder := range params.Event.Removed {
		if p, err := types.URIPath(folder.URI); err == nil {
			removed[filepath.Clean(p)] = struct{}{}
		}
	}

	var roots []string
	for _, root := range s.indexer.Roots() {
		if _, ok := removed[filepath.Clean(root)]; !ok {
			roots = append(roots, root)
		}
	}
	for _, folder := range params.Event.Added {
		if p, err := types.URIPath(folder.URI); err == nil {
			roots = append(roots, p)
		}
	}
	s.indexer.SetRoots(roots)
	log.Infof("workspace folders changed: %d folders", len(roots))

	s.background(s.reindex)
	return nil
}

func (s *Server) didChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, change := range params.Changes {
		p, err := types.URIPath(change.URI)
		if err != nil {
			continue
		}
		if filepath.Base(p) == ignore.FileName {
			s.ignoreChanged(p)
			return nil
		}
	}

	for _, change := range params.Changes {
		uri := normalize(change.URI)
		if !types.IsSourceFile(uri) || s.isOpen(uri) {
			continue
		}
		if change.Type == protocol.FileChangeTypeDeleted {
			if err := s.indexer.RemoveDocument(s.ctx, uri); err != nil {
				log.Warningf("failed to remove %s: %v", uri, err)
			}
			continue
		}
		s.refresh(s.ctx, uri)
	}
	s.searcher.InvalidateCache()
	return nil
}

// didRenameFiles moves renamed documents in the table. A renamed folder
// or ignore file rebuilds everything.
func (s *Server) didRenameFiles(ctx *glsp.Context, params *protocol.RenameFilesParams) error {
	for _, file := range params.Files {
		p, err := types.URIPath(file.NewURI)
		if err != nil {
			continue
		}
		info, err := os.Stat(p)
		if (err == nil && info.IsDir()) || filepath.Base(p) == ignore.FileName {
			s.background(s.reindex)
			return nil
		}
	}

	for _, file := range params.Files {
		oldURI, newURI := normalize(file.OldURI), normalize(file.NewURI)
		if types.IsSourceFile(oldURI) {
			if err := s.indexer.RemoveDocument(s.ctx, oldURI); err != nil {
				log.Warningf("failed to remove %s: %v", oldURI, err)
			}
		}
		s.mu.Lock()
		if text, ok := s.documents[oldURI]; ok {
			delete(s.documents, oldURI)
			s.documents[newURI] = text
		}
		s.mu.Unlock()

		if text, ok := s.text(newURI); ok {
			s.parse(s.ctx, newURI, text)
		}
	}
	s.searcher.InvalidateCache()
	return nil
}
