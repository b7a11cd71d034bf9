package lsp

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/pawnls/internal/ignore"
	"github.com/dshills/pawnls/pkg/types"
)

// Commands accepted by workspace/executeCommand
const (
	// CommandInitIgnore creates .pawnignore in the first workspace folder
	CommandInitIgnore = "pawnls.initIgnore"
	// CommandAddToIgnore appends the document URI argument to its
	// folder's .pawnignore
	CommandAddToIgnore = "pawnls.addToIgnore"
	// CommandReindex rebuilds the table from every workspace folder
	CommandReindex = "pawnls.reindex"
)

func (s *Server) executeCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	switch params.Command {
	case CommandInitIgnore:
		roots := s.indexer.Roots()
		if len(roots) == 0 {
			notify(ctx, protocol.MessageTypeWarning, "Open a workspace folder to create "+ignore.FileName)
			return nil, nil
		}
		file, err := ignore.Init(roots[0])
		if errors.Is(err, ignore.ErrExists) {
			notify(ctx, protocol.MessageTypeInfo, ignore.FileName+" already exists")
			return file, nil
		}
		if err != nil {
			return nil, err
		}
		return file, nil

	case CommandAddToIgnore:
		if len(params.Arguments) == 0 {
			return nil, fmt.Errorf("%s needs a document URI", CommandAddToIgnore)
		}
		uri, ok := params.Arguments[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s needs a document URI", CommandAddToIgnore)
		}
		path, err := types.URIPath(uri)
		if err != nil {
			return nil, err
		}
		root := s.indexer.RootFor(path)
		if root == "" {
			return nil, fmt.Errorf("%s is not inside a workspace folder", path)
		}
		added, err := ignore.Add(root, path)
		if err != nil {
			return nil, err
		}
		if !added {
			notify(ctx, protocol.MessageTypeInfo, "Already listed in "+ignore.FileName)
			return false, nil
		}
		s.ignoreChanged(filepath.Join(root, ignore.FileName))
		return true, nil

	case CommandReindex:
		s.background(s.reindex)
		return nil, nil
	}
	return nil, fmt.Errorf("unknown command %q", params.Command)
}
