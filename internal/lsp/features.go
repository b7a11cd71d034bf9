package lsp

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/pawnls/internal/color"
	"github.com/dshills/pawnls/internal/folding"
	"github.com/dshills/pawnls/internal/format"
	"github.com/dshills/pawnls/internal/scan"
	"github.com/dshills/pawnls/internal/searcher"
	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/pkg/types"
)

// workspaceSymbolLimit caps workspace/symbol responses
const workspaceSymbolLimit = 200

func (s *Server) completion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	items := s.indexer.Table().Completion(normalize(params.TextDocument.URI))
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		out = append(out, fromCompletionItem(item))
	}
	return out, nil
}

func (s *Server) completionResolve(ctx *glsp.Context, item *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	resolved := s.indexer.Table().ResolveCompletion(toCompletionItem(item))
	if item.InsertText != nil {
		insert := resolved.InsertText
		item.InsertText = &insert
	}
	return item, nil
}

func (s *Server) hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := normalize(params.TextDocument.URI)
	text, ok := s.text(uri)
	if !ok {
		return nil, nil
	}
	h := s.indexer.Table().Hover(uri, text, toPosition(params.Position))
	if h == nil {
		return nil, nil
	}
	r := fromRange(h.Range)
	return &protocol.Hover{Contents: markdown(h.Contents), Range: &r}, nil
}

func (s *Server) signatureHelp(ctx *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	uri := normalize(params.TextDocument.URI)
	text, ok := s.text(uri)
	if !ok {
		return nil, nil
	}
	help := s.indexer.Table().SignatureHelp(uri, text, toPosition(params.Position))
	if help == nil {
		return nil, nil
	}

	out := &protocol.SignatureHelp{}
	for _, sig := range help.Signatures {
		parameters := make([]protocol.ParameterInformation, 0, len(sig.Parameters))
		for _, p := range sig.Parameters {
			parameters = append(parameters, protocol.ParameterInformation{Label: p})
		}
		active := uinteger(sig.ActiveParameter)
		info := protocol.SignatureInformation{
			Label:           sig.Label,
			Parameters:      parameters,
			ActiveParameter: &active,
		}
		if sig.Documentation != "" {
			info.Documentation = markdown(sig.Documentation)
		}
		out.Signatures = append(out.Signatures, info)
	}
	activeSig, activeParam := uinteger(help.ActiveSignature), uinteger(help.ActiveParameter)
	out.ActiveSignature = &activeSig
	out.ActiveParameter = &activeParam
	return out, nil
}

func (s *Server) definition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := normalize(params.TextDocument.URI)
	text, ok := s.text(uri)
	if !ok {
		return nil, nil
	}
	loc := s.indexer.Table().Definition(uri, text, toPosition(params.Position))
	if loc == nil {
		return nil, nil
	}
	return fromLocation(*loc), nil
}

func (s *Server) documentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	syms := s.searcher.DocumentSymbols(normalize(params.TextDocument.URI))
	if len(syms) == 0 {
		return nil, nil
	}
	out := make([]protocol.DocumentSymbol, 0, len(syms))
	for _, sym := range syms {
		detail := sym.Label
		r := fromRange(sym.Location.Range)
		out = append(out, protocol.DocumentSymbol{
			Name:           sym.Name,
			Detail:         &detail,
			Kind:           symbolKind(sym.Kind),
			Range:          r,
			SelectionRange: r,
		})
	}
	return out, nil
}

func (s *Server) workspaceSymbol(ctx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	resp, err := s.searcher.Search(s.ctx, searcher.SearchRequest{
		Query:        params.Query,
		Limit:        workspaceSymbolLimit,
		WorkspaceIDs: s.workspaceIDs(),
		UseCache:     true,
	})
	if errors.Is(err, types.ErrEmptyQuery) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]protocol.SymbolInformation, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, protocol.SymbolInformation{
			Name:     r.Symbol.Name,
			Kind:     symbolKind(r.Symbol.Kind),
			Location: fromLocation(r.Symbol.Location),
		})
	}
	return out, nil
}

// workspaceIDs resolves the cached workspaces of every root. Roots that
// were never indexed into the cache are skipped.
func (s *Server) workspaceIDs() []int64 {
	if s.store == nil {
		return nil
	}
	var ids []int64
	for _, root := range s.indexer.Roots() {
		ws, err := s.store.GetWorkspace(s.ctx, root)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.Warningf("failed to look up workspace %s: %v", root, err)
			}
			continue
		}
		ids = append(ids, ws.ID)
	}
	return ids
}

func (s *Server) documentColor(ctx *glsp.Context, params *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	text, ok := s.text(params.TextDocument.URI)
	if !ok || !types.IsSourceFile(params.TextDocument.URI) {
		return nil, nil
	}
	found := color.Find(text, s.indexer.Settings().Color)
	out := make([]protocol.ColorInformation, 0, len(found))
	for _, info := range found {
		out = append(out, protocol.ColorInformation{
			Range: fromRange(info.Range),
			Color: protocol.Color{
				Red:   protocol.Decimal(info.Color.Red),
				Green: protocol.Decimal(info.Color.Green),
				Blue:  protocol.Decimal(info.Color.Blue),
				Alpha: protocol.Decimal(info.Color.Alpha),
			},
		})
	}
	return out, nil
}

func (s *Server) colorPresentation(ctx *glsp.Context, params *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	text, ok := s.text(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	r := toRange(params.Range)
	start, end := scan.ToOffset(text, r.Start), scan.ToOffset(text, r.End)
	if end < start {
		return nil, nil
	}

	c := color.Color{
		Red:   float64(params.Color.Red),
		Green: float64(params.Color.Green),
		Blue:  float64(params.Color.Blue),
		Alpha: float64(params.Color.Alpha),
	}
	labels := color.Presentations(c, text[start:end], s.indexer.Settings().Color)
	out := make([]protocol.ColorPresentation, 0, len(labels))
	for _, label := range labels {
		out = append(out, protocol.ColorPresentation{
			Label:    label,
			TextEdit: &protocol.TextEdit{Range: params.Range, NewText: label},
		})
	}
	return out, nil
}

// formatter builds a formatter from the current settings. The editor's
// tab size is used when no indent size is configured.
func (s *Server) formatter(opts protocol.FormattingOptions) *format.Formatter {
	settings := s.indexer.Settings().Format
	if settings.IndentSize == 0 {
		if size, ok := opts[protocol.FormattingOptionTabSize].(float64); ok {
			settings.IndentSize = int(size)
		}
	}
	return format.New(s.beautifier, settings)
}

func (s *Server) formatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	text, ok := s.text(params.TextDocument.URI)
	if !ok || !types.IsSourceFile(params.TextDocument.URI) {
		return nil, nil
	}
	edits, err := s.formatter(params.Options).Document(s.ctx, text)
	return s.textEdits(ctx, edits, err)
}

func (s *Server) rangeFormatting(ctx *glsp.Context, params *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) {
	text, ok := s.text(params.TextDocument.URI)
	if !ok || !types.IsSourceFile(params.TextDocument.URI) {
		return nil, nil
	}
	edits, err := s.formatter(params.Options).Range(s.ctx, text, toRange(params.Range))
	return s.textEdits(ctx, edits, err)
}

// textEdits converts formatter output. Formatter failures are reported to
// the user rather than failing the request.
func (s *Server) textEdits(ctx *glsp.Context, edits []format.TextEdit, err error) ([]protocol.TextEdit, error) {
	if err != nil {
		log.Warningf("format failed: %v", err)
		if errors.Is(err, format.ErrBeautifierNotFound) {
			notify(ctx, protocol.MessageTypeWarning, fmt.Sprintf("Formatting needs js-beautify on PATH: %v", err))
		} else if !errors.Is(err, context.Canceled) {
			notify(ctx, protocol.MessageTypeWarning, fmt.Sprintf("Formatting failed: %v", err))
		}
		return nil, nil
	}

	out := make([]protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, protocol.TextEdit{Range: fromRange(e.Range), NewText: e.NewText})
	}
	return out, nil
}

func (s *Server) foldingRange(ctx *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	text, ok := s.text(params.TextDocument.URI)
	if !ok || !types.IsSourceFile(params.TextDocument.URI) {
		return nil, nil
	}
	ranges, err := folding.Ranges(s.ctx, text)
	if err != nil {
		log.Warningf("folding failed: %v", err)
		return nil, nil
	}

	out := make([]protocol.FoldingRange, 0, len(ranges))
	for _, r := range ranges {
		fr := protocol.FoldingRange{StartLine: uinteger(r.StartLine), EndLine: uinteger(r.EndLine)}
		if r.Kind != "" {
			kind := r.Kind
			fr.Kind = &kind
		}
		out = append(out, fr)
	}
	return out, nil
}
