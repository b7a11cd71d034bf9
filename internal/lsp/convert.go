package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/pawnls/internal/symbols"
	"github.com/dshills/pawnls/pkg/types"
)

func toPosition(p protocol.Position) types.Position {
	return types.Position{Line: int(p.Line), Character: int(p.Character)}
}

func fromPosition(p types.Position) protocol.Position {
	return protocol.Position{Line: uinteger(p.Line), Character: uinteger(p.Character)}
}

func toRange(r protocol.Range) types.Range {
	return types.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

func fromRange(r types.Range) protocol.Range {
	return protocol.Range{Start: fromPosition(r.Start), End: fromPosition(r.End)}
}

func fromLocation(l types.Location) protocol.Location {
	return protocol.Location{URI: l.URI, Range: fromRange(l.Range)}
}

func uinteger(v int) protocol.UInteger {
	if v < 0 {
		return 0
	}
	return protocol.UInteger(v)
}

func markdown(value string) protocol.MarkupContent {
	return protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: value}
}

func completionKind(k symbols.CompletionKind) protocol.CompletionItemKind {
	switch k {
	case symbols.CompletionFunction:
		return protocol.CompletionItemKindFunction
	case symbols.CompletionConstant:
		return protocol.CompletionItemKindConstant
	default:
		return protocol.CompletionItemKindText
	}
}

func symbolKind(k types.SymbolKind) protocol.SymbolKind {
	if k.IsCallable() {
		return protocol.SymbolKindFunction
	}
	return protocol.SymbolKindConstant
}

func fromCompletionItem(item symbols.CompletionItem) protocol.CompletionItem {
	kind := completionKind(item.Kind)
	out := protocol.CompletionItem{
		Label: item.Label,
		Kind:  &kind,
	}
	if item.Detail != "" {
		detail := item.Detail
		out.Detail = &detail
	}
	if item.InsertText != "" {
		insert := item.InsertText
		out.InsertText = &insert
	}
	if item.Documentation != "" {
		out.Documentation = markdown(item.Documentation)
	}
	return out
}

func toCompletionItem(item *protocol.CompletionItem) symbols.CompletionItem {
	out := symbols.CompletionItem{Label: item.Label}
	if item.InsertText != nil {
		out.InsertText = *item.InsertText
	}
	if item.Detail != nil {
		out.Detail = *item.Detail
	}
	return out
}
