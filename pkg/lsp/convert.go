package lsp

import (
	"github.com/walteh/chtlls/pkg/completion"
	"github.com/walteh/chtlls/pkg/diagnostic"
	"github.com/walteh/chtlls/pkg/format"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
	"github.com/walteh/chtlls/pkg/position"
)

func toProtocolPosition(p position.Place) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func toProtocolRange(r position.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}

func offsetOf(text string, p protocol.Position) int {
	return position.OffsetFromPlace(text, position.Place{Line: int(p.Line), Character: int(p.Character)})
}

// applyChange returns text with change applied. A change without a range
// replaces the whole document.
func applyChange(text string, change protocol.TextDocumentContentChangeEvent) string {
	if change.Range == nil {
		return change.Text
	}
	start := offsetOf(text, change.Range.Start)
	end := offsetOf(text, change.Range.End)
	if end < start {
		start, end = end, start
	}
	return text[:start] + change.Text + text[end:]
}

func toProtocolDiagnostics(diags []diagnostic.Diagnostic, text string) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Location.GetRange(text)),
			Severity: protocol.DiagnosticSeverity(d.Severity),
			Code:     d.Code,
			Source:   ServerName,
			Message:  d.Message,
		})
	}
	return out
}

func toProtocolCompletion(items []completion.Item) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		ci := protocol.CompletionItem{
			Label:            item.Label,
			Kind:             protocol.CompletionItemKind(item.Kind),
			Detail:           item.Detail,
			InsertText:       item.InsertText,
			InsertTextFormat: protocol.PlainTextTextFormat,
		}
		if item.Snippet {
			ci.InsertTextFormat = protocol.SnippetTextFormat
		}
		if item.Documentation != "" {
			ci.Documentation = &protocol.MarkupContent{Kind: protocol.Markdown, Value: item.Documentation}
		}
		out = append(out, ci)
	}
	return out
}

func toProtocolEdits(edits []format.TextEdit) []protocol.TextEdit {
	out := make([]protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, protocol.TextEdit{Range: toProtocolRange(e.Range), NewText: e.NewText})
	}
	return out
}
