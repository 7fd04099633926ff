package lsp

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/chtlls/pkg/compiler"
	"github.com/walteh/chtlls/pkg/completion"
	"github.com/walteh/chtlls/pkg/definition"
	"github.com/walteh/chtlls/pkg/diagnostic"
	"github.com/walteh/chtlls/pkg/format"
	"github.com/walteh/chtlls/pkg/hover"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
	"github.com/walteh/chtlls/pkg/semtok"
	"gitlab.com/tozd/go/errors"
)

func (me *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document opened")

	doc := &Document{
		URI:        params.TextDocument.URI,
		LanguageID: params.TextDocument.LanguageID,
		Version:    params.TextDocument.Version,
		Content:    params.TextDocument.Text,
	}
	me.documents.Store(doc)

	return me.publishDiagnostics(ctx, doc)
}

func (me *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document changed")

	if len(params.ContentChanges) == 0 {
		return nil
	}

	prev, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	doc := *prev
	doc.Version = params.TextDocument.Version
	for _, change := range params.ContentChanges {
		doc.Content = applyChange(doc.Content, change)
	}
	me.documents.Store(&doc)

	return me.publishDiagnostics(ctx, &doc)
}

func (me *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("uri", string(params.TextDocument.URI)).Msg("document saved")

	prev, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	doc := prev
	if params.Text != nil {
		updated := *prev
		updated.Content = *params.Text
		me.documents.Store(&updated)
		doc = &updated
	}

	if err := me.publishDiagnostics(ctx, doc); err != nil {
		return err
	}

	if me.Settings().Preview.AutoRefresh && !me.shuttingDown() {
		// the request context ends with this handler
		go me.autoCompile(context.WithoutCancel(ctx), doc.Path)
	}

	return nil
}

func (me *Server) autoCompile(ctx context.Context, path string) {
	logger := zerolog.Ctx(ctx)

	out, err := me.compiler.Compile(ctx, path)
	if err != nil {
		if errors.Is(err, compiler.ErrSuperseded) {
			return
		}
		logger.Warn().Err(err).Str("path", path).Msg("auto-compile failed")
		return
	}
	logger.Debug().Str("output", out).Msg("auto-compiled")
}

func (me *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document closed")

	me.documents.Delete(params.TextDocument.URI)
	me.configs.Clear(string(params.TextDocument.URI))
	return nil
}

func (me *Server) diagnose(ctx context.Context, doc *Document) []protocol.Diagnostic {
	return toProtocolDiagnostics(diagnostic.Run(ctx, doc.Content), doc.Content)
}

func (me *Server) publishDiagnostics(ctx context.Context, doc *Document) error {
	if me.client == nil {
		return nil
	}

	diags := me.diagnose(ctx, doc)

	zerolog.Ctx(ctx).Debug().Int("count", len(diags)).Str("uri", string(doc.URI)).Msg("publishing diagnostics")

	version := doc.Version
	err := me.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     &version,
		Diagnostics: diags,
	})
	if err != nil {
		return errors.Errorf("publishing diagnostics: %w", err)
	}
	return nil
}

func (me *Server) Diagnostic(ctx context.Context, params *protocol.DocumentDiagnosticParams) (*protocol.FullDocumentDiagnosticReport, error) {
	doc, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	return &protocol.FullDocumentDiagnosticReport{
		Kind:  protocol.DiagnosticReportFull,
		Items: me.diagnose(ctx, doc),
	}, nil
}

func (me *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	trigger := ""
	if params.Context != nil {
		trigger = params.Context.TriggerCharacter
	}

	items := completion.Complete(ctx, completion.Request{
		Text:             doc.Content,
		Offset:           offsetOf(doc.Content, params.Position),
		TriggerCharacter: trigger,
		Config:           me.configs.Get(string(doc.URI), doc.Content),
	})

	return &protocol.CompletionList{
		Items: toProtocolCompletion(items),
	}, nil
}

func (me *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	zerolog.Ctx(ctx).Trace().Msgf("hover request received: %+v", params)

	doc, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	info := hover.Hover(ctx, hover.Request{
		Text:   doc.Content,
		Offset: offsetOf(doc.Content, params.Position),
		Config: me.configs.Get(string(doc.URI), doc.Content),
	})
	if info == nil {
		return nil, nil
	}

	rng := toProtocolRange(info.Position.GetRange(doc.Content))
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: strings.Join(info.Content, "\n"),
		},
		Range: &rng,
	}, nil
}

func (me *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	doc, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	found := definition.Find(ctx, me.fs, definition.Request{
		Path:   doc.Path,
		Text:   doc.Content,
		Offset: offsetOf(doc.Content, params.Position),
	})

	locations := make([]protocol.Location, 0, len(found))
	for _, loc := range found {
		locations = append(locations, protocol.Location{
			URI:   protocol.URIFromPath(loc.Path),
			Range: toProtocolRange(loc.Range),
		})
	}
	return locations, nil
}

func (me *Server) Formatting(ctx context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	opts := me.formatOptions(ctx, doc.Path, params.Options)

	return toProtocolEdits(format.Edits(doc.Content, opts)), nil
}

// formatOptions starts from the client's options, or the settings when the
// client sent none, then applies any .editorconfig.
func (me *Server) formatOptions(ctx context.Context, path string, client protocol.FormattingOptions) format.Options {
	s := me.Settings()

	opts := format.Options{
		TabSize:            int(client.TabSize),
		InsertSpaces:       client.InsertSpaces,
		InsertFinalNewline: client.InsertFinalNewline,
	}
	if opts.TabSize == 0 {
		opts.TabSize = s.Format.TabSize
		opts.InsertSpaces = s.Format.InsertSpaces
	}

	withEC, err := format.OptionsFromEditorConfig(path, opts)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("skipping editorconfig")
		return opts
	}
	return withEC
}

func (me *Server) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc, ok := me.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}

	tokens := semtok.GetTokensForText(ctx, doc.Content, me.configs.Get(string(doc.URI), doc.Content))

	return &protocol.SemanticTokens{
		Data: protocol.NonNilSlice(semtok.Encode(tokens, doc.Content)),
	}, nil
}
