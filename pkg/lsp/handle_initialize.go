package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/walteh/chtlls/pkg/completion"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
	"github.com/walteh/chtlls/pkg/semtok"
	"github.com/walteh/chtlls/pkg/settings"
	"gitlab.com/tozd/go/errors"
)

func (me *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)

	root := workspaceRoot(params)

	s := me.resolveSettings(ctx, root, params.InitializationOptions)

	me.mu.Lock()
	me.root = root
	me.mu.Unlock()
	me.setSettings(s)

	logger.Debug().
		Str("root", root).
		Str("compiler", s.Compiler.Path).
		Bool("auto_refresh", s.Preview.AutoRefresh).
		Msg("initializing server")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.SyncIncremental,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: completion.TriggerCharacters,
			},
			HoverProvider:              true,
			DefinitionProvider:         true,
			DocumentFormattingProvider: true,
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     semtok.TokenTypes,
					TokenModifiers: semtok.TokenModifiers,
				},
				Full: true,
			},
			DiagnosticProvider: &protocol.DiagnosticOptions{
				Identifier: ServerName,
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: Commands,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    ServerName,
			Version: me.opts.Version,
		},
	}, nil
}

func workspaceRoot(params *protocol.InitializeParams) string {
	switch {
	case params.RootURI != "":
		return params.RootURI.Path()
	case len(params.WorkspaceFolders) > 0:
		return params.WorkspaceFolders[0].URI.Path()
	default:
		return params.RootPath
	}
}

// resolveSettings layers editor settings and then the override on top of the
// workspace settings.
func (me *Server) resolveSettings(ctx context.Context, root string, editor []byte) settings.Settings {
	logger := zerolog.Ctx(ctx)

	s, err := settings.Resolve(me.fs, root, me.opts.Environ)
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring invalid settings")
	}

	if err := s.ApplyLSP(editor); err != nil {
		logger.Warn().Err(err).Msg("ignoring initialization options")
	}

	if me.opts.Override != nil {
		me.opts.Override(&s)
	}

	return s
}

func (me *Server) Initialized(ctx context.Context, _ *protocol.InitializedParams) error {
	zerolog.Ctx(ctx).Debug().Msg("server initialized")
	return nil
}

func (me *Server) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	s := me.Settings()
	if err := s.ApplyLSP(params.Settings); err != nil {
		return errors.Errorf("applying configuration: %w", err)
	}
	if me.opts.Override != nil {
		me.opts.Override(&s)
	}
	me.setSettings(s)

	zerolog.Ctx(ctx).Debug().
		Str("compiler", s.Compiler.Path).
		Bool("auto_refresh", s.Preview.AutoRefresh).
		Msg("configuration changed")
	return nil
}

func (me *Server) Shutdown(ctx context.Context) error {
	zerolog.Ctx(ctx).Debug().Msg("shutting down")

	me.mu.Lock()
	me.shutdown = true
	me.mu.Unlock()

	me.closePreview(ctx)
	me.configs.ClearAll()
	return nil
}

func (me *Server) Exit(ctx context.Context) error {
	me.closePreview(ctx)

	if srv := jrpc2.ServerFromContext(ctx); srv != nil {
		// Stop waits for running handlers, this one included.
		go srv.Stop()
	}
	return nil
}
