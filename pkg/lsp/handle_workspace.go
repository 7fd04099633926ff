package lsp

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/chtlls/pkg/compiler"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
	"github.com/walteh/chtlls/pkg/preview"
	"gitlab.com/tozd/go/errors"
)

const (
	msgNoFile         = "No active CHTL file"
	msgCompileSuccess = "CHTL compilation successful!"
	msgCompileFailed  = "Compilation failed: "
)

// CompileResult is returned by chtl.compile.
type CompileResult struct {
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PreviewResult is returned by chtl.preview.
type PreviewResult struct {
	URL string `json:"url"`
}

// RefreshResult is returned by chtl.refreshPreview.
type RefreshResult struct {
	Clients int `json:"clients"`
}

func (me *Server) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (any, error) {
	zerolog.Ctx(ctx).Debug().Str("command", params.Command).Msg("executing command")

	switch params.Command {
	case CommandCompile:
		return me.commandCompile(ctx, params.Arguments)
	case CommandPreview:
		return me.commandPreview(ctx, params.Arguments)
	case CommandRefreshPreview:
		return me.commandRefresh(ctx)
	}

	return nil, errors.Errorf("unknown command: %s", params.Command)
}

// commandPath reads the document URI from the first argument.
func commandPath(args []json.RawMessage) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	var uri protocol.DocumentURI
	if err := json.Unmarshal(args[0], &uri); err != nil || uri == "" {
		return "", false
	}
	return uri.Path(), true
}

func (me *Server) commandCompile(ctx context.Context, args []json.RawMessage) (any, error) {
	path, ok := commandPath(args)
	if !ok {
		me.showMessage(ctx, protocol.Error, msgNoFile)
		return nil, nil
	}

	out, err := me.compiler.Compile(ctx, path)
	if err != nil {
		me.showMessage(ctx, protocol.Error, msgCompileFailed+err.Error())
		return &CompileResult{Error: err.Error()}, nil
	}

	me.showMessage(ctx, protocol.Info, msgCompileSuccess)
	return &CompileResult{Output: out}, nil
}

func (me *Server) commandPreview(ctx context.Context, args []json.RawMessage) (any, error) {
	path, ok := commandPath(args)
	if !ok {
		me.showMessage(ctx, protocol.Error, msgNoFile)
		return nil, nil
	}

	srv, watcher, err := me.ensurePreview(ctx)
	if err != nil {
		me.showMessage(ctx, protocol.Error, err.Error())
		return nil, err
	}

	if err := watcher.Track(path); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("watching compiled output")
	}

	if _, cached := me.cache.Get(path); !cached {
		// an earlier compile may have left output on disk
		if err := srv.UpdateFromFile(ctx, path, compiler.OutputPath(path)); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("no compiled output yet")
		}
	}

	return &PreviewResult{URL: srv.PreviewURL(path)}, nil
}

func (me *Server) commandRefresh(ctx context.Context) (any, error) {
	me.previewMu.Lock()
	srv := me.preview
	me.previewMu.Unlock()

	if srv == nil {
		return &RefreshResult{}, nil
	}

	n := srv.Refresh()
	zerolog.Ctx(ctx).Debug().Int("clients", n).Msg("preview refreshed")
	return &RefreshResult{Clients: n}, nil
}

// compiled keeps the preview cache current after every successful compile,
// whether or not the preview server is running yet.
func (me *Server) compiled(ctx context.Context, inputPath, outputPath string) error {
	me.previewMu.Lock()
	srv := me.preview
	me.previewMu.Unlock()

	if srv != nil {
		return srv.UpdateFromFile(ctx, inputPath, outputPath)
	}

	data, err := afero.ReadFile(me.fs, outputPath)
	if err != nil {
		return errors.Errorf("reading compiled html %s: %w", outputPath, err)
	}
	me.cache.Set(inputPath, string(data))
	return nil
}

// ensurePreview starts the preview server and output watcher on first use.
// They outlive the request and stop on shutdown.
func (me *Server) ensurePreview(ctx context.Context) (*preview.Server, *preview.Watcher, error) {
	me.previewMu.Lock()
	defer me.previewMu.Unlock()

	if me.preview != nil {
		return me.preview, me.watcher, nil
	}

	s := me.Settings()
	srv := preview.NewServer(me.cache, me.fs, preview.Options{
		Host:         s.Preview.Host,
		Port:         s.Preview.Port,
		InjectReload: s.Preview.InjectReload,
	})

	watcher, err := preview.NewWatcher(srv)
	if err != nil {
		return nil, nil, errors.Errorf("starting preview watcher: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Run(runCtx)
	}()

	select {
	case <-srv.Ready():
	case err := <-errc:
		cancel()
		_ = watcher.Close()
		return nil, nil, errors.Errorf("starting preview server: %w", err)
	case <-ctx.Done():
		cancel()
		_ = watcher.Close()
		return nil, nil, ctx.Err()
	}

	go func() {
		if err := watcher.Run(runCtx); err != nil {
			zerolog.Ctx(runCtx).Warn().Err(err).Msg("preview watcher stopped")
		}
	}()
	go func() {
		if err := <-errc; err != nil {
			zerolog.Ctx(runCtx).Error().Err(err).Msg("preview server stopped")
		}
	}()

	me.preview = srv
	me.watcher = watcher
	me.stopPreview = func() {
		cancel()
		_ = watcher.Close()
	}

	return srv, watcher, nil
}

func (me *Server) closePreview(ctx context.Context) {
	me.previewMu.Lock()
	defer me.previewMu.Unlock()

	if me.stopPreview == nil {
		return
	}
	zerolog.Ctx(ctx).Debug().Msg("stopping preview server")
	me.stopPreview()
	me.stopPreview = nil
	me.preview = nil
	me.watcher = nil
}
