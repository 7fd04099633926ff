package serve_preview

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/chtlls/pkg/compiler"
	"github.com/walteh/chtlls/pkg/preview"
	"github.com/walteh/chtlls/pkg/settings"
	"github.com/walteh/chtlls/pkg/workspace"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

type Handler struct {
	dir      string
	host     string
	port     int
	noInject bool
	compile  bool

	fs afero.Fs
	// ready, when set, receives the server once it is listening.
	ready func(*preview.Server)
}

func NewServePreviewCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "serve-preview",
		Short: "serve compiled CHTL pages and reload them when their output changes",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVar(&me.dir, "dir", ".", "workspace directory to watch")
	cmd.Flags().StringVar(&me.host, "host", "", "host to listen on; defaults to the settings")
	cmd.Flags().IntVar(&me.port, "port", -1, "port to listen on; defaults to the settings")
	cmd.Flags().BoolVar(&me.noInject, "no-inject", false, "serve pages without the reload script")
	cmd.Flags().BoolVar(&me.compile, "compile", false, "compile every file in the workspace on startup")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return me.Run(ctx)
	}

	return cmd
}

func (me *Handler) options(s settings.Settings) preview.Options {
	opts := preview.Options{
		Host:         s.Preview.Host,
		Port:         s.Preview.Port,
		InjectReload: s.Preview.InjectReload,
	}
	if me.host != "" {
		opts.Host = me.host
	}
	if me.port >= 0 {
		opts.Port = me.port
	}
	if me.noInject {
		opts.InjectReload = false
	}
	return opts
}

func (me *Handler) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	dir, err := filepath.Abs(me.dir)
	if err != nil {
		return errors.Errorf("resolving %s: %w", me.dir, err)
	}

	s, err := settings.Resolve(me.fs, dir, os.Environ())
	if err != nil {
		logger.Warn().Err(err).Msg("loading settings")
	}

	srv := preview.NewServer(preview.NewCache(), me.fs, me.options(s))

	watcher, err := preview.NewWatcher(srv)
	if err != nil {
		return err
	}
	defer watcher.Close()

	files, err := workspace.Find(me.fs, dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := watcher.Track(file); err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("watching compiled output")
		}
		out := compiler.OutputPath(file)
		if ok, _ := afero.Exists(me.fs, out); ok {
			if err := srv.UpdateFromFile(ctx, file, out); err != nil {
				logger.Warn().Err(err).Str("file", file).Msg("loading compiled output")
			}
		}
	}

	logger.Info().Str("dir", dir).Int("files", len(files)).Msg("watching workspace")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return watcher.Run(gctx)
	})

	g.Go(func() error {
		select {
		case <-srv.Ready():
		case <-gctx.Done():
			return nil
		}

		for _, file := range files {
			logger.Info().Str("url", srv.PreviewURL(file)).Msg("preview available")
		}
		if me.ready != nil {
			me.ready(srv)
		}

		if !me.compile {
			return nil
		}
		svc := compiler.NewService(s.Compiler.Path, compiler.WithListener(srv))
		// failures are logged per file and do not stop the server
		_, _ = workspace.CompileAll(gctx, svc, files)
		return nil
	})

	if err := g.Wait(); err != nil {
		return errors.Errorf("serving preview: %w", err)
	}
	return nil
}
