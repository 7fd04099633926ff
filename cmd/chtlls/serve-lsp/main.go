package serve_lsp

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/chtlls/pkg/lsp"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
	"github.com/walteh/chtlls/pkg/settings"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	version      string
	debug        bool
	compilerPath string
	port         int
	autoRefresh  bool
}

func NewServeLSPCommand(version string) *cobra.Command {
	me := &Handler{version: version}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin/stdout",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "forward debug logs to the editor")
	cmd.Flags().StringVar(&me.compilerPath, "compiler-path", "", "path to the chtlc compiler; overrides every other setting")
	cmd.Flags().IntVar(&me.port, "preview-port", 0, "preview server port; overrides every other setting")
	cmd.Flags().BoolVar(&me.autoRefresh, "auto-refresh", false, "compile on save; overrides every other setting")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd)
	}

	return cmd
}

func (me *Handler) override(cmd *cobra.Command) func(*settings.Settings) {
	return func(s *settings.Settings) {
		if me.compilerPath != "" {
			s.Compiler.Path = me.compilerPath
		}
		if me.port != 0 {
			s.Preview.Port = me.port
		}
		if cmd.Flags().Changed("auto-refresh") {
			s.Preview.AutoRefresh = me.autoRefresh
		}
	}
}

func (me *Handler) Run(ctx context.Context, cmd *cobra.Command) error {
	logger := zerolog.Ctx(ctx)

	server := lsp.NewServer(lsp.Options{
		Fs:             afero.NewOsFs(),
		Environ:        os.Environ(),
		Override:       me.override(cmd),
		CompilerOutput: os.Stderr,
		Version:        me.version,
	})

	forward := zerolog.InfoLevel
	if me.debug {
		forward = zerolog.DebugLevel
	}

	inst := server.Start(ctx, os.Stdin, os.Stdout, protocol.InstanceOptions{
		Server: &jrpc2.ServerOptions{
			RPCLog: protocol.NewZerologRPCLogger(*logger),
		},
		ForwardLevel: forward,
	})

	logger.Info().Str("version", me.version).Msg("language server started")

	if err := inst.Wait(); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	return nil
}
