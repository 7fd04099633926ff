package compile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/chtlls/pkg/compiler"
	"github.com/walteh/chtlls/pkg/settings"
	"github.com/walteh/chtlls/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	compilerPath string
	dir          string
	paths        []string

	fs     afero.Fs
	out    io.Writer
	errOut io.Writer
}

func NewCompileCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "compile [file.chtl...]",
		Short: "compile CHTL files to HTML with chtlc",
		Long:  "compile the given files, or every .chtl file under --dir when none are given",
	}

	cmd.Flags().StringVar(&me.compilerPath, "compiler-path", "", "path to the chtlc compiler; defaults to the settings")
	cmd.Flags().StringVar(&me.dir, "dir", ".", "workspace directory used for settings and file discovery")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.paths = args
		me.out = cmd.OutOrStdout()
		me.errOut = cmd.ErrOrStderr()
		return me.Run(cmd.Context())
	}

	return cmd
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
	if me.compilerPath != "" {
		s.Compiler.Path = me.compilerPath
	}

	files := me.paths
	if len(files) == 0 {
		files, err = workspace.Find(me.fs, dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			logger.Info().Str("dir", dir).Msg("no CHTL files found")
			return nil
		}
	}

	svc := compiler.NewService(s.Compiler.Path, compiler.WithOutput(me.errOut))

	results, err := workspace.CompileAll(ctx, svc, files)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(me.out, "FAIL %s: %s\n", r.Input, r.Err)
			continue
		}
		fmt.Fprintf(me.out, "ok   %s -> %s\n", r.Input, r.Output)
	}
	if err != nil {
		return errors.Errorf("compilation failed: %w", err)
	}
	return nil
}
