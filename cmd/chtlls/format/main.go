package format

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/chtlls/pkg/diff"
	"github.com/walteh/chtlls/pkg/format"
	"github.com/walteh/chtlls/pkg/settings"
	"github.com/walteh/chtlls/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

// ErrNotFormatted is returned by --check and --diff when a file would change.
var ErrNotFormatted = errors.New("files are not formatted")

type Handler struct {
	dir   string
	paths []string
	write bool
	check bool
	diff  bool

	fs  afero.Fs
	out io.Writer
}

func NewFormatCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "format [file.chtl...]",
		Short: "re-indent CHTL files",
		Long:  "format the given files, or every .chtl file under --dir when none are given; output goes to stdout unless -w is set",
	}

	cmd.Flags().BoolVarP(&me.write, "write", "w", false, "write the result back to the source file")
	cmd.Flags().BoolVar(&me.check, "check", false, "list files that would change and fail if there are any")
	cmd.Flags().BoolVarP(&me.diff, "diff", "d", false, "print a unified diff instead of the formatted text")
	cmd.Flags().StringVar(&me.dir, "dir", ".", "workspace directory used for settings and file discovery")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.paths = args
		me.out = cmd.OutOrStdout()
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
	base := format.Options{TabSize: s.Format.TabSize, InsertSpaces: s.Format.InsertSpaces}

	files := me.paths
	if len(files) == 0 {
		files, err = workspace.Find(me.fs, dir)
		if err != nil {
			return err
		}
	}

	changed := 0
	for _, file := range files {
		data, err := afero.ReadFile(me.fs, file)
		if err != nil {
			return errors.Errorf("reading %s: %w", file, err)
		}
		text := string(data)

		opts, err := format.OptionsFromEditorConfig(file, base)
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("reading editorconfig")
		}

		formatted := format.Format(text, opts)

		switch {
		case me.diff:
			out, err := diff.Unified(file, text, formatted)
			if err != nil {
				return err
			}
			if out != "" {
				changed++
				fmt.Fprint(me.out, out)
			}
		case me.check:
			if formatted != text {
				changed++
				fmt.Fprintln(me.out, file)
			}
		case me.write:
			if formatted == text {
				continue
			}
			info, err := me.fs.Stat(file)
			if err != nil {
				return errors.Errorf("reading %s: %w", file, err)
			}
			if err := afero.WriteFile(me.fs, file, []byte(formatted), info.Mode().Perm()); err != nil {
				return errors.Errorf("writing %s: %w", file, err)
			}
			logger.Debug().Str("file", file).Msg("formatted")
		default:
			fmt.Fprint(me.out, formatted)
		}
	}

	if (me.check || me.diff) && changed > 0 {
		return ErrNotFormatted
	}
	return nil
}
