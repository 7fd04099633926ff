package get_diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/chtlls/pkg/diagnostic"
	"github.com/walteh/chtlls/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

// ErrDiagnosticErrors is returned when any file has an error-severity
// diagnostic.
var ErrDiagnosticErrors = errors.New("diagnostics contain errors")

type Handler struct {
	dir    string
	paths  []string
	format string // text, json

	fs  afero.Fs
	out io.Writer
}

func NewGetDiagnosticsCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "get-diagnostics [file.chtl...]",
		Short: "print diagnostics for CHTL files",
		Long:  "check the given files, or every .chtl file under --dir when none are given",
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "the format of the diagnostics (text, json)")
	cmd.Flags().StringVar(&me.dir, "dir", ".", "workspace directory used when no files are given")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.paths = args
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

type fileReport struct {
	Path        string          `json:"path"`
	Diagnostics json.RawMessage `json:"diagnostics"`
}

func (me *Handler) Run(ctx context.Context) error {
	if _, err := diagnostic.NewFormatter(me.format); err != nil {
		return err
	}

	files := me.paths
	if len(files) == 0 {
		dir, err := filepath.Abs(me.dir)
		if err != nil {
			return errors.Errorf("resolving %s: %w", me.dir, err)
		}
		files, err = workspace.Find(me.fs, dir)
		if err != nil {
			return err
		}
	}

	reports, readErr := workspace.DiagnoseAll(ctx, me.fs, files)

	hasErrors := false
	var jsonReports []fileReport

	for _, r := range reports {
		for _, d := range r.Diagnostics {
			if d.Severity == diagnostic.SeverityError {
				hasErrors = true
			}
		}

		out, err := diagnostic.Format(r.Diagnostics, r.Text, me.format)
		if err != nil {
			return errors.Errorf("formatting diagnostics for %s: %w", r.Path, err)
		}

		if me.format == "json" {
			jsonReports = append(jsonReports, fileReport{Path: r.Path, Diagnostics: out})
			continue
		}

		if len(r.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintf(me.out, "%s:\n%s", r.Path, out)
	}

	if me.format == "json" {
		enc := json.NewEncoder(me.out)
		enc.SetIndent("", "  ")
		if jsonReports == nil {
			jsonReports = []fileReport{}
		}
		if err := enc.Encode(jsonReports); err != nil {
			return errors.Errorf("encoding diagnostics: %w", err)
		}
	}

	if readErr != nil {
		return readErr
	}
	if hasErrors {
		return ErrDiagnosticErrors
	}
	return nil
}
