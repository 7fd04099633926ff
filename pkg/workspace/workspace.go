// Package workspace finds CHTL sources under a directory and runs batch
// operations over them.
package workspace

import (
	"context"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/chtlls/pkg/compiler"
	"github.com/walteh/chtlls/pkg/diagnostic"
	"gitlab.com/tozd/go/errors"
)

const SourcePattern = "**/*.chtl"

// DefaultExcludes are skipped by Find.
var DefaultExcludes = []string{"**/node_modules/**", "**/.git/**"}

// Find returns every CHTL source under root, sorted.
func Find(fs afero.Fs, root string) ([]string, error) {
	iofs := afero.NewIOFS(afero.NewBasePathFs(fs, root))

	matches, err := doublestar.Glob(iofs, SourcePattern)
	if err != nil {
		return nil, errors.Errorf("globbing %s in %s: %w", SourcePattern, root, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if excluded(m) {
			continue
		}
		out = append(out, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

func excluded(rel string) bool {
	for _, pattern := range DefaultExcludes {
		if ok, _ := doublestar.Match(pattern, path.Clean(rel)); ok {
			return true
		}
	}
	return false
}

// Compiler is what CompileAll needs from compiler.Service.
type Compiler interface {
	Compile(ctx context.Context, inputPath string) (string, error)
}

var _ Compiler = (*compiler.Service)(nil)

type CompileResult struct {
	Input  string
	Output string
	Err    error
}

// CompileAll compiles files one after another. Every failure is collected into
// the returned error; the results cover every file either way.
func CompileAll(ctx context.Context, c Compiler, files []string) ([]CompileResult, error) {
	logger := zerolog.Ctx(ctx)

	var result *multierror.Error
	results := make([]CompileResult, 0, len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, errors.Errorf("compiling %s: %w", file, err))
			results = append(results, CompileResult{Input: file, Err: err})
			continue
		}

		out, err := c.Compile(ctx, file)
		results = append(results, CompileResult{Input: file, Output: out, Err: err})
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("compile failed")
			result = multierror.Append(result, errors.Errorf("compiling %s: %w", file, err))
			continue
		}
		logger.Debug().Str("file", file).Str("output", out).Msg("compiled")
	}

	return results, result.ErrorOrNil()
}

type FileDiagnostics struct {
	Path        string
	Text        string
	Diagnostics []diagnostic.Diagnostic
}

// DiagnoseAll runs the default checks over every file. Files that cannot be read
// are reported in the returned error and skipped.
func DiagnoseAll(ctx context.Context, fs afero.Fs, files []string) ([]FileDiagnostics, error) {
	checker := diagnostic.NewDefaultChecker()

	var result *multierror.Error
	out := make([]FileDiagnostics, 0, len(files))

	for _, file := range files {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			result = multierror.Append(result, errors.Errorf("reading %s: %w", file, err))
			continue
		}
		text := string(data)
		out = append(out, FileDiagnostics{
			Path:        file,
			Text:        text,
			Diagnostics: checker.Check(ctx, text),
		})
	}

	return out, result.ErrorOrNil()
}
