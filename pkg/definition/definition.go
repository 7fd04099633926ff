// Package definition resolves template references and imports to their
// declarations.
package definition

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/chtlls/pkg/diagnostic"
	"github.com/walteh/chtlls/pkg/position"
)

type Request struct {
	// Path is the filesystem path of the document.
	Path   string
	Text   string
	Offset int
}

// Location is a range inside the file at Path.
type Location struct {
	Path  string
	Range position.Range
}

// Find returns the declarations the cursor refers to. A miss is an empty
// result, never an error.
func Find(ctx context.Context, fs afero.Fs, req Request) []Location {
	word := position.WordAt(req.Text, req.Offset)
	if word.Text == "" {
		return nil
	}

	start, end := position.LineBounds(req.Text, req.Offset)
	line := req.Text[start:end]

	switch {
	case strings.Contains(line, "@Style") && word.Text != "Style":
		return declarations(req, "Style", word.Text)
	case strings.Contains(line, "@Element") && word.Text != "Element":
		return declarations(req, "Element", word.Text)
	case strings.Contains(line, "[Import]"):
		return importTarget(ctx, fs, req, line)
	}

	return nil
}

func declarations(req Request, kind, name string) []Location {
	var out []Location
	for _, marker := range []string{"Custom", "Template"} {
		re := regexp.MustCompile(`\[` + marker + `\]\s*@` + kind + `\s+` + regexp.QuoteMeta(name) + `\s*\{`)
		for _, loc := range re.FindAllStringIndex(req.Text, -1) {
			out = append(out, Location{
				Path:  req.Path,
				Range: position.NewBasicPosition(req.Text[loc[0]:loc[1]], loc[0]).GetRange(req.Text),
			})
		}
	}
	return out
}

func importTarget(ctx context.Context, fs afero.Fs, req Request, line string) []Location {
	rel, _, ok := diagnostic.ImportPath(line)
	if !ok {
		return nil
	}

	target := rel
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(req.Path), filepath.FromSlash(rel))
	}

	exists, err := afero.Exists(fs, target)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("import", target).Msg("stat import target")
		return nil
	}
	if !exists {
		return nil
	}

	return []Location{{Path: target}}
}
