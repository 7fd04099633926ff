// Package format re-indents CHTL documents by brace depth.
//
// Every line is trimmed and re-indented. A line starting with '}' is emitted one
// level out, a line ending with '{' indents the lines after it, and a line
// holding both '{' and '}' shifts the level by its net brace count. Braces
// inside strings and comments are counted like any other.
package format

import (
	"strconv"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/walteh/chtlls/pkg/position"
	"gitlab.com/tozd/go/errors"
)

type Options struct {
	TabSize            int
	InsertSpaces       bool
	InsertFinalNewline bool
}

func DefaultOptions() Options {
	return Options{TabSize: 4, InsertSpaces: true}
}

func (o Options) indent() string {
	if !o.InsertSpaces {
		return "\t"
	}
	size := o.TabSize
	if size <= 0 {
		size = 4
	}
	return strings.Repeat(" ", size)
}

// Format returns text re-indented according to opts.
func Format(text string, opts Options) string {
	unit := opts.indent()

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	level := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			continue
		}

		if strings.HasPrefix(trimmed, "}") && level > 0 {
			level--
		}

		out = append(out, strings.Repeat(unit, level)+trimmed)

		if strings.HasSuffix(trimmed, "{") {
			level++
		}
		if strings.Contains(trimmed, "{") && strings.Contains(trimmed, "}") {
			level += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		}
		if level < 0 {
			level = 0
		}
	}

	result := strings.Join(out, "\n")
	if opts.InsertFinalNewline && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}

// TextEdit replaces Range with NewText.
type TextEdit struct {
	Range   position.Range
	NewText string
}

// Edits returns the single whole-document replacement, or nothing when the text
// is already formatted.
func Edits(text string, opts Options) []TextEdit {
	formatted := Format(text, opts)
	if formatted == text {
		return nil
	}
	return []TextEdit{{
		Range: position.Range{
			Start: position.Place{Line: 0, Character: 0},
			End:   position.EndPlace(text),
		},
		NewText: formatted,
	}}
}

// OptionsFromEditorConfig overlays the .editorconfig settings that apply to path
// on base.
func OptionsFromEditorConfig(path string, base Options) (Options, error) {
	def, err := editorconfig.GetDefinitionForFilename(path)
	if err != nil {
		return base, errors.Errorf("reading editorconfig for %s: %w", path, err)
	}

	opts := base

	switch def.IndentStyle {
	case "tab":
		opts.InsertSpaces = false
	case "space":
		opts.InsertSpaces = true
	}

	if size, err := strconv.Atoi(def.IndentSize); err == nil && size > 0 {
		opts.TabSize = size
	} else if def.IndentSize == "tab" && def.TabWidth > 0 {
		opts.TabSize = def.TabWidth
	}

	if def.InsertFinalNewline != nil {
		opts.InsertFinalNewline = *def.InsertFinalNewline
	}

	return opts, nil
}
