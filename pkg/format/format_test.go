package format_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/format"
	"github.com/walteh/chtlls/pkg/position"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  format.Options
		want  string
	}{
		{
			name:  "nested blocks",
			input: "html {\nbody {\ndiv {\ntext { \"hi\" }\n}\n}\n}",
			opts:  format.DefaultOptions(),
			want:  "html {\n    body {\n        div {\n            text { \"hi\" }\n        }\n    }\n}",
		},
		{
			name:  "tabs",
			input: "div {\n      style {\ncolor: red;\n}\n}",
			opts:  format.Options{InsertSpaces: false},
			want:  "div {\n\tstyle {\n\t\tcolor: red;\n\t}\n}",
		},
		{
			name:  "blank lines are emptied",
			input: "div {\n   \n  id: \"a\";\n}",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "div {\n\n  id: \"a\";\n}",
		},
		{
			name:  "close and reopen on one line",
			input: "a {\nb;\n} c {\nd;\n}",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "a {\n  b;\n} c {\n  d;\n}",
		},
		{
			name:  "extra closing braces floor at zero",
			input: "}\n}\ndiv {\nx;\n}",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "}\n}\ndiv {\n  x;\n}",
		},
		{
			name:  "two openers on one line",
			input: "a { b {\nc;\n} }\nd;",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "a { b {\n  c;\n} }\nd;",
		},
		{
			name:  "opener without a closer mid line",
			input: "div { id: \"x\";\nclass: \"y\";\n}",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "div { id: \"x\";\nclass: \"y\";\n}",
		},
		{
			name:  "line ending with two openers",
			input: "a { b {\nc;\n}\n}",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "a { b {\n  c;\n}\n}",
		},
		{
			name:  "trailing closer keeps the level",
			input: "div {\nx }\ny;\n}",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "div {\n  x }\n  y;\n}",
		},
		{
			name:  "single line block",
			input: "div {\np { text { \"a\" } }\nq;\n}",
			opts:  format.Options{TabSize: 2, InsertSpaces: true},
			want:  "div {\n  p { text { \"a\" } }\n  q;\n}",
		},
		{
			name:  "crlf and trailing whitespace",
			input: "div {\r\n  x;   \r\n}\r\n",
			opts:  format.Options{TabSize: 1, InsertSpaces: true},
			want:  "div {\n x;\n}\n",
		},
		{
			name:  "final newline added",
			input: "div {\n}",
			opts:  format.Options{TabSize: 4, InsertSpaces: true, InsertFinalNewline: true},
			want:  "div {\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := format.Format(tt.input, tt.opts)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, format.Format(got, tt.opts), "formatting is idempotent")
		})
	}
}

func TestEdits(t *testing.T) {
	opts := format.DefaultOptions()

	assert.Empty(t, format.Edits("div {\n    x;\n}", opts))

	edits := format.Edits("div {\nx;\n}", opts)
	require.Len(t, edits, 1)
	assert.Equal(t, position.Place{Line: 0, Character: 0}, edits[0].Range.Start)
	assert.Equal(t, position.Place{Line: 2, Character: 1}, edits[0].Range.End)
	assert.Equal(t, "div {\n    x;\n}", edits[0].NewText)
}

func TestOptionsFromEditorConfig(t *testing.T) {
	dir := t.TempDir()
	ec := "root = true\n\n[*.chtl]\nindent_style = space\nindent_size = 2\ninsert_final_newline = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".editorconfig"), []byte(ec), 0o644))

	opts, err := format.OptionsFromEditorConfig(filepath.Join(dir, "index.chtl"), format.Options{TabSize: 8})
	require.NoError(t, err)
	assert.Equal(t, format.Options{TabSize: 2, InsertSpaces: true, InsertFinalNewline: true}, opts)

	opts, err = format.OptionsFromEditorConfig(filepath.Join(dir, "other.txt"), format.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, format.DefaultOptions(), opts)
}
