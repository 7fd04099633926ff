package format_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/cmd/chtlls/format"
)

const unformatted = "div {\nstyle {\ncolor: red;\n}\n}\n"

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".editorconfig"), []byte("root = true\n\n[*.chtl]\nindent_style = space\nindent_size = 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.chtl"), []byte(unformatted), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.chtl"), []byte("p {\n  x;\n}\n"), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := format.NewFormatCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    func(dir string) []string
		wantOut func(dir string) string
		wantErr error
		wantA   string
	}{
		{
			name:    "stdout",
			args:    func(dir string) []string { return []string{filepath.Join(dir, "a.chtl")} },
			wantOut: func(string) string { return "div {\n  style {\n    color: red;\n  }\n}\n" },
			wantA:   unformatted,
		},
		{
			name:    "check lists changed files",
			args:    func(dir string) []string { return []string{"--check", "--dir", dir} },
			wantOut: func(dir string) string { return filepath.Join(dir, "a.chtl") + "\n" },
			wantErr: format.ErrNotFormatted,
			wantA:   unformatted,
		},
		{
			name: "diff",
			args: func(dir string) []string { return []string{"--diff", "--dir", dir} },
			wantOut: func(dir string) string {
				a := filepath.Join(dir, "a.chtl")
				return "--- " + a + "\n" +
					"+++ " + a + " (formatted)\n" +
					"@@ -1,6 +1,6 @@\n" +
					" div {\n" +
					"-style {\n" +
					"-color: red;\n" +
					"-}\n" +
					"+  style {\n" +
					"+    color: red;\n" +
					"+  }\n" +
					" }\n" +
					" \n"
			},
			wantErr: format.ErrNotFormatted,
			wantA:   unformatted,
		},
		{
			name:    "write",
			args:    func(dir string) []string { return []string{"-w", "--dir", dir} },
			wantOut: func(string) string { return "" },
			wantA:   "div {\n  style {\n    color: red;\n  }\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setup(t)

			out, err := execute(t, tt.args(dir)...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOut(dir), out)

			got, err := os.ReadFile(filepath.Join(dir, "a.chtl"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, string(got))
		})
	}
}

func TestFormatCommandMissingFile(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "missing.chtl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.chtl")
}
