package compile_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/cmd/chtlls/compile"
)

// stubCompiler writes a compiler that copies its input to its output, failing
// for inputs named bad.chtl.
func stubCompiler(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chtlc")
	script := "#!/bin/sh\ncase \"$1\" in\n*bad.chtl) echo \"syntax error line 3\" >&2; exit 2;;\nesac\ncp \"$1\" \"$2\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := compile.NewCompileCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	chtlc := stubCompiler(t)

	t.Run("single file", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "index.chtl")
		require.NoError(t, os.WriteFile(src, []byte("div { }"), 0o644))

		out, err := execute(t, "--compiler-path", chtlc, src)
		require.NoError(t, err)
		assert.Equal(t, "ok   "+src+" -> "+filepath.Join(dir, "index.html")+"\n", out)

		html, err := os.ReadFile(filepath.Join(dir, "index.html"))
		require.NoError(t, err)
		assert.Equal(t, "div { }", string(html))
	})

	t.Run("workspace with a failure", func(t *testing.T) {
		dir := t.TempDir()
		good := filepath.Join(dir, "a.chtl")
		bad := filepath.Join(dir, "bad.chtl")
		require.NoError(t, os.WriteFile(good, []byte("a"), 0o644))
		require.NoError(t, os.WriteFile(bad, []byte("b"), 0o644))

		out, err := execute(t, "--compiler-path", chtlc, "--dir", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "syntax error line 3")
		assert.Equal(t, "ok   "+good+" -> "+filepath.Join(dir, "a.html")+"\nFAIL "+bad+": syntax error line 3\n", out)

		_, err = os.Stat(filepath.Join(dir, "bad.html"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("compiler path from settings", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".chtlls.yaml"), []byte("compiler:\n  path: "+chtlc+"\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "page.chtl"), []byte("p"), 0o644))

		_, err := execute(t, "--dir", dir)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "page.html"))
	})

	t.Run("empty workspace", func(t *testing.T) {
		out, err := execute(t, "--compiler-path", chtlc, "--dir", t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
