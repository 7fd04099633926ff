package debug_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/debug"
)

func TestSplitFuncName(t *testing.T) {
	tests := []struct {
		name string
		pkg  string
		fn   string
	}{
		{"github.com/walteh/chtlls/pkg/lsp.(*Server).Run", "github.com/walteh/chtlls/pkg/lsp", "(*Server).Run"},
		{"main.main", "main", "main"},
		{"github.com/a/b.Func.func1", "github.com/a/b", "Func.func1"},
		{"nodot", "nodot", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, fn := debug.SplitFuncName(tt.name)
			assert.Equal(t, tt.pkg, pkg)
			assert.Equal(t, tt.fn, fn)
		})
	}
}

func TestFormatCaller(t *testing.T) {
	assert.Equal(t, "pkg/lsp:server.go:42", debug.FormatCaller("pkg/lsp", "/src/pkg/lsp/server.go", 42, false))
	assert.Equal(t, "x.go", debug.FileNameOfPath("x.go"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := debug.NewLogger(&buf, debug.LoggerOptions{Level: zerolog.InfoLevel, Caller: true, Name: "test"})

	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["message"])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, "test", rec["server"])
	assert.NotEmpty(t, rec["pid"])
	assert.NotEmpty(t, rec["time"])
	assert.Contains(t, rec["caller"], ".go:")
}
