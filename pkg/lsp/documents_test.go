package lsp_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/lsp"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
)

func TestDocumentManager(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/disk/only.chtl", []byte("div { }"), 0o644))

	m := lsp.NewDocumentManager(fs)

	t.Run("open documents win over disk", func(t *testing.T) {
		m.Store(&lsp.Document{URI: "file:///disk/only.chtl", Content: "span { }", Version: 3})

		doc, ok := m.Get("file:///disk/only.chtl")
		require.True(t, ok)
		assert.Equal(t, "span { }", doc.Content)
		assert.Equal(t, "/disk/only.chtl", doc.Path)
		assert.Equal(t, int32(3), doc.Version)
	})

	t.Run("closed documents fall back to disk", func(t *testing.T) {
		m.Delete("file:///disk/only.chtl")

		_, ok := m.GetNoFallback("file:///disk/only.chtl")
		assert.False(t, ok)

		doc, ok := m.Get("file:///disk/only.chtl")
		require.True(t, ok)
		assert.Equal(t, "div { }", doc.Content)

		_, ok = m.GetNoFallback("file:///disk/only.chtl")
		assert.False(t, ok, "disk reads are not cached")
	})

	t.Run("missing everywhere", func(t *testing.T) {
		_, ok := m.Get(protocol.DocumentURI("file:///nope.chtl"))
		assert.False(t, ok)
	})
}
