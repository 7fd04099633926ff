package chtlconfig_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/chtlconfig"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantCustom map[string]string
		wantName   map[string]string
	}{
		{
			name:       "no configuration block",
			text:       "div { text { \"hello\" } }",
			wantCustom: map[string]string{},
			wantName:   map[string]string{},
		},
		{
			name: "simple assignments with quotes",
			text: `[Configuration] {
    text = "texto";
    style = 'estilo';
    class = clase;
}`,
			wantCustom: map[string]string{"text": "texto", "style": "estilo", "class": "clase"},
			wantName:   map[string]string{},
		},
		{
			name: "nested name block does not end configuration",
			text: `[Configuration] {
    [Name] {
        CUSTOM_STYLE = "@Estilo";
    }
    text = "texto";
}`,
			wantCustom: map[string]string{"text": "texto"},
			wantName:   map[string]string{"CUSTOM_STYLE": "@Estilo"},
		},
		{
			name: "option group overwrites assignment",
			text: `[Configuration] {
    align = "justify";
    align(left, center, right);
}`,
			wantCustom: map[string]string{"align": "left"},
			wantName:   map[string]string{},
		},
		{
			name:       "unterminated block is ignored",
			text:       "[Configuration] { text = \"texto\";",
			wantCustom: map[string]string{},
			wantName:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := chtlconfig.Parse(tt.text)
			assert.Equal(t, tt.wantCustom, toMap(cfg.CustomKeywords), "custom keywords")
			assert.Equal(t, tt.wantName, toMap(cfg.NameBlock), "name block")
		})
	}
}

func toMap(m *chtlconfig.Mapping) map[string]string {
	out := map[string]string{}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out[k] = v
	}
	return out
}

func TestAllCustomKeywordsDistinct(t *testing.T) {
	text := `[Configuration] {
    text = "texto";
    style = "estilo";
    class = "clase";
    id = "ident";
}`
	got := chtlconfig.AllCustomKeywords(text)
	assert.Equal(t, []string{"texto", "estilo", "clase", "ident"}, got)
}

func TestAllCustomKeywordsDeduplicates(t *testing.T) {
	text := `[Configuration] {
    text = "same";
    style = "same";
    [Name] {
        KEYWORD_TEXT = "same";
        KEYWORD_STYLE = "other";
    }
}`
	got := chtlconfig.AllCustomKeywords(text)
	assert.Equal(t, []string{"same", "other"}, got)
}

func TestAllCustomKeywordsSkipsUnterminatedAssignment(t *testing.T) {
	text := "[Configuration] {\n    INDEX_INITIAL_COUNT = 0\n    text = \"texto\";\n}\n"
	got := chtlconfig.AllCustomKeywords(text)
	assert.Empty(t, got)

	text = "[Configuration] {\n    style = \"estilo\";\n    INDEX_INITIAL_COUNT = 0\n    DEBUG_MODE = false;\n}\n"
	assert.Equal(t, []string{"estilo"}, chtlconfig.AllCustomKeywords(text))
}

func TestEffectiveKeyword(t *testing.T) {
	assert.Equal(t, "text", chtlconfig.EffectiveKeyword("div { }", "text"))
	assert.Equal(t, "texto", chtlconfig.EffectiveKeyword(`[Configuration] { text = "texto"; }`, "text"))
	assert.Equal(t, "text", chtlconfig.EffectiveKeyword(`[Configuration] { text = ""; }`, "text"), "empty values are ignored")

	nameOnly := `[Configuration] { [Name] { style = "stil"; } }`
	assert.Equal(t, "stil", chtlconfig.EffectiveKeyword(nameOnly, "style"))
}

func TestOptionGroupFirstOption(t *testing.T) {
	cfg := chtlconfig.Parse("[Configuration] { align(left, center, right); }")

	assert.Equal(t, "left", cfg.EffectiveKeyword("align"))
	assert.Equal(t, []string{"left", "center", "right"}, cfg.Options("align"))
	assert.Nil(t, cfg.Options("missing"))
}

func TestOriginalKeywordRoundTrip(t *testing.T) {
	text := `[Configuration] {
    text = "texto";
    style = "estilo";
    [Name] {
        KEYWORD_INHERIT = "hereda";
    }
}`
	cfg := chtlconfig.Parse(text)

	for _, k := range []string{"text", "style", "KEYWORD_INHERIT"} {
		orig, ok := cfg.OriginalKeyword(cfg.EffectiveKeyword(k))
		require.True(t, ok, k)
		assert.Equal(t, k, orig)
	}

	_, ok := cfg.OriginalKeyword("nothing")
	assert.False(t, ok)

	assert.True(t, cfg.IsCustomKeyword("hereda"))
	assert.False(t, cfg.IsCustomKeyword("text"))
}

func TestMappingKeepsInsertionOrderOnOverwrite(t *testing.T) {
	m := chtlconfig.NewMapping()
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("a", "3")

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestCache(t *testing.T) {
	cache, err := chtlconfig.NewCache(2)
	require.NoError(t, err)

	text := `[Configuration] { text = "texto"; }`

	first := cache.Get("file:///a.chtl", text)
	second := cache.Get("file:///a.chtl", text)
	assert.Same(t, first, second, "unchanged text reuses the parsed configuration")

	changed := cache.Get("file:///a.chtl", `[Configuration] { text = "txt"; }`)
	assert.NotSame(t, first, changed)
	assert.Equal(t, "txt", changed.EffectiveKeyword("text"))

	cache.Get("file:///b.chtl", text)
	assert.Equal(t, 2, cache.Len())

	cache.Clear("file:///a.chtl")
	assert.Equal(t, 1, cache.Len())

	cache.ClearAll()
	assert.Equal(t, 0, cache.Len())
}
