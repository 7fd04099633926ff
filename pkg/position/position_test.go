package position_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/position"
)

func TestPlaceFromOffset(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		want   position.Place
	}{
		{
			name:   "empty text",
			text:   "",
			offset: 0,
			want:   position.Place{Line: 0, Character: 0},
		},
		{
			name:   "single line middle",
			text:   "Hello, World!",
			offset: 7,
			want:   position.Place{Line: 0, Character: 7},
		},
		{
			name:   "second line",
			text:   "Hello\nWorld\nTest",
			offset: 8,
			want:   position.Place{Line: 1, Character: 2},
		},
		{
			name:   "utf16 surrogate pair counts twice",
			text:   "a😀b",
			offset: 5,
			want:   position.Place{Line: 0, Character: 3},
		},
		{
			name:   "multibyte bmp rune counts once",
			text:   "样式 {",
			offset: 6,
			want:   position.Place{Line: 0, Character: 2},
		},
		{
			name:   "offset past end is clamped",
			text:   "ab\ncd",
			offset: 99,
			want:   position.Place{Line: 1, Character: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := position.PlaceFromOffset(tt.text, tt.offset)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsetFromPlace(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		place position.Place
		want  int
	}{
		{
			name:  "start of document",
			text:  "div {\n}",
			place: position.Place{Line: 0, Character: 0},
			want:  0,
		},
		{
			name:  "second line",
			text:  "div {\n  text\n}",
			place: position.Place{Line: 1, Character: 2},
			want:  8,
		},
		{
			name:  "character past end of line",
			text:  "ab\ncd",
			place: position.Place{Line: 0, Character: 10},
			want:  2,
		},
		{
			name:  "line past end of text",
			text:  "ab\ncd",
			place: position.Place{Line: 7, Character: 0},
			want:  5,
		},
		{
			name:  "after surrogate pair",
			text:  "a😀b",
			place: position.Place{Line: 0, Character: 3},
			want:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := position.OffsetFromPlace(tt.text, tt.place)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsetPlaceRoundTrip(t *testing.T) {
	text := "[Configuration] {\n    text = \"texto\";\n}\nbody { 样式 { color: red; } }\n"
	offsets := []int{len(text)}
	for offset := range text {
		offsets = append(offsets, offset)
	}

	for _, offset := range offsets {
		place := position.PlaceFromOffset(text, offset)
		assert.Equal(t, offset, position.OffsetFromPlace(text, place), "offset %d", offset)
	}
}

func TestWordAt(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		offset   int
		wantText string
		wantOff  int
	}{
		{
			name:     "inside word",
			text:     "div { text { \"hi\" } }",
			offset:   7,
			wantText: "text",
			wantOff:  6,
		},
		{
			name:     "cursor right after word",
			text:     "style {",
			offset:   5,
			wantText: "style",
			wantOff:  0,
		},
		{
			name:     "hyphenated css property",
			text:     "  background-color: red;",
			offset:   10,
			wantText: "background-color",
			wantOff:  2,
		},
		{
			name:     "at sign is not part of the word",
			text:     "@Style Foo;",
			offset:   2,
			wantText: "Style",
			wantOff:  1,
		},
		{
			name:     "non ascii word",
			text:     "body { 样式 { } }",
			offset:   8,
			wantText: "样式",
			wantOff:  7,
		},
		{
			name:     "whitespace has no word",
			text:     "a    b",
			offset:   3,
			wantText: "",
			wantOff:  3,
		},
		{
			name:     "second line",
			text:     "div {\n  inherit Base;\n}",
			offset:   10,
			wantText: "inherit",
			wantOff:  8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := position.WordAt(tt.text, tt.offset)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantOff, got.Offset)
		})
	}
}

func TestGetRange(t *testing.T) {
	text := "div {\n  id: \"main\";\n}"
	pos := position.NewBasicPosition(`id: "main"`, 8)

	rng := pos.GetRange(text)
	require.Equal(t, position.Place{Line: 1, Character: 2}, rng.Start)
	require.Equal(t, position.Place{Line: 1, Character: 12}, rng.End)
}

func TestLineHelpers(t *testing.T) {
	text := "one\ntwo three\nfour"

	start, end := position.LineBounds(text, 6)
	assert.Equal(t, 4, start)
	assert.Equal(t, 13, end)

	assert.Equal(t, "tw", position.LinePrefix(text, 6))
	assert.Equal(t, position.Place{Line: 2, Character: 4}, position.EndPlace(text))
}

func TestHasRangeOverlapWith(t *testing.T) {
	word := position.NewBasicPosition("style", 4)

	assert.True(t, position.NewBasicPosition("", 6).HasRangeOverlapWith(word))
	assert.True(t, position.NewBasicPosition("", 9).HasRangeOverlapWith(word))
	assert.False(t, position.NewBasicPosition("", 10).HasRangeOverlapWith(word))
	assert.True(t, position.NewBasicPosition("le {", 6).HasRangeOverlapWith(word))
	assert.False(t, position.NewBasicPosition("{", 10).HasRangeOverlapWith(word))
}
