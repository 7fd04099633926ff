package semtok_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/chtlls/pkg/position"
	"github.com/walteh/chtlls/pkg/semtok"
)

/*
Test Organization:
----------------

	+----------------+
	|  Test Groups   |
	+----------------+
	        |
	 +------+-------+
	 |              |
	Tokens        Encoding
	 |              |
	aliases     relative deltas
	markers     utf16 columns
	strings     modifier bits
	comments
*/

func TestGetTokensForText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []semtok.Token
	}{
		{
			name:     "no configuration",
			input:    "div { text { \"hi\" } }",
			expected: nil,
		},
		{
			name:  "markers and alias usage",
			input: "[Configuration] {\n  text = \"texto\";\n}\ndiv { texto { } }",
			expected: []semtok.Token{
				{
					Type:     semtok.TokenFunction,
					Modifier: semtok.ModifierDefinition,
					Range:    position.NewBasicPosition("[Configuration]", 0),
				},
				{
					Type:     semtok.TokenKeyword,
					Modifier: semtok.ModifierNone,
					Range:    position.NewBasicPosition("texto", 44),
				},
			},
		},
		{
			name:  "alias inside string and comment is skipped",
			input: "[Configuration] { style = \"estilo\"; }\n// estilo\np { text { \"estilo\" } estilo { } }",
			expected: []semtok.Token{
				{
					Type:     semtok.TokenFunction,
					Modifier: semtok.ModifierDefinition,
					Range:    position.NewBasicPosition("[Configuration]", 0),
				},
				{
					Type:     semtok.TokenKeyword,
					Modifier: semtok.ModifierNone,
					Range:    position.NewBasicPosition("estilo", 70),
				},
			},
		},
		{
			name:  "alias inside longer word is skipped",
			input: "[Configuration] { [Name] { KEYWORD_TEXT = \"tx\"; } }\ntxt { } tx { }",
			expected: []semtok.Token{
				{
					Type:     semtok.TokenFunction,
					Modifier: semtok.ModifierDefinition,
					Range:    position.NewBasicPosition("[Configuration]", 0),
				},
				{
					Type:     semtok.TokenFunction,
					Modifier: semtok.ModifierDefinition,
					Range:    position.NewBasicPosition("[Name]", 18),
				},
				{
					Type:     semtok.TokenKeyword,
					Modifier: semtok.ModifierNone,
					Range:    position.NewBasicPosition("tx", 60),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := semtok.GetTokensForText(context.Background(), tt.input, nil)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGetTokensForRange(t *testing.T) {
	input := "[Configuration] {\n  text = \"texto\";\n}\ndiv { texto { } }"
	got := semtok.GetTokensForRange(context.Background(), input, nil, position.NewBasicPosition("div { texto", 38))
	assert.Equal(t, []semtok.Token{{
		Type:     semtok.TokenKeyword,
		Modifier: semtok.ModifierNone,
		Range:    position.NewBasicPosition("texto", 44),
	}}, got)
}

func TestEncode(t *testing.T) {
	text := "[Name]\n  a 样式 b\nkw kw"
	tokens := []semtok.Token{
		{Type: semtok.TokenKeyword, Range: position.NewBasicPosition("kw", 20)},
		{Type: semtok.TokenFunction, Modifier: semtok.ModifierDefinition, Range: position.NewBasicPosition("[Name]", 0)},
		{Type: semtok.TokenKeyword, Range: position.NewBasicPosition("b", 18)},
		{Type: semtok.TokenKeyword, Range: position.NewBasicPosition("样式", 11)},
		{Type: semtok.TokenKeyword, Range: position.NewBasicPosition("kw", 23)},
	}

	got := semtok.Encode(tokens, text)
	assert.Equal(t, []uint32{
		0, 0, 6, 2, 2,
		1, 4, 2, 0, 0,
		0, 3, 1, 0, 0,
		1, 0, 2, 0, 0,
		0, 3, 2, 0, 0,
	}, got)
}

func TestLegendStrings(t *testing.T) {
	assert.Equal(t, "keyword", semtok.TokenKeyword.String())
	assert.Equal(t, "operator", semtok.TokenOperator.String())
	assert.Equal(t, "unknown", semtok.TokenType(0).String())
	assert.Equal(t, "definition", semtok.ModifierDefinition.String())
	assert.Equal(t, "none", semtok.ModifierNone.String())
}

func TestUnterminatedAssignment(t *testing.T) {
	text := "[Configuration] {\n    INDEX_INITIAL_COUNT = 0\n    DEBUG_MODE = false;\n}\n"

	tokens := semtok.GetTokensForText(context.Background(), text, nil)
	assert.Equal(t, []semtok.Token{{
		Type:     semtok.TokenFunction,
		Modifier: semtok.ModifierDefinition,
		Range:    position.NewBasicPosition("[Configuration]", 0),
	}}, tokens)

	assert.Equal(t, []uint32{0, 0, 15, 2, 2}, semtok.Encode(tokens, text))
}

func TestEncodeSkipsMultiLineTokens(t *testing.T) {
	text := "ab\ncd"
	got := semtok.Encode([]semtok.Token{
		{Type: semtok.TokenKeyword, Range: position.NewBasicPosition("b\nc", 1)},
		{Type: semtok.TokenKeyword, Range: position.NewBasicPosition("cd", 3)},
	}, text)
	assert.Equal(t, []uint32{1, 0, 2, 0, 0}, got)
}
