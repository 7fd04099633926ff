package semtok

import (
	"github.com/walteh/chtlls/pkg/position"
)

// TokenType represents the type of a semantic token
type TokenType int

const (
	TokenKeyword TokenType = iota + 1
	TokenClass
	TokenFunction
	TokenVariable
	TokenString
	TokenNumber
	TokenOperator
)

// TokenModifier represents a modifier for a semantic token
type TokenModifier int

const (
	ModifierNone TokenModifier = iota
	ModifierDeclaration
	ModifierDefinition
	ModifierReadonly
	ModifierStatic
	ModifierDeprecated
)

// Token represents a semantic token in the document
type Token struct {
	Type     TokenType
	Modifier TokenModifier
	Range    position.RawPosition
}

// TokenTypes is the legend advertised to clients. The index of each entry is the
// encoded token type.
var TokenTypes = []string{"keyword", "class", "function", "variable", "string", "number", "operator"}

// TokenModifiers is the modifier legend. Entry i is encoded as bit 1<<i.
var TokenModifiers = []string{"declaration", "definition", "readonly", "static", "deprecated"}

// String returns a human-readable representation of the token type
func (t TokenType) String() string {
	if t < TokenKeyword || int(t) > len(TokenTypes) {
		return "unknown"
	}
	return TokenTypes[t-1]
}

// String returns a human-readable representation of the token modifier
func (m TokenModifier) String() string {
	if m == ModifierNone {
		return "none"
	}
	if m < ModifierNone || int(m) > len(TokenModifiers) {
		return "unknown"
	}
	return TokenModifiers[m-1]
}

func (t TokenType) index() uint32 {
	return uint32(t - 1)
}

func (m TokenModifier) bits() uint32 {
	if m == ModifierNone {
		return 0
	}
	return 1 << uint32(m-1)
}
