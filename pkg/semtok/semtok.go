package semtok

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/walteh/chtlls/pkg/chtlconfig"
	"github.com/walteh/chtlls/pkg/position"
	"github.com/walteh/chtlls/pkg/scanner"
)

var blockMarkers = regexp.MustCompile(`\[(?:Configuration|Name)\]`)

// GetTokensForText returns semantic tokens for the given document text, sorted
// by offset. cfg may be nil, in which case it is parsed from text.
func GetTokensForText(ctx context.Context, text string, cfg *chtlconfig.Configuration) []Token {
	if cfg == nil {
		cfg = chtlconfig.Parse(text)
	}

	spans := scanner.NewClassifier(text).Spans()

	var tokens []Token

	for _, kw := range cfg.AllCustomKeywords() {
		for _, at := range wordOccurrences(text, kw) {
			if scanner.InSpans(spans, at) {
				continue
			}
			tokens = append(tokens, Token{
				Type:     TokenKeyword,
				Modifier: ModifierNone,
				Range:    position.NewBasicPosition(kw, at),
			})
		}
	}

	for _, loc := range blockMarkers.FindAllStringIndex(text, -1) {
		if scanner.InSpans(spans, loc[0]) {
			continue
		}
		tokens = append(tokens, Token{
			Type:     TokenFunction,
			Modifier: ModifierDefinition,
			Range:    position.NewBasicPosition(text[loc[0]:loc[1]], loc[0]),
		})
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Range.Offset < tokens[j].Range.Offset
	})

	zerolog.Ctx(ctx).Debug().Int("tokens", len(tokens)).Msg("generated semantic tokens")

	return tokens
}

// GetTokensForRange returns the tokens that overlap the given range.
func GetTokensForRange(ctx context.Context, text string, cfg *chtlconfig.Configuration, ranged position.RawPosition) []Token {
	var out []Token
	for _, tok := range GetTokensForText(ctx, text, cfg) {
		if tok.Range.HasRangeOverlapWith(ranged) {
			out = append(out, tok)
		}
	}
	return out
}

// wordOccurrences finds kw in text where it is not part of a longer identifier.
func wordOccurrences(text, kw string) []int {
	if kw == "" || strings.ContainsAny(kw, "\r\n") {
		return nil
	}
	re := regexp.MustCompile(regexp.QuoteMeta(kw))

	var out []int
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
			if isIdentRune(r) {
				continue
			}
		}
		if loc[1] < len(text) {
			r, _ := utf8.DecodeRuneInString(text[loc[1]:])
			if isIdentRune(r) {
				continue
			}
		}
		out = append(out, loc[0])
	}
	return out
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Encode converts tokens into the LSP relative encoding:
// [deltaLine, deltaChar, length, tokenType, tokenModifiers] per token, with
// columns and lengths in UTF-16 code units.
func Encode(tokens []Token, text string) []uint32 {
	sorted := append([]Token(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Offset < sorted[j].Range.Offset
	})

	data := make([]uint32, 0, len(sorted)*5)
	var prevLine, prevChar uint32

	for _, tok := range sorted {
		rng := tok.Range.GetRange(text)
		// multi-line tokens are not representable
		if rng.End.Line != rng.Start.Line || rng.End.Character < rng.Start.Character {
			continue
		}
		line := uint32(rng.Start.Line)
		char := uint32(rng.Start.Character)
		length := uint32(rng.End.Character - rng.Start.Character)

		deltaLine := line - prevLine
		deltaChar := char
		if deltaLine == 0 {
			deltaChar = char - prevChar
		}

		data = append(data, deltaLine, deltaChar, length, tok.Type.index(), tok.Modifier.bits())

		prevLine = line
		prevChar = char
	}

	return data
}
