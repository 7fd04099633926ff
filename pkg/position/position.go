package position

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/apparentlymart/go-textseg/v13/textseg"
)

// Place is a zero-based line and character pair. Character counts UTF-16 code
// units, which is what LSP clients send and expect.
type Place struct {
	Line      int
	Character int
}

type Range struct {
	Start Place
	End   Place
}

// RawPosition represents a position in the source text
type RawPosition struct {
	// Offset is the byte offset in the source text
	Offset int
	// Text is the actual text at this position
	Text string
}

// ID returns a unique identifier for this position based on offset and text
func (p *RawPosition) ID() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

// Length returns the length of the text at this position in bytes
func (p *RawPosition) Length() int {
	return len(p.Text)
}

func NewBasicPosition(text string, offset int) RawPosition {
	return RawPosition{Text: text, Offset: offset}
}

// NewRawPositionFromLineAndColumn converts an LSP line/character pair into a byte
// offset within fileText.
func NewRawPositionFromLineAndColumn(line, col int, text, fileText string) RawPosition {
	return RawPosition{Text: text, Offset: OffsetFromPlace(fileText, Place{Line: line, Character: col})}
}

func (p RawPosition) HasRangeOverlapWith(start RawPosition) bool {
	startOffset := start.Offset
	endOffset := startOffset + start.Length()

	posOffset := p.Offset
	posEndOffset := posOffset + p.Length()

	// zero-length positions overlap when they fall inside (or on the edge of) the other range
	if p.Length() == 0 {
		return posOffset >= startOffset && posOffset <= endOffset
	}
	if start.Length() == 0 {
		return startOffset >= posOffset && startOffset <= posEndOffset
	}

	return startOffset < posEndOffset && endOffset > posOffset
}

// GetLineAndColumn returns the zero-based line and UTF-16 column of the position.
func (p RawPosition) GetLineAndColumn(text string) (line, col int) {
	place := PlaceFromOffset(text, p.Offset)
	return place.Line, place.Character
}

func (p RawPosition) GetEndPosition() RawPosition {
	return RawPosition{
		Text:   "",
		Offset: p.Offset + p.Length(),
	}
}

// GetRange calculates the line/character range covered by the position.
func (p RawPosition) GetRange(fileText string) Range {
	return Range{
		Start: PlaceFromOffset(fileText, p.Offset),
		End:   PlaceFromOffset(fileText, p.GetEndPosition().Offset),
	}
}

func (p RawPosition) String() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

type RawPositionArray []RawPosition

func (me RawPositionArray) ToStrings() []string {
	var texts []string
	for _, pos := range me {
		texts = append(texts, pos.String())
	}
	return texts
}

// PlaceFromOffset converts a byte offset into a line and UTF-16 character.
// Offsets outside the text are clamped.
func PlaceFromOffset(text string, offset int) Place {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	prefix := text[:offset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndexByte(prefix, '\n') + 1

	return Place{Line: line, Character: utf16Len(prefix[lineStart:])}
}

// OffsetFromPlace converts a line and UTF-16 character into a byte offset.
// A line past the end of the text maps to len(text); a character past the end of
// its line maps to the end of that line.
func OffsetFromPlace(text string, place Place) int {
	start := 0
	for i := 0; i < place.Line; i++ {
		idx := strings.IndexByte(text[start:], '\n')
		if idx == -1 {
			return len(text)
		}
		start += idx + 1
	}

	end := strings.IndexByte(text[start:], '\n')
	if end == -1 {
		end = len(text)
	} else {
		end += start
	}

	units := 0
	for i, r := range text[start:end] {
		if units >= place.Character {
			return start + i
		}
		units += runeUTF16Len(r)
	}

	return end
}

// EndPlace is the place just after the final character of text.
func EndPlace(text string) Place {
	return PlaceFromOffset(text, len(text))
}

// LineBounds returns the byte offsets of the start and end (exclusive, before the
// newline) of the line containing offset.
func LineBounds(text string, offset int) (start, end int) {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	start = strings.LastIndexByte(text[:offset], '\n') + 1
	end = strings.IndexByte(text[offset:], '\n')
	if end == -1 {
		return start, len(text)
	}
	return start, offset + end
}

// LinePrefix is the text between the start of the line and offset.
func LinePrefix(text string, offset int) string {
	start, _ := LineBounds(text, offset)
	if offset > len(text) {
		offset = len(text)
	}
	return text[start:offset]
}

// WordAt finds the word touching offset. Words are runs of grapheme clusters
// starting with a letter, digit, underscore or hyphen. The returned position has
// empty Text when no word touches offset.
func WordAt(text string, offset int) RawPosition {
	start, end := LineBounds(text, offset)
	line := text[start:end]

	clusters, err := textseg.AllTokens([]byte(line), textseg.ScanGraphemeClusters)
	if err != nil {
		return RawPosition{Offset: offset}
	}

	type span struct {
		from, to int
		word     bool
	}

	spans := make([]span, 0, len(clusters))
	at := 0
	for _, c := range clusters {
		r, _ := utf8.DecodeRune(c)
		spans = append(spans, span{from: at, to: at + len(c), word: isWordRune(r)})
		at += len(c)
	}

	rel := offset - start
	hit := -1
	for i, s := range spans {
		if s.word && rel >= s.from && rel < s.to {
			hit = i
			break
		}
	}
	if hit == -1 {
		// cursor sitting just after a word
		for i, s := range spans {
			if s.word && s.to == rel {
				hit = i
				break
			}
		}
	}
	if hit == -1 {
		return RawPosition{Offset: offset}
	}

	first, last := hit, hit
	for first > 0 && spans[first-1].word {
		first--
	}
	for last < len(spans)-1 && spans[last+1].word {
		last++
	}

	return RawPosition{
		Offset: start + spans[first].from,
		Text:   line[spans[first].from:spans[last].to],
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUTF16Len(r)
	}
	return n
}

func runeUTF16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
