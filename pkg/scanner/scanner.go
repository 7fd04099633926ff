// Package scanner classifies a cursor offset within CHTL source text. The
// classification is heuristic: it tracks brace depth, strings and comments in a
// single forward pass and never parses the document.
package scanner

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Kind int

const (
	KindStyle Kind = 1 << iota
	KindString
	KindComment
)

func (k Kind) String() string {
	var parts []string
	if k&KindStyle != 0 {
		parts = append(parts, "style")
	}
	if k&KindString != 0 {
		parts = append(parts, "string")
	}
	if k&KindComment != 0 {
		parts = append(parts, "comment")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Context is the state of the scan at the cutoff offset.
type Context struct {
	// Depth is the naive brace depth. It may be negative for malformed input.
	Depth     int
	InStyle   bool
	InString  bool
	InComment bool
}

func (c Context) Kind() Kind {
	var k Kind
	if c.InStyle && c.Depth > 0 {
		k |= KindStyle
	}
	if c.InString {
		k |= KindString
	}
	if c.InComment {
		k |= KindComment
	}
	return k
}

func (c Context) IsStyle() bool {
	return c.Kind()&KindStyle != 0
}

type options struct {
	styleKeyword string
}

type Option func(*options)

// WithStyleKeyword replaces the keyword that opens a style block, so a configured
// alias such as "estilo" is honoured.
func WithStyleKeyword(kw string) Option {
	return func(o *options) {
		if kw != "" {
			o.styleKeyword = kw
		}
	}
}

// Classifier answers context questions about a fixed text.
type Classifier struct {
	text string
	opts options
}

func NewClassifier(text string, opts ...Option) *Classifier {
	o := options{styleKeyword: "style"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Classifier{text: text, opts: o}
}

// IsInside reports whether offset falls in any of the given kinds.
func (me *Classifier) IsInside(kind Kind, offset int) bool {
	return me.At(offset).Kind()&kind != 0
}

func (me *Classifier) At(offset int) Context {
	return scan(me.text, offset, me.opts.styleKeyword, nil)
}

// Span is a string literal or comment, including its delimiters.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Spans lists every string literal and comment in the text in order. An
// unterminated string or comment runs to the end of the text.
func (me *Classifier) Spans() []Span {
	var spans []Span
	scan(me.text, len(me.text), me.opts.styleKeyword, &spans)
	return spans
}

// InSpans reports whether offset falls inside one of the sorted spans.
func InSpans(spans []Span, offset int) bool {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].End > offset })
	return i < len(spans) && spans[i].Start <= offset
}

// Classify is a one-shot NewClassifier(text, opts...).At(offset).
func Classify(text string, offset int, opts ...Option) Context {
	return NewClassifier(text, opts...).At(offset)
}

const (
	stateCode = iota
	stateDouble
	stateSingle
	stateLineComment
	stateBlockComment
)

func scan(text string, offset int, styleKeyword string, spans *[]Span) Context {
	if offset > len(text) {
		offset = len(text)
	}

	var ctx Context
	state := stateCode
	styleDepth := 0
	spanStart := 0

	closeSpan := func(end int, kind Kind) {
		if spans != nil {
			*spans = append(*spans, Span{Start: spanStart, End: end, Kind: kind})
		}
		state = stateCode
	}

	for i := 0; i < offset; i++ {
		c := text[i]
		switch state {
		case stateDouble, stateSingle:
			if c == '\\' {
				i++
				continue
			}
			if (state == stateDouble && c == '"') || (state == stateSingle && c == '\'') {
				closeSpan(i+1, KindString)
			}
		case stateLineComment:
			if c == '\n' {
				closeSpan(i, KindComment)
			}
		case stateBlockComment:
			if c == '*' && i+1 < offset && text[i+1] == '/' {
				i++
				closeSpan(i+1, KindComment)
			}
		default:
			switch {
			case c == '"':
				state, spanStart = stateDouble, i
			case c == '\'':
				state, spanStart = stateSingle, i
			case c == '/' && i+1 < len(text) && text[i+1] == '/':
				state, spanStart = stateLineComment, i
				i++
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				state, spanStart = stateBlockComment, i
				i++
			case c == '{':
				ctx.Depth++
			case c == '}':
				ctx.Depth--
				if ctx.Depth <= styleDepth {
					ctx.InStyle = false
				}
			case strings.HasPrefix(text[i:], styleKeyword) && keywordAt(text, i, styleKeyword):
				ctx.InStyle = true
				styleDepth = ctx.Depth
				i += len(styleKeyword) - 1
			}
		}
	}

	ctx.InString = state == stateDouble || state == stateSingle
	ctx.InComment = state == stateLineComment || state == stateBlockComment

	if spans != nil && state != stateCode {
		kind := KindString
		if ctx.InComment {
			kind = KindComment
		}
		*spans = append(*spans, Span{Start: spanStart, End: offset, Kind: kind})
	}

	return ctx
}

// keywordAt reports whether kw at i stands alone: preceded by a non identifier
// rune and followed by a space or an opening brace.
func keywordAt(text string, i int, kw string) bool {
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		if isIdentRune(r) {
			return false
		}
	}
	after := i + len(kw)
	if after >= len(text) {
		return false
	}
	switch text[after] {
	case ' ', '\t', '\n', '\r', '{':
		return true
	}
	return false
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '@'
}

// BraceDepth is the naive count of '{' minus '}' over the whole text.
func BraceDepth(text string) int {
	return strings.Count(text, "{") - strings.Count(text, "}")
}
