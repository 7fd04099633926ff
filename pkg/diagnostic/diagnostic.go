package diagnostic

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/walteh/chtlls/pkg/position"
	"github.com/walteh/chtlls/pkg/scanner"
)

// Severity mirrors the LSP DiagnosticSeverity values.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

const (
	CodeUnclosedBrace     = "unclosed-brace"
	CodeMissingSemicolon  = "missing-semicolon"
	CodeInvalidImport     = "invalid-import"
	CodeDuplicateID       = "duplicate-id"
	CodeUnbalancedBraces  = "unbalanced-braces"
	CodeCustomKeywordHint = "custom-keyword-hint"
)

// Diagnostic represents a single diagnostic message
type Diagnostic struct {
	Message  string
	Location position.RawPosition
	Severity Severity
	Code     string
}

// Line is one line of a document without its line terminator.
type Line struct {
	Text   string
	Offset int
}

// Lines splits text on '\n'. A trailing '\r' is dropped from each line.
func Lines(text string) []Line {
	var lines []Line
	start := 0
	for {
		idx := strings.IndexByte(text[start:], '\n')
		end := len(text)
		if idx != -1 {
			end = start + idx
		}
		lines = append(lines, Line{Text: strings.TrimSuffix(text[start:end], "\r"), Offset: start})
		if idx == -1 {
			return lines
		}
		start = end + 1
	}
}

// lastChar anchors a diagnostic on the final character of the line.
func lastChar(line Line) position.RawPosition {
	if line.Text == "" {
		return position.NewBasicPosition("", line.Offset)
	}
	_, size := utf8.DecodeLastRuneInString(line.Text)
	return position.NewBasicPosition(line.Text[len(line.Text)-size:], line.Offset+len(line.Text)-size)
}

// CheckUnclosedBraces flags a line that opens more braces than it closes. Lines
// ending in '{' are the start of a multi-line block and are left alone.
func CheckUnclosedBraces(line Line) []Diagnostic {
	if strings.HasSuffix(strings.TrimSpace(line.Text), "{") {
		return nil
	}
	if scanner.BraceDepth(line.Text) <= 0 {
		return nil
	}
	return []Diagnostic{{
		Message:  "Unclosed brace",
		Location: lastChar(line),
		Severity: SeverityWarning,
		Code:     CodeUnclosedBrace,
	}}
}

var attributeOnly = regexp.MustCompile(`^\w+\s*:\s*"[^"]*"$`)

func CheckMissingSemicolon(line Line) []Diagnostic {
	if !attributeOnly.MatchString(strings.TrimSpace(line.Text)) {
		return nil
	}
	return []Diagnostic{{
		Message:  "Missing semicolon after attribute",
		Location: lastChar(line),
		Severity: SeverityError,
		Code:     CodeMissingSemicolon,
	}}
}

var importStatement = regexp.MustCompile(`\[Import\]\s*"([^"]+)"\s*;?`)

// ImportPath returns the quoted path of an [Import] statement on the line.
func ImportPath(line string) (string, int, bool) {
	m := importStatement.FindStringSubmatchIndex(line)
	if m == nil {
		return "", 0, false
	}
	return line[m[2]:m[3]], m[2], true
}

func CheckImportSyntax(line Line) []Diagnostic {
	if !strings.Contains(line.Text, "[Import]") {
		return nil
	}
	if importStatement.MatchString(line.Text) {
		return nil
	}
	return []Diagnostic{{
		Message:  `Invalid import syntax. Use: [Import] "path/to/file.chtl"`,
		Location: position.NewBasicPosition(line.Text, line.Offset),
		Severity: SeverityError,
		Code:     CodeInvalidImport,
	}}
}

var idAttribute = regexp.MustCompile(`\bid\s*:\s*"([^"]+)"`)

// CheckDuplicateIDs flags an id attribute whose literal value appears more than
// once anywhere in the document. Element scope is not considered.
func CheckDuplicateIDs(text string, line Line) []Diagnostic {
	m := idAttribute.FindStringSubmatchIndex(line.Text)
	if m == nil {
		return nil
	}
	id := line.Text[m[2]:m[3]]

	all := regexp.MustCompile(`\bid\s*:\s*"` + regexp.QuoteMeta(id) + `"`)
	if len(all.FindAllStringIndex(text, 2)) < 2 {
		return nil
	}

	return []Diagnostic{{
		Message:  fmt.Sprintf("Duplicate ID: %q", id),
		Location: position.NewBasicPosition(line.Text[m[0]:m[1]], line.Offset+m[0]),
		Severity: SeverityWarning,
		Code:     CodeDuplicateID,
	}}
}

// CheckBraceBalance compares the total number of '{' and '}' in the document and
// reports a mismatch on the last line.
func CheckBraceBalance(text string) []Diagnostic {
	depth := scanner.BraceDepth(text)
	if depth == 0 {
		return nil
	}

	lines := Lines(text)
	last := lines[len(lines)-1]

	msg := "Unbalanced braces: missing closing brace"
	if depth < 0 {
		msg = "Unbalanced braces: extra closing brace"
	}

	return []Diagnostic{{
		Message:  msg,
		Location: position.NewBasicPosition(last.Text, last.Offset),
		Severity: SeverityError,
		Code:     CodeUnbalancedBraces,
	}}
}

var exoticKeyword = regexp.MustCompile(`(?i)texto|estilos?|clase|текст|样式|スタイル`)

// CheckUnconfiguredKeywords hints that a document without a [Configuration]
// block uses words that look like keyword aliases.
func CheckUnconfiguredKeywords(text string, line Line) []Diagnostic {
	if strings.Contains(text, "[Configuration]") {
		return nil
	}

	var diags []Diagnostic
	for _, m := range exoticKeyword.FindAllStringIndex(line.Text, -1) {
		if !standsAlone(line.Text, m[0], m[1]) {
			continue
		}
		word := line.Text[m[0]:m[1]]
		diags = append(diags, Diagnostic{
			Message:  fmt.Sprintf("%q might be a custom keyword. Consider adding a [Configuration] block to define custom keywords.", word),
			Location: position.NewBasicPosition(word, line.Offset+m[0]),
			Severity: SeverityInformation,
			Code:     CodeCustomKeywordHint,
		})
	}
	return diags
}

func standsAlone(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Checker produces the diagnostics for a document.
type Checker interface {
	Check(ctx context.Context, text string) []Diagnostic
}

type DefaultChecker struct{}

func NewDefaultChecker() *DefaultChecker {
	return &DefaultChecker{}
}

// Check implements Checker
func (me *DefaultChecker) Check(ctx context.Context, text string) []Diagnostic {
	return Run(ctx, text)
}

// Run applies every line check to every line, then the document checks.
func Run(ctx context.Context, text string) []Diagnostic {
	diags := []Diagnostic{}

	for _, line := range Lines(text) {
		diags = append(diags, CheckUnclosedBraces(line)...)
		diags = append(diags, CheckMissingSemicolon(line)...)
		diags = append(diags, CheckImportSyntax(line)...)
		diags = append(diags, CheckDuplicateIDs(text, line)...)
		diags = append(diags, CheckUnconfiguredKeywords(text, line)...)
	}

	diags = append(diags, CheckBraceBalance(text)...)

	zerolog.Ctx(ctx).Debug().Int("count", len(diags)).Msg("computed diagnostics")

	return diags
}
