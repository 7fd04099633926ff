package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// Formatter formats diagnostics into different output formats
type Formatter interface {
	// Format formats diagnostics into a specific output format
	Format(diags []Diagnostic, text string) ([]byte, error)
}

// NewFormatter returns the formatter registered under name ("text" or "json").
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(), nil
	case "json":
		return NewVSCodeFormatter(), nil
	}
	return nil, errors.Errorf("unknown diagnostic format %q", name)
}

// Format renders diags with the named formatter.
func Format(diags []Diagnostic, text, name string) ([]byte, error) {
	f, err := NewFormatter(name)
	if err != nil {
		return nil, err
	}
	return f.Format(diags, text)
}

type TextFormatter struct{}

func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format implements Formatter. Positions are printed one-based.
func (f *TextFormatter) Format(diags []Diagnostic, text string) ([]byte, error) {
	var buf bytes.Buffer
	for _, d := range diags {
		line, col := d.Location.GetLineAndColumn(text)
		fmt.Fprintf(&buf, "%d:%d: %s: %s [%s]\n", line+1, col+1, d.Severity, d.Message, d.Code)
	}
	return buf.Bytes(), nil
}

type VSCodePosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type VSCodeRange struct {
	Start VSCodePosition `json:"start"`
	End   VSCodePosition `json:"end"`
}

type VSCodeDiagnostic struct {
	Severity int         `json:"severity"`
	Message  string      `json:"message"`
	Code     string      `json:"code,omitempty"`
	Source   string      `json:"source"`
	Range    VSCodeRange `json:"range"`
}

// VSCodeFormatter formats diagnostics into VSCode-compatible format
type VSCodeFormatter struct{}

// NewVSCodeFormatter creates a new VSCodeFormatter
func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

// Format implements Formatter
func (f *VSCodeFormatter) Format(diags []Diagnostic, text string) ([]byte, error) {
	result := make([]VSCodeDiagnostic, 0, len(diags))

	for _, d := range diags {
		rng := d.Location.GetRange(text)
		result = append(result, VSCodeDiagnostic{
			Severity: int(d.Severity),
			Message:  d.Message,
			Code:     d.Code,
			Source:   "chtl",
			Range: VSCodeRange{
				Start: VSCodePosition{Line: rng.Start.Line, Character: rng.Start.Character},
				End:   VSCodePosition{Line: rng.End.Line, Character: rng.End.Character},
			},
		})
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Errorf("marshalling diagnostics: %w", err)
	}
	return out, nil
}
