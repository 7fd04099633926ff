package completion

import (
	"regexp"
	"strings"

	"github.com/walteh/chtlls/pkg/chtlconfig"
	"github.com/walteh/chtlls/pkg/position"
	"github.com/walteh/chtlls/pkg/scanner"
)

// CompletionContext holds information about the completion request context
type CompletionContext struct {
	Content string
	Offset  int
	Trigger string
	// LinePrefix is the current line up to the cursor.
	LinePrefix string
	InStyle    bool
	InString   bool
	InComment  bool
}

// NewCompletionContext creates a new completion context
func NewCompletionContext(content string, offset int, trigger string, cfg *chtlconfig.Configuration) *CompletionContext {
	if offset > len(content) {
		offset = len(content)
	}

	styleKeyword := "style"
	if cfg != nil {
		styleKeyword = cfg.EffectiveKeyword("style")
	}

	sc := scanner.Classify(content, offset, scanner.WithStyleKeyword(styleKeyword))

	return &CompletionContext{
		Content:    content,
		Offset:     offset,
		Trigger:    trigger,
		LinePrefix: position.LinePrefix(content, offset),
		InStyle:    sc.IsStyle(),
		InString:   sc.InString,
		InComment:  sc.InComment,
	}
}

var propertyBeforeColon = regexp.MustCompile(`([\w-]+)\s*:\s*$`)

// CurrentProperty returns the property name directly before a trailing colon.
func (c *CompletionContext) CurrentProperty() (string, bool) {
	m := propertyBeforeColon.FindStringSubmatch(c.LinePrefix)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// AfterAt reports whether the cursor directly follows an '@'.
func (c *CompletionContext) AfterAt() bool {
	return strings.HasSuffix(c.LinePrefix, "@")
}
