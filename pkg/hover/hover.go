// Package hover provides functionality for generating hover information.
package hover

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"github.com/walteh/chtlls/pkg/catalog"
	"github.com/walteh/chtlls/pkg/chtlconfig"
	"github.com/walteh/chtlls/pkg/position"
	"github.com/walteh/chtlls/pkg/scanner"
)

// Info represents the information to be displayed in a hover tooltip
type Info struct {
	// Content is the markdown content to display
	Content []string
	// Position is the text in the document that this hover applies to
	Position position.RawPosition
}

type Request struct {
	Text   string
	Offset int
	Config *chtlconfig.Configuration
}

var blockMarker = regexp.MustCompile(`\[(Custom|Template|Configuration|Import|Namespace|Origin)\]`)

// Hover looks up documentation for the word under the cursor. It returns nil when
// nothing is known about it.
func Hover(ctx context.Context, req Request) *Info {
	cfg := req.Config
	if cfg == nil {
		cfg = chtlconfig.New()
	}
	cat := catalog.Default()

	word := position.WordAt(req.Text, req.Offset)
	if word.Text == "" {
		return nil
	}

	zerolog.Ctx(ctx).Debug().Str("word", word.Text).Int("offset", word.Offset).Msg("looking up hover")

	lineStart, lineEnd := position.LineBounds(req.Text, req.Offset)
	line := req.Text[lineStart:lineEnd]

	if loc := blockMarker.FindStringIndex(line); loc != nil {
		marker := line[loc[0]:loc[1]]
		if doc, ok := cat.Doc(marker); ok {
			return &Info{
				Content:  []string{doc},
				Position: position.NewBasicPosition(marker, lineStart+loc[0]),
			}
		}
	}

	// tags are documented with their '@'
	if word.Offset > 0 && req.Text[word.Offset-1] == '@' {
		tag := position.NewBasicPosition("@"+word.Text, word.Offset-1)
		if doc, ok := cat.Doc(tag.Text); ok {
			return &Info{Content: []string{doc}, Position: tag}
		}
	}

	if doc, ok := cat.Doc(word.Text); ok {
		return &Info{Content: []string{doc}, Position: word}
	}

	if orig, ok := cfg.OriginalKeyword(word.Text); ok {
		content := []string{fmt.Sprintf("`%s` is a custom keyword for `%s`", word.Text, orig)}
		if doc, ok := cat.Doc(orig); ok {
			content = append(content, doc)
		}
		return &Info{Content: content, Position: word}
	}

	if doc, ok := cat.ConfigOptionDoc(word.Text); ok {
		return &Info{Content: []string{doc}, Position: word}
	}

	classifier := scanner.NewClassifier(req.Text, scanner.WithStyleKeyword(cfg.EffectiveKeyword("style")))
	if classifier.IsInside(scanner.KindStyle, req.Offset) {
		if doc, ok := cat.CSSDoc(word.Text); ok {
			return &Info{Content: []string{doc}, Position: word}
		}
	}

	return nil
}
