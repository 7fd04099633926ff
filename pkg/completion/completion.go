package completion

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/chtlls/pkg/catalog"
	"github.com/walteh/chtlls/pkg/chtlconfig"
)

// ItemKind mirrors the LSP CompletionItemKind values used here.
type ItemKind int

const (
	KindClass     ItemKind = 7
	KindModule    ItemKind = 9
	KindProperty  ItemKind = 10
	KindValue     ItemKind = 12
	KindKeyword   ItemKind = 14
	KindReference ItemKind = 18
)

// TriggerCharacters are the characters that open completion automatically.
var TriggerCharacters = []string{".", "@", "[", "#", "&", ":"}

// Item represents a single completion suggestion
type Item struct {
	Label         string
	Kind          ItemKind
	Detail        string
	Documentation string
	InsertText    string
	// Snippet marks InsertText as an LSP snippet with $1 style placeholders.
	Snippet bool
}

type Request struct {
	Text             string
	Offset           int
	TriggerCharacter string
	Config           *chtlconfig.Configuration
}

type provider func(cctx *CompletionContext, cfg *chtlconfig.Configuration, cat *catalog.Catalog) []Item

var providers = map[string]provider{
	"@": specialTagItems,
	"[": specialBlockItems,
	".": classSelectorItems,
	"#": idSelectorItems,
	":": colonItems,
}

// Complete returns completion items for the given request
func Complete(ctx context.Context, req Request) []Item {
	cfg := req.Config
	if cfg == nil {
		cfg = chtlconfig.New()
	}

	cctx := NewCompletionContext(req.Text, req.Offset, req.TriggerCharacter, cfg)

	p, ok := providers[req.TriggerCharacter]
	if !ok {
		p = generalItems
	}

	items := p(cctx, cfg, catalog.Default())

	zerolog.Ctx(ctx).Debug().
		Str("trigger", req.TriggerCharacter).
		Bool("in_style", cctx.InStyle).
		Int("count", len(items)).
		Msg("computed completions")

	return items
}

func specialTagItems(cctx *CompletionContext, _ *chtlconfig.Configuration, cat *catalog.Catalog) []Item {
	var items []Item
	for _, tag := range cat.SpecialTags {
		items = append(items, Item{
			Label:      tag[1:],
			Kind:       KindKeyword,
			InsertText: tag[1:],
			Detail:     fmt.Sprintf("CHTL %s tag", tag),
		})
	}

	if !cctx.AfterAt() {
		return items
	}

	for _, style := range cat.PredefinedStyles {
		items = append(items, Item{
			Label:      "Style " + style,
			Kind:       KindReference,
			InsertText: "Style " + style,
			Detail:     "Predefined style",
		})
	}
	for _, element := range cat.PredefinedElements {
		items = append(items, Item{
			Label:      "Element " + element,
			Kind:       KindReference,
			InsertText: "Element " + element,
			Detail:     "Predefined element",
		})
	}
	return items
}

func specialBlockItems(_ *CompletionContext, _ *chtlconfig.Configuration, cat *catalog.Catalog) []Item {
	var items []Item
	for _, block := range cat.SpecialBlocks {
		name := block[1 : len(block)-1]
		items = append(items, Item{
			Label:      name,
			Kind:       KindModule,
			InsertText: name + "]",
			Detail:     fmt.Sprintf("CHTL %s block", block),
		})
	}
	return items
}

func classSelectorItems(_ *CompletionContext, _ *chtlconfig.Configuration, _ *catalog.Catalog) []Item {
	return []Item{{
		Label:      "class-name",
		Kind:       KindClass,
		InsertText: "${1:class-name}",
		Snippet:    true,
		Detail:     "CSS class selector",
	}}
}

func idSelectorItems(_ *CompletionContext, _ *chtlconfig.Configuration, _ *catalog.Catalog) []Item {
	return []Item{{
		Label:      "id-name",
		Kind:       KindReference,
		InsertText: "${1:id-name}",
		Snippet:    true,
		Detail:     "CSS ID selector",
	}}
}

func colonItems(cctx *CompletionContext, _ *chtlconfig.Configuration, cat *catalog.Catalog) []Item {
	var items []Item

	if cctx.InStyle {
		prop, ok := cctx.CurrentProperty()
		if !ok {
			return nil
		}
		for _, value := range cat.CSSValues(prop) {
			items = append(items, Item{
				Label:      value,
				Kind:       KindValue,
				InsertText: fmt.Sprintf(" %q;", value),
			})
		}
		return items
	}

	for _, attr := range cat.Attributes {
		items = append(items, Item{
			Label:      attr,
			Kind:       KindProperty,
			InsertText: ` "${1:value}";`,
			Snippet:    true,
			Detail:     attr + " attribute",
		})
	}
	return items
}

func generalItems(cctx *CompletionContext, cfg *chtlconfig.Configuration, cat *catalog.Catalog) []Item {
	var items []Item

	for _, element := range cat.HTMLElements {
		items = append(items, Item{
			Label:         element,
			Kind:          KindClass,
			InsertText:    element + " {\n\t$0\n}",
			Snippet:       true,
			Detail:        fmt.Sprintf("HTML %s element", element),
			Documentation: fmt.Sprintf("Creates a %s element", element),
		})
	}

	for _, keyword := range cat.Keywords {
		effective := cfg.EffectiveKeyword(keyword)

		item := Item{
			Label:  effective,
			Kind:   KindKeyword,
			Detail: fmt.Sprintf("CHTL %s keyword", keyword),
		}
		if effective != keyword {
			item.Detail += " (customized)"
		}
		switch keyword {
		case "text":
			item.InsertText = effective + ` { "$1" }`
			item.Snippet = true
		case "style":
			item.InsertText = effective + " {\n\t$0\n}"
			item.Snippet = true
		}
		items = append(items, item)
	}

	// aliases of anything other than a CHTL keyword get their own entry
	for _, custom := range cfg.AllCustomKeywords() {
		orig, ok := cfg.OriginalKeyword(custom)
		if ok && slices.Contains(cat.Keywords, orig) {
			continue
		}
		items = append(items, Item{
			Label:  custom,
			Kind:   KindKeyword,
			Detail: "Custom keyword",
		})
	}

	if cctx.InStyle {
		for _, prop := range cat.CSSProperties {
			items = append(items, Item{
				Label:      prop,
				Kind:       KindProperty,
				InsertText: prop + `: "$1";`,
				Snippet:    true,
				Detail:     fmt.Sprintf("CSS %s property", prop),
			})
		}
	}

	return items
}
