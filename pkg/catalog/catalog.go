// Package catalog holds the static CHTL, HTML and CSS lookup tables used by
// completion and hover. The tables are decoded once from an embedded YAML file
// and never change afterwards.
package catalog

import (
	"bytes"
	_ "embed"
	"slices"
	"sync"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	HTMLElements       []string            `yaml:"htmlElements"`
	Attributes         []string            `yaml:"attributes"`
	CSSProperties      []string            `yaml:"cssProperties"`
	CSSPropertyValues  map[string][]string `yaml:"cssValues"`
	Keywords           []string            `yaml:"keywords"`
	SpecialBlocks      []string            `yaml:"specialBlocks"`
	SpecialTags        []string            `yaml:"specialTags"`
	PredefinedStyles   []string            `yaml:"predefinedStyles"`
	PredefinedElements []string            `yaml:"predefinedElements"`
	Docs               map[string]string   `yaml:"docs"`
	CSSDocs            map[string]string   `yaml:"cssDocs"`
	ConfigOptions      map[string]string   `yaml:"configOptions"`
}

// Parse decodes a catalog document. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Errorf("parsing catalog: %w", err)
	}
	return &c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// CSSValues lists the known values of a CSS property in display order, or nil
// for an unknown property.
func (me *Catalog) CSSValues(prop string) []string {
	return slices.Clone(me.CSSPropertyValues[prop])
}

func (me *Catalog) Doc(word string) (string, bool) {
	d, ok := me.Docs[word]
	return d, ok
}

func (me *Catalog) CSSDoc(prop string) (string, bool) {
	d, ok := me.CSSDocs[prop]
	return d, ok
}

func (me *Catalog) ConfigOptionDoc(name string) (string, bool) {
	d, ok := me.ConfigOptions[name]
	return d, ok
}

func (me *Catalog) IsKeyword(word string) bool {
	return slices.Contains(me.Keywords, word)
}
