package chtlconfig

import (
	"regexp"
	"strings"
)

// Configuration is the keyword remapping declared by a document's
// [Configuration] block.
type Configuration struct {
	CustomKeywords *Mapping
	NameBlock      *Mapping
}

// Mapping is an insertion-ordered keyword to value map. Overwriting a key keeps
// its original position.
type Mapping struct {
	keys    []string
	values  map[string]string
	options map[string][]string
}

func NewMapping() *Mapping {
	return &Mapping{
		values:  make(map[string]string),
		options: make(map[string][]string),
	}
}

func (me *Mapping) Set(key, value string) {
	if _, ok := me.values[key]; !ok {
		me.keys = append(me.keys, key)
	}
	me.values[key] = value
}

func (me *Mapping) Get(key string) (string, bool) {
	v, ok := me.values[key]
	return v, ok
}

func (me *Mapping) Keys() []string {
	return append([]string(nil), me.keys...)
}

func (me *Mapping) Len() int {
	return len(me.keys)
}

var (
	configHeader = regexp.MustCompile(`\[Configuration\]\s*\{`)
	nameHeader   = regexp.MustCompile(`\[Name\]\s*\{`)
	assignment   = regexp.MustCompile(`(\w+)\s*=\s*([^;]+);`)
	optionGroup  = regexp.MustCompile(`(\w+)\s*\(([^)]+)\)`)
)

// New returns an empty configuration.
func New() *Configuration {
	return &Configuration{
		CustomKeywords: NewMapping(),
		NameBlock:      NewMapping(),
	}
}

// Parse extracts the first [Configuration] block of text. A missing or
// malformed block yields an empty configuration, never an error.
func Parse(text string) *Configuration {
	cfg := New()

	body, ok := blockBody(text, configHeader)
	if !ok {
		return cfg
	}

	if loc := nameHeader.FindStringIndex(body); loc != nil {
		if end, ok := matchingBrace(body, loc[1]); ok {
			parseMappings(body[loc[1]:end], cfg.NameBlock)
			body = body[:loc[0]] + body[end+1:]
		}
	}

	parseMappings(body, cfg.CustomKeywords)

	return cfg
}

// blockBody returns the text between the opening brace matched by header and its
// closing brace.
func blockBody(text string, header *regexp.Regexp) (string, bool) {
	loc := header.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	end, ok := matchingBrace(text, loc[1])
	if !ok {
		return "", false
	}
	return text[loc[1]:end], true
}

// matchingBrace finds the index of the '}' closing the block whose body starts
// at from (just after the '{').
func matchingBrace(text string, from int) (int, bool) {
	depth := 1
	for i := from; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func parseMappings(content string, target *Mapping) {
	for _, m := range assignment.FindAllStringSubmatch(content, -1) {
		target.Set(m[1], unquote(strings.TrimSpace(m[2])))
	}

	// option groups are applied after plain assignments so they overwrite
	for _, m := range optionGroup.FindAllStringSubmatch(content, -1) {
		opts := strings.Split(m[2], ",")
		for i := range opts {
			opts[i] = unquote(strings.TrimSpace(opts[i]))
		}
		target.Set(m[1], opts[0])
		target.options[m[1]] = opts
	}
}

func unquote(v string) string {
	if len(v) > 0 && (v[0] == '"' || v[0] == '\'') {
		v = v[1:]
	}
	if len(v) > 0 && (v[len(v)-1] == '"' || v[len(v)-1] == '\'') {
		v = v[:len(v)-1]
	}
	return v
}

// EffectiveKeyword returns the alias configured for def, checking custom keywords
// before the name block. Empty values are ignored.
func (me *Configuration) EffectiveKeyword(def string) string {
	for _, m := range me.mappings() {
		if v, ok := m.Get(def); ok && v != "" {
			return v
		}
	}
	return def
}

// AllCustomKeywords is the deduplicated set of configured values, custom keywords
// first.
func (me *Configuration) AllCustomKeywords() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range me.mappings() {
		for _, k := range m.keys {
			v := m.values[k]
			// an assignment missing its ';' swallows the following lines
			if v == "" || strings.ContainsAny(v, "\r\n") {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func (me *Configuration) IsCustomKeyword(word string) bool {
	if word == "" {
		return false
	}
	for _, kw := range me.AllCustomKeywords() {
		if kw == word {
			return true
		}
	}
	return false
}

// OriginalKeyword maps an alias back to the keyword it replaces.
func (me *Configuration) OriginalKeyword(custom string) (string, bool) {
	for _, m := range me.mappings() {
		for _, k := range m.keys {
			if m.values[k] == custom {
				return k, true
			}
		}
	}
	return "", false
}

// Options returns every option of a group entry such as align(left, center).
func (me *Configuration) Options(key string) []string {
	for _, m := range me.mappings() {
		if opts, ok := m.options[key]; ok {
			return append([]string(nil), opts...)
		}
	}
	return nil
}

func (me *Configuration) IsEmpty() bool {
	return me.CustomKeywords.Len() == 0 && me.NameBlock.Len() == 0
}

func (me *Configuration) mappings() []*Mapping {
	return []*Mapping{me.CustomKeywords, me.NameBlock}
}

func EffectiveKeyword(text, def string) string {
	return Parse(text).EffectiveKeyword(def)
}

func OriginalKeyword(text, custom string) (string, bool) {
	return Parse(text).OriginalKeyword(custom)
}

func AllCustomKeywords(text string) []string {
	return Parse(text).AllCustomKeywords()
}
