package chtlconfig

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
	"gitlab.com/tozd/go/errors"
)

const DefaultCacheSize = 512

type cacheEntry struct {
	sum    [sha256.Size]byte
	config *Configuration
}

// Cache holds parsed configurations keyed by document URI. An entry is reused
// only while the document text hashes to the same value.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, errors.Errorf("creating configuration cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// MustNewCache is NewCache with the default size. It cannot fail for a positive
// size.
func MustNewCache() *Cache {
	c, err := NewCache(DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

func (me *Cache) Get(uri, text string) *Configuration {
	sum := sha256.Sum256([]byte(text))

	if entry, ok := me.entries.Get(uri); ok && entry.sum == sum {
		return entry.config
	}

	cfg := Parse(text)
	me.entries.Add(uri, cacheEntry{sum: sum, config: cfg})
	return cfg
}

func (me *Cache) Clear(uri string) {
	me.entries.Remove(uri)
}

func (me *Cache) ClearAll() {
	me.entries.Purge()
}

func (me *Cache) Len() int {
	return me.entries.Len()
}
