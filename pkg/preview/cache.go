package preview

import (
	"strings"
	"sync"
)

// NormalizeKey maps a source path to its cache key: backslashes become
// forward slashes and one leading slash is dropped.
func NormalizeKey(path string) string {
	key := strings.ReplaceAll(path, `\`, "/")
	return strings.TrimPrefix(key, "/")
}

// Cache holds the latest compiled HTML per source file.
type Cache struct {
	mu    sync.RWMutex
	pages map[string]string
}

func NewCache() *Cache {
	return &Cache{pages: make(map[string]string)}
}

func (me *Cache) Set(sourcePath, html string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.pages[NormalizeKey(sourcePath)] = html
}

func (me *Cache) Get(sourcePath string) (string, bool) {
	me.mu.RLock()
	defer me.mu.RUnlock()
	html, ok := me.pages[NormalizeKey(sourcePath)]
	return html, ok
}

func (me *Cache) Clear() {
	me.mu.Lock()
	defer me.mu.Unlock()
	clear(me.pages)
}

func (me *Cache) Len() int {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return len(me.pages)
}
