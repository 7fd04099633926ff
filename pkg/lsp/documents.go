package lsp

import (
	"sync"

	"github.com/spf13/afero"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
)

// Document is an immutable snapshot of an open text document. Updates store a
// new snapshot.
type Document struct {
	URI        protocol.DocumentURI
	Path       string
	LanguageID string
	Version    int32
	Content    string
}

// DocumentManager holds the open documents, keyed by filesystem path.
type DocumentManager struct {
	store *sync.Map // map[string]*Document
	fs    afero.Fs
}

func NewDocumentManager(fs afero.Fs) *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
		fs:    fs,
	}
}

func (m *DocumentManager) GetNoFallback(uri protocol.DocumentURI) (*Document, bool) {
	content, ok := m.store.Load(uri.Path())
	if !ok {
		return nil, false
	}
	return content.(*Document), true
}

// Get returns the open document, falling back to the file on disk.
func (m *DocumentManager) Get(uri protocol.DocumentURI) (*Document, bool) {
	if doc, ok := m.GetNoFallback(uri); ok {
		return doc, true
	}

	path := uri.Path()
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, false
	}

	return &Document{
		URI:     uri,
		Path:    path,
		Content: string(data),
	}, true
}

func (m *DocumentManager) Store(doc *Document) {
	if doc.Path == "" {
		doc.Path = doc.URI.Path()
	}
	m.store.Store(doc.Path, doc)
}

func (m *DocumentManager) Delete(uri protocol.DocumentURI) {
	m.store.Delete(uri.Path())
}
