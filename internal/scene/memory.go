package scene

import (
	"fmt"
	"os"
	"sync"
)

// MemoryCodec keeps documents in memory keyed by path. It backs dry runs
// and tests; exported documents can be read back with Document.
type MemoryCodec struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryCodec creates an empty codec.
func NewMemoryCodec() *MemoryCodec {
	return &MemoryCodec{docs: make(map[string]*Document)}
}

// Put stores a document under path.
func (c *MemoryCodec) Put(path string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[path] = doc
}

// Document returns the document stored under path.
func (c *MemoryCodec) Document(path string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[path]
	return doc, ok
}

// Decode returns a copy of the stored document.
func (c *MemoryCodec) Decode(path string) (*Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", os.ErrNotExist, path)
	}
	return copyDocument(doc), nil
}

// Encode stores a copy of doc under path.
func (c *MemoryCodec) Encode(doc *Document, path string) error {
	c.Put(path, copyDocument(doc))
	return nil
}

func copyDocument(doc *Document) *Document {
	out := &Document{
		Objects:   make([]Object, len(doc.Objects)),
		Materials: make([]Material, len(doc.Materials)),
	}
	for i, o := range doc.Objects {
		out.Objects[i] = cloneObject(o)
	}
	for i, m := range doc.Materials {
		out.Materials[i] = Material{Name: m.Name, Images: append([]string(nil), m.Images...)}
	}
	return out
}
