// Package assets loads source material descriptions and caches them.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/gravity-convert/pkg/formats"
)

// MaterialExt is the extension of material description files.
const MaterialExt = ".json"

// ErrNotFound is returned when a material description file does not exist.
var ErrNotFound = errors.New("material description not found")

// Store resolves and loads material description files from one directory.
// It is safe for concurrent use.
type Store struct {
	root  string
	cache *Cache
	mu    sync.RWMutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		root:  dir,
		cache: NewCache(),
	}
}

// Root returns the material directory.
func (s *Store) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Path returns the material description path paired with a model name.
func (s *Store) Path(model string) string {
	return filepath.Join(s.Root(), model+MaterialExt)
}

// Exists reports whether the model has a material description file.
func (s *Store) Exists(model string) bool {
	info, err := os.Stat(s.Path(model))
	return err == nil && !info.IsDir()
}

// Load parses the material description at path. Parsed files are cached and
// every call returns a private copy, so callers may mutate the result.
func (s *Store) Load(path string) (*formats.MaterialInfo, error) {
	if info, ok := s.cache.Get(path); ok {
		return info.Clone(), nil
	}

	info, err := formats.ParseMaterialInfoFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	s.cache.Set(path, info)
	return info.Clone(), nil
}

// LoadModel loads the material description paired with a model name.
func (s *Store) LoadModel(model string) (*formats.MaterialInfo, error) {
	return s.Load(s.Path(model))
}

// Close drops every cached description.
func (s *Store) Close() {
	s.cache.Clear()
}

// Stats returns cache statistics.
func (s *Store) Stats() (hits, misses int) {
	return s.cache.Stats()
}

// Cache is a simple in-memory cache of parsed material descriptions.
type Cache struct {
	data map[string]*formats.MaterialInfo
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*formats.MaterialInfo),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*formats.MaterialInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return info, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, info *formats.MaterialInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = info
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*formats.MaterialInfo)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
