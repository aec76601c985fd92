package corpus

import (
	"fmt"
	"sync"
)

// Source reads raw corpus documents, e.g. from the filesystem or an
// embedded archive. It returns each document's raw text keyed by a
// source-assigned path; Cache does not care what the key means beyond using
// it for error messages.
type Source interface {
	List(docType DocType) (map[string]string, error)
}

// Cache is the process-wide, explicit (never a package-level global per
// spec.md §9 Design Notes) lazily-loaded store of parsed corpus documents.
// Readers never block each other; a sync.Once per document type serializes
// the one lazy load of that type.
type Cache struct {
	source Source

	mu        sync.RWMutex
	loadOnce  map[DocType]*sync.Once
	documents map[DocType][]Document
	loadErr   map[DocType]error
}

// NewCache builds an empty cache backed by source. Nothing is read until the
// first Philosophies, Structures or Templates call for a given document type.
func NewCache(source Source) *Cache {
	return &Cache{
		source:    source,
		loadOnce:  map[DocType]*sync.Once{DocPhilosophy: {}, DocStructure: {}, DocTemplate: {}},
		documents: map[DocType][]Document{},
		loadErr:   map[DocType]error{},
	}
}

func (c *Cache) ensureLoaded(docType DocType) error {
	once, ok := c.loadOnce[docType]
	if !ok {
		return fmt.Errorf("corpus: unknown document type %q", docType)
	}
	once.Do(func() {
		raws, err := c.source.List(docType)
		if err != nil {
			c.mu.Lock()
			c.loadErr[docType] = fmt.Errorf("corpus: loading %s documents: %w", docType, err)
			c.mu.Unlock()
			return
		}

		docs := make([]Document, 0, len(raws))
		for path, raw := range raws {
			doc, err := Parse(docType, raw)
			if err != nil {
				c.mu.Lock()
				c.loadErr[docType] = fmt.Errorf("corpus: parsing %s: %w", path, err)
				c.mu.Unlock()
				return
			}
			docs = append(docs, doc)
		}

		c.mu.Lock()
		c.documents[docType] = docs
		c.mu.Unlock()
	})

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr[docType]
}

// Philosophies returns every loaded philosophy document.
func (c *Cache) Philosophies() ([]*Philosophy, error) {
	if err := c.ensureLoaded(DocPhilosophy); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Philosophy, 0, len(c.documents[DocPhilosophy]))
	for _, d := range c.documents[DocPhilosophy] {
		out = append(out, d.Philosophy)
	}
	return out, nil
}

// Structures returns every loaded structure document.
func (c *Cache) Structures() ([]*Structure, error) {
	if err := c.ensureLoaded(DocStructure); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Structure, 0, len(c.documents[DocStructure]))
	for _, d := range c.documents[DocStructure] {
		out = append(out, d.Structure)
	}
	return out, nil
}

// Templates returns every loaded template document.
func (c *Cache) Templates() ([]*Template, error) {
	if err := c.ensureLoaded(DocTemplate); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Template, 0, len(c.documents[DocTemplate]))
	for _, d := range c.documents[DocTemplate] {
		out = append(out, d.Template)
	}
	return out, nil
}
