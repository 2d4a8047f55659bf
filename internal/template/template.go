// Package template provides message template definitions and their static
// category classification.
package template

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a template key has no definition.
var ErrNotFound = errors.New("template: definition not found")

// Category determines which recipient opt-out flag, if any, can suppress a
// message rendered from a template.
type Category string

const (
	CategoryTransactional Category = "transactional"
	CategoryOperational   Category = "operational"
	CategoryMarketing     Category = "marketing"
)

// Definition describes a single message template. Definitions are authored
// externally and read-only to the dispatch engine.
type Definition struct {
	Key     string
	Enabled bool
	// Category comes from the static classification table, not from storage.
	Category Category
	Subject  string
	Body     string
	// LinkParams are tracking query parameters appended to outbound links
	// in the rendered body. Empty means no link tagging.
	LinkParams map[string]string
}

// Source resolves template definitions by key.
type Source interface {
	Get(ctx context.Context, key string) (*Definition, error)
}

// StaticSource is a Source backed by an in-memory map, typically populated
// from configuration at startup.
type StaticSource struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewStaticSource creates a StaticSource from the given definitions. The
// category of each definition is overwritten from the classification table
// so a stored category can never widen or narrow suppression rules.
func NewStaticSource(defs []Definition) *StaticSource {
	s := &StaticSource{defs: make(map[string]*Definition, len(defs))}
	for i := range defs {
		d := defs[i]
		d.Category = CategoryFor(d.Key)
		s.defs[d.Key] = &d
	}
	return s
}

// Get returns the definition for a template key, or ErrNotFound.
func (s *StaticSource) Get(_ context.Context, key string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// Put adds or replaces a definition. Intended for tests and bootstrap code.
func (s *StaticSource) Put(d Definition) {
	d.Category = CategoryFor(d.Key)
	s.mu.Lock()
	s.defs[d.Key] = &d
	s.mu.Unlock()
}
