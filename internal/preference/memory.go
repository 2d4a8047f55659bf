package preference

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]*Preference
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]*Preference)}
}

func prefKey(recipientType, recipient string) string {
	return recipientType + "\x00" + recipient
}

func (s *MemoryStore) Get(_ context.Context, recipientType, recipient string) (*Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[prefKey(recipientType, recipient)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Set(_ context.Context, pref *Preference) error {
	cp := *pref
	s.mu.Lock()
	s.prefs[prefKey(pref.RecipientType, pref.Recipient)] = &cp
	s.mu.Unlock()
	return nil
}
