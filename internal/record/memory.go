package record

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and single-process
// deployments. All operations are guarded by a single mutex, which makes the
// check-then-insert in Create atomic.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[string]*Message
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string]*Message)}
}

func (s *MemoryStore) Create(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.Template == msg.Template &&
			m.Recipient == msg.Recipient &&
			m.ContextFingerprint == msg.ContextFingerprint &&
			(m.Status == StatusQueued || m.Status == StatusSent) {
			return ErrDuplicate
		}
	}

	s.messages[msg.ID] = cloneMessage(msg)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMessage(m), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) FindActive(_ context.Context, template, recipient, fingerprint string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.Template == template &&
			m.Recipient == recipient &&
			m.ContextFingerprint == fingerprint &&
			(m.Status == StatusQueued || m.Status == StatusSent) {
			return cloneMessage(m), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) MarkSent(_ context.Context, id, providerName, providerMessageID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	if m.Status != StatusQueued {
		return ErrTerminal
	}

	m.Status = StatusSent
	m.Attempts++
	m.SentAt = sentAt
	m.ProviderName = providerName
	m.ProviderMessageID = providerMessageID
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id string, countAttempt bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	if m.Status != StatusQueued {
		return ErrTerminal
	}

	m.Status = StatusFailed
	if countAttempt {
		m.Attempts++
	}
	return nil
}

func (s *MemoryStore) MarkSuppressed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	if m.Status != StatusQueued {
		return ErrTerminal
	}

	m.Status = StatusSuppressed
	return nil
}

func (s *MemoryStore) ListByRecipient(_ context.Context, recipient string, limit int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Message
	for _, m := range s.messages {
		if m.Recipient == recipient {
			out = append(out, cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneMessage(m *Message) *Message {
	cp := *m
	if m.Context != nil {
		cp.Context = make(map[string]any, len(m.Context))
		for k, v := range m.Context {
			cp.Context[k] = v
		}
	}
	return &cp
}
