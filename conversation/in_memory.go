package conversation

import "sync"

// InMemoryStore is a volatile Store implementation keeping records in a
// process-local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo bots. Records are cloned on the way in and out to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Conversation
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Conversation)}
}

// Load implements Store.
func (s *InMemoryStore) Load(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv.Clone(), nil
}

// Save implements Store. The stored snapshot is a clone; later mutations of
// the argument do not leak into the store.
func (s *InMemoryStore) Save(conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[conv.ID] = conv.Clone()
	return nil
}

// Reset implements Store.
func (s *InMemoryStore) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
