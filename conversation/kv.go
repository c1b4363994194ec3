package conversation

import (
	"encoding/json"
	"fmt"
)

// KeyValue is the narrow persistence contract of the surrounding deployment:
// string key to serialized blob. Any cache, database table or object store
// exposing get/set/delete can back a KVStore.
type KeyValue interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// KVStore persists conversations as JSON blobs in a KeyValue backend. The
// whole history is serialized and replaced atomically on every Save.
type KVStore struct {
	kv     KeyValue
	prefix string
}

// KVStoreOptions configure a KVStore.
type KVStoreOptions struct {
	// Prefix is prepended to conversation ids to namespace keys within a
	// shared backend.
	Prefix string
}

// NewKVStore wraps a KeyValue backend in the Store contract.
func NewKVStore(kv KeyValue, optFns ...func(o *KVStoreOptions)) *KVStore {
	opts := KVStoreOptions{Prefix: "conversation:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &KVStore{kv: kv, prefix: opts.Prefix}
}

// Load implements Store.
func (s *KVStore) Load(id string) (*Conversation, error) {
	blob, ok, err := s.kv.Get(s.prefix + id)
	if err != nil {
		return nil, fmt.Errorf("kv get: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	conv := New(id)
	if err := json.Unmarshal(blob, conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return conv, nil
}

// Save implements Store.
func (s *KVStore) Save(conv *Conversation) error {
	blob, err := json.Marshal(conv.Clone())
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", conv.ID, err)
	}
	if err := s.kv.Set(s.prefix+conv.ID, blob); err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return nil
}

// Reset implements Store.
func (s *KVStore) Reset(id string) error {
	if err := s.kv.Delete(s.prefix + id); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

// MapKeyValue is a minimal in-process KeyValue useful for tests and as a
// reference for backend implementers. Not safe for concurrent use; wrap with
// your own locking if shared.
type MapKeyValue map[string][]byte

// Get implements KeyValue.
func (m MapKeyValue) Get(key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

// Set implements KeyValue.
func (m MapKeyValue) Set(key string, value []byte) error {
	m[key] = value
	return nil
}

// Delete implements KeyValue.
func (m MapKeyValue) Delete(key string) error {
	delete(m, key)
	return nil
}
