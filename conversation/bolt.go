package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("conversations")

// BoltStore is a durable Store backed by a single-file bbolt database. One
// bucket holds all records: key = conversation id, value = JSON record.
// bbolt serializes writers internally, so the store is safe for concurrent
// use; the last-save-wins semantics of the Store contract still apply.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database file at path and ensures the
// conversations bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error { return s.db.Close() }

// Load implements Store.
func (s *BoltStore) Load(id string) (*Conversation, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(boltBucket).Get([]byte(id)); v != nil {
			blob = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt view: %w", err)
	}
	if blob == nil {
		return nil, ErrNotFound
	}
	conv := New(id)
	if err := json.Unmarshal(blob, conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return conv, nil
}

// Save implements Store.
func (s *BoltStore) Save(conv *Conversation) error {
	blob, err := json.Marshal(conv.Clone())
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", conv.ID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(conv.ID), blob)
	})
	if err != nil {
		return fmt.Errorf("bolt put: %w", err)
	}
	return nil
}

// Reset implements Store.
func (s *BoltStore) Reset(id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("bolt delete: %w", err)
	}
	return nil
}
