package conversation

import "errors"

// ErrNotFound is reported by Load when no record exists for a conversation
// id. The caller is responsible for seeding a new history; stores never
// fabricate content.
var ErrNotFound = errors.New("conversation not found")

// Store persists conversation records keyed by conversation id.
//
// Load and Save form the critical section of a turn: the engine loads a
// snapshot, mutates it, and saves the whole history back. Concurrent turns
// against the same id may lose updates (last save wins); stores are not
// required to provide locking across that window.
type Store interface {
	// Load returns the record for id, or ErrNotFound when none exists.
	Load(id string) (*Conversation, error)

	// Save persists the full record, replacing any previous snapshot.
	Save(conv *Conversation) error

	// Reset removes the record for id. Resetting an unknown id is a no-op.
	Reset(id string) error
}
