package conversation

import (
	"sync"
	"time"

	"github.com/hupe1980/agentloop/core"
)

// Conversation tracks the ordered message history of one end-user thread plus
// a free-form metadata bag used by the surrounding transport for routing
// outbound replies (bot id, service URL, group flag, ...). The engine never
// interprets Metadata. It is safe for concurrent access.
//
// Contract:
//   - History is append-only within a turn; entries are never rewritten
//   - Mutations update the Updated timestamp
//   - Messages returns a defensive copy to avoid external mutation
//   - Clone performs deep copies for safe divergence
type Conversation struct {
	ID       string            `json:"id"`
	History  []core.Content    `json:"history"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	mu       sync.RWMutex
}

// New creates an empty conversation with the given id.
func New(id string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:       id,
		History:  []core.Content{},
		Metadata: map[string]string{},
		Created:  now,
		Updated:  now,
	}
}

// Append adds a message to the history updating the Updated timestamp.
func (c *Conversation) Append(msg core.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.History = append(c.History, msg)
	c.Updated = time.Now().UTC()
}

// Messages returns a defensive copy of the full history.
func (c *Conversation) Messages() []core.Content {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Content, len(c.History))
	copy(out, c.History)
	return out
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.History)
}

// SetMetadata stores a routing key/value pair on the record.
func (c *Conversation) SetMetadata(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	c.Metadata[key] = value
	c.Updated = time.Now().UTC()
}

// GetMetadata returns the value and existence flag for a metadata key.
func (c *Conversation) GetMetadata(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.Metadata[key]
	return v, ok
}

// Clone returns a deep copy of the conversation safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{
		ID:       c.ID,
		History:  make([]core.Content, len(c.History)),
		Metadata: make(map[string]string, len(c.Metadata)),
		Created:  c.Created,
		Updated:  c.Updated,
	}
	copy(clone.History, c.History)
	for k, v := range c.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}
