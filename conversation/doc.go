// Package conversation houses the per-conversation history record and the
// Store implementations that persist it. The Store contract is deliberately
// narrow (Load / Save / Reset keyed by conversation id) so any key-value
// backend can serve it: the built-in implementations cover a process-local
// map (tests, demos), a generic byte-oriented KeyValue collaborator, and a
// durable single-file bbolt database.
//
// A Store never fabricates content: Load reports ErrNotFound on a miss and
// the caller (normally engine.Engine) seeds the new history with a system
// message. Save replaces the whole serialized history atomically; concurrent
// turns against the same conversation id follow last-save-wins semantics.
package conversation
