// Package engine drives the tool-calling conversation loop.
//
// One Turn handles a single inbound user message: the engine loads (or seeds)
// the conversation, then alternates model rounds and tool execution until the
// model answers without tool calls or the round bound is reached. History is
// persisted after every round so a failure mid-turn never loses completed
// rounds.
//
// Delivery is buffered by default: the final answer is decoded into
// format.Block values. With streaming delivery the final answer's text is
// forwarded token by token to a caller-supplied sink instead, unless the turn
// involves tool calls or structured output, in which case the engine falls
// back to buffered blocks. A turn's text is delivered exactly one way, never
// both.
package engine
