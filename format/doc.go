// Package format maps a model's final structured answer into typed content
// blocks the caller can render.
//
// The model is asked (via a declared response schema) to answer with
//
//	{"content": [{"type": "text", ...}, {"type": "chartable", ...}, ...]}
//
// Parse decodes that document into the closed Block union. Decoding is
// deliberately forgiving: any malformed or unexpected payload degrades to a
// single TextBlock carrying the raw string, so a formatting problem never
// fails the turn.
package format
