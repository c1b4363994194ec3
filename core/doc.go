// Package core provides the foundational conversational types shared by all
// agentloop packages. It defines the core abstractions for:
//
//   - Content (one role-attributed message in a conversation history)
//   - Part (a closed tagged union of message segments: text, function call,
//     function response)
//   - FunctionCall / FunctionResponse (tool invocation request & outcome)
//
// Content values round-trip through JSON with a "type" discriminator per part
// so complete histories can be serialized into any byte-oriented store. The
// package intentionally keeps implementation concerns (persistence, the turn
// loop, concrete providers) out of scope so every other package can depend on
// it without cycles.
package core
