// Package model defines the provider-agnostic abstractions for issuing chat
// completions inside agentloop.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition)
//   - Carry an optional response schema for structured output
//   - Facilitate lightweight faking for tests (ScriptedModel)
//
// Providers (OpenAI, Anthropic, Gemini) implement the Model interface from
// this package so the engine remains decoupled from vendor SDKs.
package model
