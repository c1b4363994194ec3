package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object using the type/properties/required/enum
// keys shared by the supported providers.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input for one completion round.
type Request struct {
	Contents       []core.Content   `json:"contents"`                  // Full conversation history, oldest first
	Tools          []ToolDefinition `json:"tools,omitempty"`           // Tool catalog for this round
	ResponseSchema map[string]any   `json:"response_schema,omitempty"` // Declared structured-output schema, nil for free text
	Stream         bool             `json:"stream,omitempty"`          // Request incremental delivery when supported
}

// Response is a (partial or final) chunk emitted by a model. Partial chunks
// carry text deltas or growing tool-call fragments; exactly one non-partial
// chunk terminates each Generate call on the success path.
type Response struct {
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason,omitempty"` // "stop", "tool_calls", "length", ...
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "gemini", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the engine needs to drive generation. Both
// delivery modes flow through the same channel pair: buffered providers emit
// a single final Response, streaming providers interleave partials first. The
// channels are closed when the round completes; at most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptStep is one pre-programmed completion round for a ScriptedModel.
type ScriptStep struct {
	Content    core.Content // Final content for the round
	Err        error        // When set, the round fails instead
	StreamText bool         // Emit per-rune text partials before the final chunk
}

// ScriptedModel is an in-memory Model that replays a fixed sequence of
// rounds. It records every request it receives so tests can assert on the
// history the engine sent. Safe for concurrent use.
type ScriptedModel struct {
	mu       sync.Mutex
	steps    []ScriptStep
	requests []Request
}

// NewScriptedModel constructs a ScriptedModel replaying the given steps in
// order.
func NewScriptedModel(steps ...ScriptStep) *ScriptedModel {
	return &ScriptedModel{steps: steps}
}

// TextStep is a convenience ScriptStep producing a plain assistant answer.
func TextStep(text string) ScriptStep {
	return ScriptStep{Content: core.NewAssistantContent(text)}
}

// ToolCallStep is a convenience ScriptStep producing an assistant response
// requesting the given tool calls.
func ToolCallStep(calls ...core.FunctionCall) ScriptStep {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	return ScriptStep{Content: core.Content{Role: core.RoleAssistant, Parts: parts}}
}

// Requests returns a copy of all requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model; replays the next scripted step.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var step ScriptStep
	exhausted := len(m.steps) == 0
	if !exhausted {
		step = m.steps[0]
		m.steps = m.steps[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if exhausted {
			errCh <- fmt.Errorf("scripted model: no steps left")
			return
		}
		if step.Err != nil {
			errCh <- step.Err
			return
		}

		if req.Stream && step.StreamText {
			for _, r := range step.Content.Text() {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.Content{
						Role:  core.RoleAssistant,
						Parts: []core.Part{core.TextPart{Text: string(r)}},
					},
				}:
				}
			}
		}

		finishReason := "stop"
		if len(step.Content.FunctionCalls()) > 0 {
			finishReason = "tool_calls"
		}
		respCh <- Response{Partial: false, Content: step.Content, FinishReason: finishReason}
	}()

	return respCh, errCh
}

// Info implements the Model interface.
func (m *ScriptedModel) Info() Info {
	return Info{Name: "scripted", Provider: "test", SupportsTools: true}
}
