package core

import "github.com/google/uuid"

// Conversation roles. History entries carry exactly one of these.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// FunctionCall describes a tool/function invocation request emitted by the
// model. Arguments is the raw JSON string exactly as the provider produced it;
// it is parsed and validated at the registry boundary, never passed raw into
// handlers.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Provider-assigned call id, correlates call and result
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

// isPart implements the Part interface for FunctionCallPart.
func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call. Error holds a
// string-convertible failure payload the model can react to; it is data, not
// a Go error.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`       // Matches originating FunctionCall ID
	Name     string `json:"name"`               // Function name
	Response string `json:"response,omitempty"` // Successful result payload
	Error    string `json:"error,omitempty"`    // Populated on failure
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

// isPart implements the Part interface for FunctionResponsePart.
func (FunctionResponsePart) isPart() {}

// Content holds role + ordered parts. A Content value is one message in a
// conversation history.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// NewSystemContent builds a system message.
func NewSystemContent(text string) Content {
	return Content{Role: RoleSystem, Parts: []Part{TextPart{Text: text}}}
}

// NewUserContent builds a user message.
func NewUserContent(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// NewAssistantContent builds an assistant text message.
func NewAssistantContent(text string) Content {
	return Content{Role: RoleAssistant, Parts: []Part{TextPart{Text: text}}}
}

// NewToolContent builds a tool-result message carrying a single response.
func NewToolContent(fr FunctionResponse) Content {
	return Content{Role: RoleTool, Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
}

// Text concatenates all text parts preserving order.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// FunctionCalls returns any FunctionCall parts contained within the content
// preserving their original order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// FunctionResponses returns any FunctionResponse parts contained within the
// content preserving their original order.
func (c Content) FunctionResponses() []FunctionResponse {
	var responses []FunctionResponse
	for _, p := range c.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}

// NewID generates a unique identifier for correlating calls and results.
func NewID() string { return uuid.NewString() }
