// Package tool implements the function / tool calling subsystem that lets the
// engine invoke structured capabilities (APIs, queries, side-effects) with
// schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"
)

// Tool defines a named capability the model can request during a turn.
//
// Implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names
//     recommended)
//   - Define a proper JSON schema for parameters
//   - Return recoverable domain failures (bad SQL, missing record) inside the
//     result string so the model can self-correct, reserving the error return
//     for genuine defects
//   - Be safe for concurrent use; one model response may dispatch several
//     calls in parallel
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description shown to the model to
	// guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	// The schema dialect uses the type/properties/required/enum keys the
	// model providers expect.
	Parameters() map[string]any

	// Call executes the tool. Arguments have been parsed from the model's
	// raw JSON; schema validation happens inside Call so the failure can be
	// reported uniformly as a *ToolError.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// ToolError codes. Validation failures are recoverable (fed back to the
// model); execution failures are defects fatal to the turn.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

// ToolError represents errors raised while invoking a tool.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Recoverable reports whether the failure should be surfaced to the model as
// a tool-result payload rather than aborting the turn.
func (e *ToolError) Recoverable() bool { return e.Code == CodeValidation }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
