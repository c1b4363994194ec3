package engine

import "fmt"

// ToolNotFoundError is reported when the model requests a tool that is not
// registered. The attempted call is persisted before the turn fails so the
// defect is visible in history.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("model requested unknown tool %q", e.Name)
}

// ToolExecutionError is reported when a tool handler returns a non-validation
// error or panics. Handlers are expected to return recoverable domain
// failures as data, so this is treated as a programming defect fatal to the
// turn.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ProviderError wraps a model provider failure (timeout, malformed response,
// transport error). The engine does not retry; retry policy belongs to the
// caller.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("model provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MaxRoundsExceededError is reported when a turn reaches the configured round
// bound without the model producing a final answer.
type MaxRoundsExceededError struct {
	Rounds int
}

func (e *MaxRoundsExceededError) Error() string {
	return fmt.Sprintf("turn exceeded the maximum of %d completion rounds", e.Rounds)
}
