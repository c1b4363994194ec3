package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/agentloop/internal/util"
)

// FunctionTool adapts a plain Go function into a Tool.
//
// Responsibilities:
//   - Holds a JSON-Schema parameter specification
//   - Validates model supplied arguments against that schema before execution
//   - Normalizes failures into *ToolError with consistent codes:
//     VALIDATION_ERROR -> schema / argument mismatch (recoverable)
//     EXECUTION_ERROR  -> underlying function returned an error (fatal)
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and
// function.
//
// Example:
//
//	queryTool := NewFunctionTool(
//	  "query_database",
//	  "Run a read-only SQL query against the sales database",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "sql": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"sql"},
//	  },
//	  func(ctx context.Context, args map[string]any) (string, error) {
//	    sql := args["sql"].(string)
//	    return runQuery(ctx, sql)
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (string, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name returns the unique tool name used in function call declarations.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates the provided args against the declared schema then invokes
// the underlying function.
//
// Error semantics:
//
//	*ToolError (returned directly) -> forwarded unchanged
//	validation failure             -> *ToolError{Code: VALIDATION_ERROR}
//	other error                    -> *ToolError{Code: EXECUTION_ERROR}
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (string, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return "", &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return "", toolErr
		}
		return "", &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}
	return result, nil
}

// TypedTool adapts a function taking a typed argument struct into a Tool.
// The parameter schema is derived from the struct by reflection (json,
// description and enum tags) and incoming argument maps are decoded into the
// struct with mapstructure before the function runs.
type TypedTool[Args any] struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args Args) (string, error)
}

// NewTypedTool constructs a TypedTool for the given argument struct type.
//
// Example:
//
//	type queryArgs struct {
//	  SQL string `json:"sql" description:"The SELECT statement to run"`
//	}
//
//	queryTool := NewTypedTool("query_database",
//	  "Run a read-only SQL query against the sales database",
//	  func(ctx context.Context, args queryArgs) (string, error) {
//	    return runQuery(ctx, args.SQL)
//	  },
//	)
func NewTypedTool[Args any](
	name, description string,
	fn func(ctx context.Context, args Args) (string, error),
) *TypedTool[Args] {
	var zero Args
	return &TypedTool[Args]{
		name:        name,
		description: description,
		parameters:  util.CreateSchema(zero),
		fn:          fn,
	}
}

// Name returns the unique tool name.
func (t *TypedTool[Args]) Name() string { return t.name }

// Description returns the natural language description exposed to models.
func (t *TypedTool[Args]) Description() string { return t.description }

// Parameters returns the derived JSON schema.
func (t *TypedTool[Args]) Parameters() map[string]any { return t.parameters }

// Call validates, decodes into the typed argument struct and executes.
func (t *TypedTool[Args]) Call(ctx context.Context, args map[string]any) (string, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return "", &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
		}
	}

	var typed Args
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &typed,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return "", &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}
	if err := decoder.Decode(args); err != nil {
		return "", &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("invalid arguments: %v", err),
			Code:    CodeValidation,
		}
	}

	result, err := t.fn(ctx, typed)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return "", toolErr
		}
		return "", &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}
	return result, nil
}

// ParseArguments decodes the raw JSON argument payload a model produced into
// the generic map handed to Tool.Call. An empty payload decodes to an empty
// map.
func ParseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return args, nil
}
