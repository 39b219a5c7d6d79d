package tool

import (
	"context"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/internal/util"
)

// Func is the signature of a wrapped tool implementation. Arguments arrive
// already parsed from the call's JSON payload; if the tool declared that it
// consumes context variables, the current mapping is present under
// ContextVariablesKey.
type Func func(ctx context.Context, args map[string]any) (any, error)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// sw4rm tool.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification (optional)
//   - Validates supplied arguments against that schema before execution
//   - Declares explicitly whether the wrapped function consumes the reserved
//     context-variable argument (never inferred from the function itself)
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
//
// Returned result:
//
//	The returned value may be a string (used verbatim), a *core.Agent (bare
//	handoff), a *Result (value + handoff + context-variable delta) or any
//	JSON-serializable value (encoded by the dispatcher).
type FunctionTool struct {
	// Tool identifier (snake_case recommended)
	name string
	// Human-readable description shown to models
	description string
	// Optional JSON schema describing accepted arguments
	parameters map[string]any
	// Whether the reserved context-variable argument is injected
	takesContextVariables bool
	// User supplied implementation
	fn Func
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and function.
//
// Arguments:
//
//	name        - unique tool name (avoid collisions; snake_case suggested)
//	description - concise, imperative description ("Calculate the …")
//	parameters  - minimal JSON-Schema-like map, or nil to skip validation
//	fn          - implementation receiving a context plus parsed args
//
// Example:
//
//	sumTool := NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection. It is a convenience for simple argument containers.
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
//
//	sumTool := NewFunctionToolFromStruct("calculate_sum", "Calculate the sum of two numbers", SumArgs{}, fn)
func NewFunctionToolFromStruct(name, description string, structType any, fn Func) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// WithContextVariables declares that the wrapped function consumes the
// reserved context-variable argument. Returns the receiver for chaining.
func (t *FunctionTool) WithContextVariables() *FunctionTool {
	t.takesContextVariables = true
	return t
}

// Name returns the unique tool name used in the manifest and for dispatch.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the (minimal) JSON schema describing expected arguments, or nil.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// TakesContextVariables reports whether the reserved context-variable
// argument is injected before invocation.
func (t *FunctionTool) TakesContextVariables() bool { return t.takesContextVariables }

// Call validates the provided args against the declared schema (when one was
// supplied) then invokes the underlying function. A schema mismatch is
// returned as a validation-tagged error with the underlying detail as cause.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if t.parameters != nil {
		if err := util.ValidateParameters(args, t.parameters); err != nil {
			return nil, core.WrapError(core.TagValidation, err, "tool %s: argument validation failed", t.name)
		}
	}
	return t.fn(ctx, args)
}
