package core

import (
	"context"

	"github.com/viktorbezdek/sw4rm/internal/util"
)

// ContextVariables is a caller-supplied mapping threaded through tool
// invocations and updatable by tools via returned deltas. The engine never
// aliases a caller's mapping; runs operate on shallow copies.
type ContextVariables map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map
// so callers can always write to the result.
func (cv ContextVariables) Clone() ContextVariables {
	out := make(ContextVariables, len(cv))
	for k, v := range cv {
		out[k] = v
	}
	return out
}

// Merge shallow-merges delta into the receiver, overwriting existing keys.
func (cv ContextVariables) Merge(delta ContextVariables) {
	for k, v := range delta {
		cv[k] = v
	}
}

// InstructionsFunc produces instruction text dynamically from the current
// context variables. Implementations should be pure; they are re-invoked on
// every completion request so a handoff target always speaks with fresh
// instructions.
type InstructionsFunc func(cv ContextVariables) (string, error)

// Instructions represents either a static instruction string or a dynamic
// producer. Static text may contain Go template markers which are rendered
// against the current context variables.
type Instructions struct {
	text string
	fn   InstructionsFunc
}

// NewInstructions creates Instructions from a static string.
func NewInstructions(text string) Instructions { return Instructions{text: text} }

// NewInstructionsFromFunc creates Instructions from a dynamic producer.
func NewInstructionsFromFunc(fn InstructionsFunc) Instructions { return Instructions{fn: fn} }

// IsStatic returns true if the instructions are backed by a static string.
func (i Instructions) IsStatic() bool { return i.fn == nil }

// Resolve returns the instruction text, invoking the producer if dynamic or
// rendering template markers against cv if static.
func (i Instructions) Resolve(cv ContextVariables) (string, error) {
	if i.fn != nil {
		return i.fn(cv)
	}
	return util.RenderTemplate(i.text, cv)
}

// Tool is the minimal interface implemented by callable capabilities
// registered on an agent. Implementations live outside core (see the tool
// package for the standard function adapter).
type Tool interface {
	// Name returns the unique identifier used for dispatch and in the
	// completion request's tool manifest.
	Name() string

	// Description returns a human-readable description exposed to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments, or
	// nil when the tool performs no local validation.
	Parameters() map[string]any

	// TakesContextVariables reports whether the tool consumes the reserved
	// context-variable argument. Declared explicitly rather than inferred.
	TakesContextVariables() bool

	// Call executes the tool with already-parsed arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Agent is an immutable descriptor of a conversational agent: its model,
// instructions, registered tools and tool-calling policy. The engine only
// references descriptors, never copies or mutates them; a handoff swaps
// which descriptor is active.
type Agent struct {
	// Name identifies the agent in messages, logs and handoffs.
	Name string
	// Model is the provider-side model identifier used for completions.
	Model string
	// Instructions become the system message on every completion request.
	Instructions Instructions
	// Tools is the ordered set of callables the model may request.
	Tools []Tool
	// ToolChoice is the provider tool-choice policy token ("" for default).
	ToolChoice string
	// ParallelToolCalls is forwarded to the provider; dispatch itself is
	// always sequential and in request order.
	ParallelToolCalls bool
}

// NewAgent constructs an Agent with the defaults the engine expects:
// parallel tool calls enabled and no explicit tool choice.
func NewAgent(name, model, instructions string) *Agent {
	return &Agent{
		Name:              name,
		Model:             model,
		Instructions:      NewInstructions(instructions),
		ParallelToolCalls: true,
	}
}

// FindTool returns the registered tool with the exact name, or nil.
func (a *Agent) FindTool(name string) Tool {
	for _, t := range a.Tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}
