// Package tool implements the function / tool calling subsystem that lets
// agents invoke structured capabilities (APIs, computations, side effects)
// with optionally schema validated arguments and consistent error handling.
package tool

import "github.com/viktorbezdek/sw4rm/core"

// ContextVariablesKey is the reserved argument name under which the current
// context-variable mapping is injected for tools that declare they consume it.
const ContextVariablesKey = "context_variables"

// Result is the structured return value a tool may use to influence the run
// beyond its textual output: updating context variables or handing the
// conversation off to another agent.
//
// Tools are not required to return a *Result; plain strings, a *core.Agent
// (shorthand for a bare handoff) and arbitrary JSON-serializable values are
// accepted by the dispatcher as well.
type Result struct {
	// Value is the textual payload wrapped into the tool-role message.
	Value string `json:"value"`
	// Agent, when non-nil, requests a handoff to that agent for subsequent turns.
	Agent *core.Agent `json:"agent,omitempty"`
	// ContextVariables is a delta shallow-merged into the run's mapping.
	ContextVariables core.ContextVariables `json:"context_variables,omitempty"`
}
