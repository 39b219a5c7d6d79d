package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/viktorbezdek/sw4rm/core"
)

// NewHandoffTool builds a tool that hands the conversation off to target.
// The tool takes no arguments; invoking it makes target the active agent for
// subsequent turns.
func NewHandoffTool(target *core.Agent) *FunctionTool {
	name := "transfer_to_" + sanitizeName(target.Name)
	description := fmt.Sprintf("Transfer the conversation to %s. Use when that agent is better suited to continue.", target.Name)
	return NewFunctionTool(name, description, nil, func(_ context.Context, _ map[string]any) (any, error) {
		return target, nil
	})
}

// sanitizeName lowercases and underscores an agent name into a function-safe token.
func sanitizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
