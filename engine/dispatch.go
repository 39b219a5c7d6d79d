package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/tool"
)

// handleToolCalls executes the model's requested tool calls, in order,
// against the agent's registered tools. It returns a fresh accumulator whose
// context variables start as a copy of the input mapping; tools that declare
// the reserved slot receive the entry snapshot, deltas returned by tools are
// merged into the accumulator, and a handoff target is recorded for the
// caller to adopt.
//
// An unregistered tool name is recoverable: the run continues with an
// injected error message so the model can adapt. Malformed arguments and
// tool body failures (including panics) are fatal.
func (e *Engine) handleToolCalls(
	ctx context.Context,
	calls []core.ToolCall,
	agent *core.Agent,
	contextVariables core.ContextVariables,
) (*core.Response, error) {
	snapshot := contextVariables.Clone()
	acc := &core.Response{
		Messages:         []core.Message{},
		ContextVariables: contextVariables.Clone(),
	}

	for _, call := range calls {
		name := call.Function.Name

		t := agent.FindTool(name)
		if t == nil {
			e.logger.Warn("engine.tool.missing", "agent", agent.Name, "tool", name)
			acc.Messages = append(acc.Messages, core.NewToolMessage(call.ID, name, fmt.Sprintf("Error: Tool %s not found.", name)))
			continue
		}

		args, err := tool.ParseArguments(call.Function.Arguments)
		if err != nil {
			e.logger.Error("engine.tool.bad_arguments", "agent", agent.Name, "tool", name, "error", err.Error())
			return nil, err
		}

		if t.TakesContextVariables() {
			args[tool.ContextVariablesKey] = snapshot
		}

		start := time.Now()
		result, err := safeCall(ctx, t, args)
		e.logger.Info("engine.tool.executed", "agent", agent.Name, "tool", name, "tool_call_id", call.ID, "duration_ms", time.Since(start).Milliseconds(), "error", err != nil)
		if err != nil {
			var tagged *core.Error
			if errors.As(err, &tagged) {
				return nil, tagged
			}
			return nil, core.WrapError(core.TagToolExecution, err, "tool %s failed", name)
		}

		value, target, delta, err := coerceResult(result)
		if err != nil {
			return nil, core.WrapError(core.TagToolExecution, err, "tool %s returned an unencodable result", name)
		}

		acc.Messages = append(acc.Messages, core.NewToolMessage(call.ID, name, value))
		if delta != nil {
			acc.ContextVariables.Merge(delta)
		}
		if target != nil {
			acc.Agent = target
		}
	}

	return acc, nil
}

// safeCall invokes the tool body, converting a panic into an error so it can
// be classified like any other tool failure.
func safeCall(ctx context.Context, t core.Tool, args map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return t.Call(ctx, args)
}

// coerceResult normalizes a tool's return value into the textual payload for
// the tool-role message plus any handoff target and context-variable delta.
// Strings pass through; a bare *core.Agent is a handoff; non-text values are
// JSON-encoded.
func coerceResult(result any) (string, *core.Agent, core.ContextVariables, error) {
	switch r := result.(type) {
	case nil:
		return "", nil, nil, nil
	case string:
		return r, nil, nil, nil
	case *core.Agent:
		payload, err := json.Marshal(map[string]string{"assistant": r.Name})
		if err != nil {
			return "", nil, nil, err
		}
		return string(payload), r, nil, nil
	case *tool.Result:
		return r.Value, r.Agent, r.ContextVariables, nil
	case tool.Result:
		return r.Value, r.Agent, r.ContextVariables, nil
	default:
		payload, err := json.Marshal(r)
		if err != nil {
			return "", nil, nil, err
		}
		return string(payload), nil, nil, nil
	}
}
