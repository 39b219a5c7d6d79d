package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/model"
	"github.com/viktorbezdek/sw4rm/retry"
	"github.com/viktorbezdek/sw4rm/tool"
)

// fastRetryConfig keeps test runs quick while preserving attempt counts.
func fastRetryConfig(maxRetries int) retry.Config {
	return retry.Config{MaxRetries: maxRetries, InitialDelay: time.Microsecond, MaxDelay: time.Millisecond}
}

func TestCoerceResult(t *testing.T) {
	value, target, delta, err := coerceResult("plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", value)
	assert.Nil(t, target)
	assert.Nil(t, delta)

	agent := core.NewAgent("B", "test-model", "You are B.")
	value, target, delta, err = coerceResult(agent)
	require.NoError(t, err)
	assert.JSONEq(t, `{"assistant":"B"}`, value)
	assert.Same(t, agent, target)
	assert.Nil(t, delta)

	value, target, delta, err = coerceResult(&tool.Result{
		Value:            "done",
		Agent:            agent,
		ContextVariables: core.ContextVariables{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", value)
	assert.Same(t, agent, target)
	assert.Equal(t, core.ContextVariables{"k": "v"}, delta)

	value, _, _, err = coerceResult([]int{1, 2, 3})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3]`, value)

	value, _, _, err = coerceResult(nil)
	require.NoError(t, err)
	assert.Empty(t, value)

	_, _, _, err = coerceResult(make(chan int))
	assert.Error(t, err)
}

func TestHandleToolCalls_OrderPreserved(t *testing.T) {
	first := tool.NewFunctionTool("first", "First tool", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return "one", nil
	})
	second := tool.NewFunctionTool("second", "Second tool", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return "two", nil
	})

	eng := New(model.NewMockProvider())
	acc, err := eng.handleToolCalls(context.Background(), []core.ToolCall{
		functionCall("c1", "first", "{}"),
		functionCall("c2", "second", "{}"),
	}, newTestAgent("A", first, second), nil)
	require.NoError(t, err)

	require.Len(t, acc.Messages, 2)
	assert.Equal(t, "one", acc.Messages[0].Content)
	assert.Equal(t, "c1", acc.Messages[0].ToolCallID)
	assert.Equal(t, "two", acc.Messages[1].Content)
	assert.Equal(t, "c2", acc.Messages[1].ToolCallID)
}

func TestHandleToolCalls_SnapshotInjected(t *testing.T) {
	// The injected mapping is the entry snapshot, not the accumulator: a
	// delta merged by an earlier call is not visible to a later one.
	writer := tool.NewFunctionTool("writer", "Writes a variable", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return &tool.Result{Value: "wrote", ContextVariables: core.ContextVariables{"written": true}}, nil
	})
	var sawWritten bool
	reader := tool.NewFunctionTool("reader", "Reads variables", nil, func(_ context.Context, args map[string]any) (any, error) {
		cv := args[tool.ContextVariablesKey].(core.ContextVariables)
		_, sawWritten = cv["written"]
		return "read", nil
	}).WithContextVariables()

	eng := New(model.NewMockProvider())
	acc, err := eng.handleToolCalls(context.Background(), []core.ToolCall{
		functionCall("c1", "writer", "{}"),
		functionCall("c2", "reader", "{}"),
	}, newTestAgent("A", writer, reader), core.ContextVariables{"seed": 1})
	require.NoError(t, err)

	assert.False(t, sawWritten)
	assert.Equal(t, true, acc.ContextVariables["written"])
	assert.Equal(t, 1, acc.ContextVariables["seed"])
}

func TestHandleToolCalls_FreshAccumulator(t *testing.T) {
	eng := New(model.NewMockProvider())
	input := core.ContextVariables{"k": "v"}
	acc, err := eng.handleToolCalls(context.Background(), nil, newTestAgent("A"), input)
	require.NoError(t, err)

	assert.Empty(t, acc.Messages)
	assert.Nil(t, acc.Agent)
	assert.Equal(t, input, acc.ContextVariables)

	acc.ContextVariables["k"] = "mutated"
	assert.Equal(t, "v", input["k"])
}
