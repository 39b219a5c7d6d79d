package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/model"
	"github.com/viktorbezdek/sw4rm/tool"
)

func newTestAgent(name string, tools ...core.Tool) *core.Agent {
	agent := core.NewAgent(name, "test-model", "You are "+name+".")
	agent.Tools = tools
	return agent
}

func assistantMessage(content string, calls ...core.ToolCall) core.Message {
	return core.Message{Role: core.RoleAssistant, Content: content, ToolCalls: calls}
}

func functionCall(id, name, args string) core.ToolCall {
	return core.ToolCall{ID: id, Type: "function", Function: core.ToolCallFunction{Name: name, Arguments: args}}
}

func TestRun_SingleTurnWithoutToolCalls(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("hello"))

	eng := New(provider)
	agent := newTestAgent("A")

	resp, err := eng.Run(context.Background(), agent, []core.Message{core.NewUserMessage("hi")}, nil, WithMaxTurns(1))
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, core.RoleAssistant, resp.Messages[0].Role)
	assert.Equal(t, "hello", resp.Messages[0].Content)
	assert.Equal(t, "A", resp.Messages[0].Sender)
	assert.Same(t, agent, resp.Agent)
}

func TestRun_NoAgent(t *testing.T) {
	eng := New(model.NewMockProvider())
	_, err := eng.Run(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, core.TagValidation, core.TagOf(err))
}

func TestRun_SystemMessageFromInstructions(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("ok"))

	eng := New(provider)
	agent := core.NewAgent("helper", "test-model", "Address {{.name}} politely.")

	_, err := eng.Run(context.Background(), agent, nil, core.ContextVariables{"name": "James"})
	require.NoError(t, err)

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	require.NotEmpty(t, reqs[0].Messages)
	assert.Equal(t, core.RoleSystem, reqs[0].Messages[0].Role)
	assert.Equal(t, "Address James politely.", reqs[0].Messages[0].Content)
	assert.Equal(t, "test-model", reqs[0].Model)
}

func TestRun_ToolManifestCarriesBareNames(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("done"))

	lookup := tool.NewFunctionTool("lookup", "Look things up", map[string]any{"type": "object"}, func(_ context.Context, _ map[string]any) (any, error) {
		return "found", nil
	})
	agent := newTestAgent("A", lookup)
	agent.ToolChoice = "auto"

	eng := New(provider)
	_, err := eng.Run(context.Background(), agent, nil, nil)
	require.NoError(t, err)

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "function", reqs[0].Tools[0].Type)
	assert.Equal(t, "lookup", reqs[0].Tools[0].Function.Name)
	// Parameter schemas are not published to the provider.
	assert.Nil(t, reqs[0].Tools[0].Function.Parameters)
	assert.Equal(t, "auto", reqs[0].ToolChoice)
	assert.True(t, reqs[0].ParallelToolCalls)
}

func TestRun_ToolCallThenFinalAnswer(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "get_weather", `{"city":"Oslo"}`)))
	provider.QueueCompletion(assistantMessage("It is sunny in Oslo."))

	weather := tool.NewFunctionTool("get_weather", "Get the weather", nil, func(_ context.Context, args map[string]any) (any, error) {
		return "sunny in " + args["city"].(string), nil
	})

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A", weather), []core.Message{core.NewUserMessage("weather in Oslo?")}, nil)
	require.NoError(t, err)

	require.Len(t, resp.Messages, 3)
	assert.Equal(t, core.RoleAssistant, resp.Messages[0].Role)
	assert.Equal(t, core.RoleTool, resp.Messages[1].Role)
	assert.Equal(t, "call_1", resp.Messages[1].ToolCallID)
	assert.Equal(t, "get_weather", resp.Messages[1].ToolName)
	assert.Equal(t, "sunny in Oslo", resp.Messages[1].Content)
	assert.Equal(t, "It is sunny in Oslo.", resp.Messages[2].Content)
}

func TestRun_UnknownToolIsRecoverable(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "nonexistent", "{}")))
	provider.QueueCompletion(assistantMessage("adapted"))

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A"), nil, nil)
	require.NoError(t, err)

	require.Len(t, resp.Messages, 3)
	assert.Equal(t, core.RoleTool, resp.Messages[1].Role)
	assert.Equal(t, "Error: Tool nonexistent not found.", resp.Messages[1].Content)
	assert.Equal(t, "adapted", resp.Messages[2].Content)
}

func TestRun_MalformedArgumentsAreFatal(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "lookup", "not json")))

	lookup := tool.NewFunctionTool("lookup", "Look things up", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return "found", nil
	})

	eng := New(provider)
	_, err := eng.Run(context.Background(), newTestAgent("A", lookup), nil, nil)
	require.Error(t, err)
	assert.Equal(t, core.TagValidation, core.TagOf(err))
	assert.Contains(t, err.Error(), "not json")
}

func TestRun_ToolFailureIsFatal(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "broken", "{}")))

	broken := tool.NewFunctionTool("broken", "Always fails", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	eng := New(provider)
	_, err := eng.Run(context.Background(), newTestAgent("A", broken), nil, nil)
	require.Error(t, err)
	assert.Equal(t, core.TagToolExecution, core.TagOf(err))
	// No further turns execute.
	assert.Len(t, provider.Requests(), 1)
}

func TestRun_ToolPanicIsFatal(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "panicky", "{}")))

	panicky := tool.NewFunctionTool("panicky", "Panics", nil, func(_ context.Context, _ map[string]any) (any, error) {
		panic("unexpected")
	})

	eng := New(provider)
	_, err := eng.Run(context.Background(), newTestAgent("A", panicky), nil, nil)
	require.Error(t, err)
	assert.Equal(t, core.TagToolExecution, core.TagOf(err))
}

func TestRun_CompletionFailureAbortsRun(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueError(errors.New("upstream down"))
	provider.QueueError(errors.New("upstream down"))

	eng := New(provider, WithRetryConfig(fastRetryConfig(2)))
	_, err := eng.Run(context.Background(), newTestAgent("A"), nil, nil)
	require.Error(t, err)
	assert.Equal(t, core.TagAPI, core.TagOf(err))
	// Both attempts hit the provider.
	assert.Len(t, provider.Requests(), 2)
}

func TestRun_Handoff(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "transfer_to_b", "{}")))
	provider.QueueCompletion(assistantMessage("B here."))

	agentB := core.NewAgent("B", "test-model", "You are agent B.")
	transfer := tool.NewFunctionTool("transfer_to_b", "Hand off to B", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return agentB, nil
	})

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A", transfer), []core.Message{core.NewUserMessage("hi")}, nil)
	require.NoError(t, err)

	// The second completion request uses B's instructions as system message.
	reqs := provider.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "You are agent B.", reqs[1].Messages[0].Content)

	assert.Same(t, agentB, resp.Agent)
	require.Len(t, resp.Messages, 3)
	assert.JSONEq(t, `{"assistant":"B"}`, resp.Messages[1].Content)
	assert.Equal(t, "B", resp.Messages[2].Sender)
}

func TestRun_ContextVariableDeltaMerged(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "remember", "{}")))
	provider.QueueCompletion(assistantMessage("noted"))

	remember := tool.NewFunctionTool("remember", "Persist a fact", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return &tool.Result{Value: "ok", ContextVariables: core.ContextVariables{"fact": "remembered"}}, nil
	})

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A", remember), nil, core.ContextVariables{"seed": true})
	require.NoError(t, err)
	assert.Equal(t, "remembered", resp.ContextVariables["fact"])
	assert.Equal(t, true, resp.ContextVariables["seed"])
}

func TestRun_ContextVariablesInjectedIntoTool(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "whoami", "{}")))
	provider.QueueCompletion(assistantMessage("done"))

	whoami := tool.NewFunctionTool("whoami", "Name the user", nil, func(_ context.Context, args map[string]any) (any, error) {
		cv := args[tool.ContextVariablesKey].(core.ContextVariables)
		return "user is " + cv["name"].(string), nil
	}).WithContextVariables()

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A", whoami), nil, core.ContextVariables{"name": "James"})
	require.NoError(t, err)
	assert.Equal(t, "user is James", resp.Messages[1].Content)
}

func TestRun_NonTextToolResultIsJSONEncoded(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "stats", "{}")))
	provider.QueueCompletion(assistantMessage("done"))

	stats := tool.NewFunctionTool("stats", "Return stats", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return map[string]int{"count": 3}, nil
	})

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A", stats), nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, resp.Messages[1].Content)
}

func TestRun_MaxTurnsBoundsLoop(t *testing.T) {
	provider := model.NewMockProvider()
	// Every turn requests another tool call; the loop must stop anyway.
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "noop", "{}")))
	provider.QueueCompletion(assistantMessage("", functionCall("call_2", "noop", "{}")))
	provider.QueueCompletion(assistantMessage("", functionCall("call_3", "noop", "{}")))

	noop := tool.NewFunctionTool("noop", "Do nothing", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return "ok", nil
	})

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A", noop), nil, nil, WithMaxTurns(2))
	require.NoError(t, err)
	assert.Len(t, provider.Requests(), 2)
	assert.Len(t, resp.Messages, 4) // two assistant + two tool messages
}

func TestRun_ToolExecutionDisabled(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("", functionCall("call_1", "noop", "{}")))

	noop := tool.NewFunctionTool("noop", "Do nothing", nil, func(_ context.Context, _ map[string]any) (any, error) {
		return "ok", nil
	})

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A", noop), nil, nil, WithoutToolExecution())
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.NotEmpty(t, resp.Messages[0].ToolCalls)
}

func TestRun_DoesNotAliasCallerState(t *testing.T) {
	provider := model.NewMockProvider()
	provider.QueueCompletion(assistantMessage("hello"))

	initial := []core.Message{core.NewUserMessage("hi")}
	vars := core.ContextVariables{"k": "v"}

	eng := New(provider)
	resp, err := eng.Run(context.Background(), newTestAgent("A"), initial, vars)
	require.NoError(t, err)

	resp.ContextVariables["k"] = "mutated"
	assert.Equal(t, "v", vars["k"])
	assert.Len(t, initial, 1)
}
