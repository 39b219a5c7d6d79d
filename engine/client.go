package engine

import (
	"context"
	"time"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/logging"
	"github.com/viktorbezdek/sw4rm/model"
	"github.com/viktorbezdek/sw4rm/retry"
)

// completionClient wraps the provider boundary: it builds the normalized
// request for the active agent, runs the network call through the retry
// executor, and converts any remaining failure into a tagged error. No retry
// logic lives in the provider adapters themselves.
type completionClient struct {
	provider model.Provider
	retryCfg retry.Config
	logger   logging.Logger
}

// createChatCompletion requests one non-streaming completion for the active
// agent over the full history.
func (c *completionClient) createChatCompletion(
	ctx context.Context,
	agent *core.Agent,
	history []core.Message,
	vars core.ContextVariables,
) (*model.Completion, error) {
	req, err := buildRequest(agent, history, vars)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	completion, err := retry.Do(ctx, func(ctx context.Context) (*model.Completion, error) {
		return c.provider.CreateChatCompletion(ctx, req)
	}, c.retryCfg, c.logger)
	c.logger.Info("engine.completion", "model", req.Model, "duration_ms", time.Since(start).Milliseconds(), "error", err != nil)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	return completion, nil
}

// createChatCompletionStream initiates one streaming completion. Stream
// initiation goes through the retry executor; mid-stream failures surface
// via the stream's Err and are not retried.
func (c *completionClient) createChatCompletionStream(
	ctx context.Context,
	agent *core.Agent,
	history []core.Message,
	vars core.ContextVariables,
) (model.Stream, error) {
	req, err := buildRequest(agent, history, vars)
	if err != nil {
		return nil, err
	}

	stream, err := retry.Do(ctx, func(ctx context.Context) (model.Stream, error) {
		return c.provider.CreateChatCompletionStream(ctx, req)
	}, c.retryCfg, c.logger)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	return stream, nil
}

// buildRequest assembles the completion request: system message at index 0
// built from the agent's resolved instructions, then the full history. When
// the agent registers tools, the manifest carries bare function names only;
// parameter schemas are not published to the provider.
func buildRequest(agent *core.Agent, history []core.Message, vars core.ContextVariables) (model.Request, error) {
	instructions, err := agent.Instructions.Resolve(vars)
	if err != nil {
		return model.Request{}, core.WrapError(core.TagValidation, err, "agent %s: failed to resolve instructions", agent.Name)
	}

	messages := make([]core.Message, 0, len(history)+1)
	messages = append(messages, core.Message{Role: core.RoleSystem, Content: instructions})
	messages = append(messages, history...)

	req := model.Request{Model: agent.Model, Messages: messages}
	if len(agent.Tools) > 0 {
		req.Tools = make([]model.ToolDefinition, 0, len(agent.Tools))
		for _, t := range agent.Tools {
			req.Tools = append(req.Tools, model.ToolDefinition{
				Type:     "function",
				Function: model.FunctionDefinition{Name: t.Name()},
			})
		}
		req.ToolChoice = agent.ToolChoice
		req.ParallelToolCalls = agent.ParallelToolCalls
	}
	return req, nil
}

// classifyRequestError distinguishes caller cancellation from provider
// failure once retries are exhausted.
func classifyRequestError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return core.WrapError(core.TagTimeout, err, "completion request cancelled")
	}
	return core.WrapError(core.TagAPI, err, "chat completion failed")
}
