// Package openai provides a model.Provider implementation using the OpenAI
// Chat Completions API (including streaming and function/tool calling). It
// adapts sw4rm's normalized Request/Completion/Chunk structures into the
// SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/model"
)

// Options configure the OpenAI provider adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	// DefaultModel is used when a request carries no model identifier.
	DefaultModel        string
	Temperature         float64
	MaxCompletionTokens int64
}

// Provider wraps the OpenAI Chat Completions API behind the model.Provider interface.
type Provider struct {
	client *openai.Client
	opts   Options
}

// NewProvider creates a new OpenAI provider using the official client
func NewProvider(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewProviderFromClient(&client, optFns...)
}

// NewProviderFromClient creates a new OpenAI provider from an existing client
func NewProviderFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		DefaultModel:        openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// CreateChatCompletion implements model.Provider for the non-streaming path.
func (p *Provider) CreateChatCompletion(ctx context.Context, req model.Request) (*model.Completion, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	msg := resp.Choices[0].Message
	out := core.Message{Role: core.RoleAssistant, Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: core.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return &model.Completion{Message: out}, nil
}

// CreateChatCompletionStream implements model.Provider for the streaming path.
func (p *Provider) CreateChatCompletionStream(ctx context.Context, req model.Request) (model.Stream, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(req))
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai streaming error: %w", err)
	}
	return &chunkStream{inner: stream}, nil
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (p *Provider) buildParams(req model.Request) openai.ChatCompletionNewParams {
	modelID := req.Model
	if modelID == "" {
		modelID = p.opts.DefaultModel
	}
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req.Messages),
		Model:               modelID,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	params.ParallelToolCalls = openai.Bool(req.ParallelToolCalls)
	if req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(req.ToolChoice)}
	}
	return params
}

// buildMessages converts normalized messages into OpenAI chat messages.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case core.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case core.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}})
		case core.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			if m.Content != "" {
				out = append(out, openai.UserMessage(m.Content))
			}
		}
	}
	return out
}

// chunkStream adapts the SDK's SSE stream to model.Stream.
type chunkStream struct {
	inner interface {
		Next() bool
		Current() openai.ChatCompletionChunk
		Err() error
		Close() error
	}
	current model.Chunk
}

func (s *chunkStream) Next() bool {
	for s.inner.Next() {
		ck := s.inner.Current()
		if len(ck.Choices) == 0 {
			continue
		}
		s.current = convertChunk(ck.Choices[0])
		return true
	}
	return false
}

func (s *chunkStream) Current() model.Chunk { return s.current }

func (s *chunkStream) Err() error { return s.inner.Err() }

func (s *chunkStream) Close() error { return s.inner.Close() }

// convertChunk maps one SDK chunk choice onto the normalized delta shape.
func convertChunk(choice openai.ChatCompletionChunkChoice) model.Chunk {
	delta := model.Delta{
		Role:    choice.Delta.Role,
		Content: choice.Delta.Content,
	}
	for _, tc := range choice.Delta.ToolCalls {
		delta.ToolCalls = append(delta.ToolCalls, model.ToolCallDelta{
			Index: int(tc.Index),
			ID:    tc.ID,
			Type:  string(tc.Type),
			Function: model.ToolCallFunctionDelta{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return model.Chunk{Delta: delta}
}
