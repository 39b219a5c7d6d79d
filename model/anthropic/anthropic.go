// Package anthropic provides a model.Provider implementation for the
// Anthropic Claude Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/model"
)

// Options configures the Anthropic provider adapter (temperature, default
// model id, max tokens, API key). Extend via functional options to preserve
// stability.
type Options struct {
	// DefaultModel is used when a request carries no model identifier.
	DefaultModel anthropic.Model
	Temperature  float64
	MaxTokens    int64
	APIKey       string
}

// Provider wraps the Anthropic Messages API behind the model.Provider interface.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// NewProvider creates a new Anthropic provider using the official client
func NewProvider(optFns ...func(o *Options)) *Provider {
	opts := Options{
		DefaultModel: anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.7,
		MaxTokens:    4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewProviderFromClient creates a new Anthropic provider from an existing client
func NewProviderFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		DefaultModel: anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.7,
		MaxTokens:    4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// CreateChatCompletion implements model.Provider for the non-streaming path.
func (p *Provider) CreateChatCompletion(ctx context.Context, req model.Request) (*model.Completion, error) {
	params := p.buildParams(req)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := core.Message{Role: core.RoleAssistant}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(argsBytes)
				}
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:   toolBlock.ID,
				Type: "function",
				Function: core.ToolCallFunction{
					Name:      toolBlock.Name,
					Arguments: args,
				},
			})
		}
	}
	return &model.Completion{Message: out}, nil
}

// CreateChatCompletionStream implements model.Provider for the streaming path.
//
// TODO: implement via anthropic.MessageStreamEvent accumulation (text deltas
// plus input_json_delta fragments mapped onto tool-call indices).
func (p *Provider) CreateChatCompletionStream(_ context.Context, _ model.Request) (model.Stream, error) {
	return nil, fmt.Errorf("streaming not yet implemented for the anthropic provider")
}

// buildParams assembles the Anthropic request parameters.
func (p *Provider) buildParams(req model.Request) anthropic.MessageNewParams {
	modelID := p.opts.DefaultModel
	if req.Model != "" {
		modelID = anthropic.Model(req.Model)
	}
	params := anthropic.MessageNewParams{
		Model:       modelID,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
	}
	if systemBlocks := extractSystemMessage(req.Messages); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	return params
}

// buildMessages converts normalized messages to the Anthropic message format.
// Tool responses are embedded as tool_result blocks directly after the
// assistant message carrying the matching tool_use block.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	toolResponses := make(map[string]string)
	for _, m := range messages {
		if m.Role == core.RoleTool && m.ToolCallID != "" {
			if _, exists := toolResponses[m.ToolCallID]; !exists {
				toolResponses[m.ToolCallID] = m.Content
			}
		}
	}

	var out []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem, core.RoleTool:
			// System handled separately, tool responses embedded below.
		case core.RoleAssistant:
			content := buildAssistantContent(m, toolResponses)
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		default:
			if m.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		}
	}
	return out
}

// extractSystemMessage collects system text blocks.
func extractSystemMessage(messages []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range messages {
		if m.Role == core.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

// buildAssistantContent builds the content blocks for one assistant message,
// appending matching tool results right after their tool_use blocks.
func buildAssistantContent(m core.Message, toolResponses map[string]string) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	if m.Content != "" {
		content = append(content, anthropic.NewTextBlock(m.Content))
	}
	var callIDs []string
	for _, tc := range m.ToolCalls {
		var input interface{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				input = tc.Function.Arguments // fallback to string
			}
		}
		content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
		callIDs = append(callIDs, tc.ID)
	}
	for _, id := range callIDs {
		if resp, ok := toolResponses[id]; ok {
			content = append(content, anthropic.NewToolResultBlock(id, resp, false))
			delete(toolResponses, id)
		}
	}
	return content
}

// buildTools converts normalized tool definitions to the Anthropic tool format.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, tdef := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if params := tdef.Function.Parameters; params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []interface{}:
					var reqStrings []string
					for _, r := range req {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, tdef.Function.Name)
	}
	return out
}
