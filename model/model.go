package model

import (
	"context"

	"github.com/viktorbezdek/sw4rm/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object; it may be nil when the caller
// chooses not to publish a schema.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Request captures the normalized completion input produced by the engine.
// Messages index 0 is the system message; the rest is the full history.
type Request struct {
	Model             string           `json:"model"`
	Messages          []core.Message   `json:"messages"`
	Tools             []ToolDefinition `json:"tools,omitempty"`
	ToolChoice        string           `json:"tool_choice,omitempty"`
	ParallelToolCalls bool             `json:"parallel_tool_calls,omitempty"`
}

// Completion is a non-streaming response: the single selected choice's message.
type Completion struct {
	Message core.Message `json:"message"`
}

// Delta is one incremental fragment of a streamed completion response.
type Delta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is a partial tool-call fragment. Index is the stable key
// correlating fragments of the same call across chunks; ID arrives at most
// once and is never streamed incrementally.
type ToolCallDelta struct {
	Index    int                   `json:"index"`
	ID       string                `json:"id,omitempty"`
	Type     string                `json:"type,omitempty"`
	Function ToolCallFunctionDelta `json:"function"`
}

// ToolCallFunctionDelta carries incrementally streamed name/arguments text.
type ToolCallFunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Chunk is one element of a streaming response sequence.
type Chunk struct {
	Delta Delta `json:"delta"`
}

// Stream is a finite, non-restartable sequence of chunks. The shape mirrors
// the SSE stream types of the vendor SDKs: pull with Next, read with
// Current, then check Err once Next returns false.
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

// Provider is the interface implemented by completion vendors. Adapters are
// pure network boundaries: no retry or error classification lives here.
type Provider interface {
	CreateChatCompletion(ctx context.Context, req Request) (*Completion, error)
	CreateChatCompletionStream(ctx context.Context, req Request) (Stream, error)
}
