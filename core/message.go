package core

// Message roles. The engine emits assistant and tool messages; callers
// supply user (and occasionally system) messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a conversation history. Once appended to a run's
// history it is treated as immutable.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Sender labels assistant messages with the producing agent's name.
	Sender string `json:"sender,omitempty"`
	// ToolCallID links a tool-role message to the originating call.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolName names the tool that produced a tool-role message.
	ToolName string `json:"tool_name,omitempty"`
	// ToolCalls carries the model's requested invocations, in order.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a model-requested tool invocation. ID is an opaque token,
// unique within one assistant turn; it is only ever replaced wholesale,
// never concatenated.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
// Arguments is the raw JSON-encoded argument payload as streamed or returned
// by the provider.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewUserMessage is a convenience constructor for a user-authored message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewToolMessage builds a tool-role message keyed to the originating call.
func NewToolMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, ToolName: toolName, Content: content}
}
