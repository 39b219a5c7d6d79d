package engine

import (
	"sort"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/model"
)

// merger accumulates streamed response fragments into one in-progress
// assistant message. Text fields concatenate across chunks; tool-call
// fragments are correlated by their index.
type merger struct {
	fields    map[string]any
	toolCalls map[int]map[string]any
}

func newMerger() *merger {
	return &merger{
		fields:    map[string]any{},
		toolCalls: map[int]map[string]any{},
	}
}

// mergeFields merges source into target: string values concatenate onto the
// existing text at that key (default empty), nested mappings recurse
// (created in target when absent), other value kinds are left untouched.
func mergeFields(target, source map[string]any) {
	for key, value := range source {
		switch v := value.(type) {
		case string:
			existing, _ := target[key].(string)
			target[key] = existing + v
		case map[string]any:
			nested, ok := target[key].(map[string]any)
			if !ok {
				nested = map[string]any{}
				target[key] = nested
			}
			mergeFields(nested, v)
		}
	}
}

// mergeChunk folds one delta into the in-progress message. The role field is
// dropped before merging. Tool-call fragments carry an index keying the
// accumulator: a new index creates a record with the fragment's id taken
// verbatim; an existing record's id is overwritten only when the fragment
// explicitly supplies one (id is an opaque token, never concatenated) while
// name and arguments merge as incrementally streamed text.
func (m *merger) mergeChunk(delta map[string]any) {
	plain := make(map[string]any, len(delta))
	for k, v := range delta {
		if k == "role" || k == "tool_calls" {
			continue
		}
		plain[k] = v
	}
	mergeFields(m.fields, plain)

	fragments, _ := delta["tool_calls"].([]map[string]any)
	for _, fragment := range fragments {
		index, ok := fragment["index"].(int)
		if !ok {
			continue
		}
		record, exists := m.toolCalls[index]
		if !exists {
			record = map[string]any{
				"id":       "",
				"type":     "",
				"function": map[string]any{"name": "", "arguments": ""},
			}
			m.toolCalls[index] = record
		}
		rest := make(map[string]any, len(fragment))
		for k, v := range fragment {
			if k == "index" || k == "id" {
				continue
			}
			rest[k] = v
		}
		if id, ok := fragment["id"].(string); ok && id != "" {
			record["id"] = id
		}
		mergeFields(record, rest)
	}
}

// message materializes the accumulated fields into an assistant message,
// with tool calls ordered by their stream index.
func (m *merger) message(sender string) core.Message {
	msg := core.Message{Role: core.RoleAssistant, Sender: sender}
	if content, ok := m.fields["content"].(string); ok {
		msg.Content = content
	}

	indices := make([]int, 0, len(m.toolCalls))
	for index := range m.toolCalls {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	for _, index := range indices {
		record := m.toolCalls[index]
		call := core.ToolCall{Type: "function"}
		if id, ok := record["id"].(string); ok {
			call.ID = id
		}
		if fn, ok := record["function"].(map[string]any); ok {
			if name, ok := fn["name"].(string); ok {
				call.Function.Name = name
			}
			if args, ok := fn["arguments"].(string); ok {
				call.Function.Arguments = args
			}
		}
		msg.ToolCalls = append(msg.ToolCalls, call)
	}
	return msg
}

// deltaToMap converts a provider delta into the generic field mapping the
// merger operates on. Empty strings are omitted so they do not register as
// explicit (but vacuous) updates.
func deltaToMap(d model.Delta) map[string]any {
	out := map[string]any{}
	if d.Role != "" {
		out["role"] = d.Role
	}
	if d.Content != "" {
		out["content"] = d.Content
	}
	if len(d.ToolCalls) > 0 {
		fragments := make([]map[string]any, 0, len(d.ToolCalls))
		for _, tc := range d.ToolCalls {
			fragment := map[string]any{
				"index": tc.Index,
				"function": map[string]any{
					"name":      tc.Function.Name,
					"arguments": tc.Function.Arguments,
				},
			}
			if tc.ID != "" {
				fragment["id"] = tc.ID
			}
			if tc.Type != "" {
				fragment["type"] = tc.Type
			}
			fragments = append(fragments, fragment)
		}
		out["tool_calls"] = fragments
	}
	return out
}
