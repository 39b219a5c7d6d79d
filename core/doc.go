// Package core provides the foundational domain types used by sw4rm. It
// defines the core abstractions for:
//
//   - Agents (immutable descriptors: model, instructions, registered tools)
//   - Messages and tool calls (the append-only conversation record)
//   - Tools (the minimal interface implemented by callable capabilities)
//   - Context variables (a caller-supplied mapping threaded through runs)
//   - The tagged error taxonomy shared by every fallible operation
//
// The package intentionally keeps implementation concerns (engine
// orchestration, provider adapters, concrete tools) out of scope, exposing
// small types to enable custom extensions.
package core
