// Package engine implements the conversation orchestration loop: it drives
// multi-turn exchanges with a completion provider, dispatches model-requested
// tool calls against the active agent's registered tools, follows tool
// signaled handoffs to other agents, and in streaming mode reassembles
// incrementally delivered response fragments into coherent messages while
// emitting them as events.
//
// An Engine holds no run-scoped mutable state beyond configuration and a
// logger; one instance may safely host multiple independent runs. Each run
// operates on private shallow copies of its message history and
// context-variable mapping taken at entry.
package engine
