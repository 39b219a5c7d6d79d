package engine

import (
	"context"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/model"
)

// EventType discriminates the variants of a streaming run's event sequence.
type EventType string

const (
	// EventTurnStart marks the beginning of one model turn.
	EventTurnStart EventType = "turn_start"
	// EventDelta carries one raw response fragment of the current turn.
	EventDelta EventType = "delta"
	// EventTurnEnd marks the end of one model turn's delta sequence.
	EventTurnEnd EventType = "turn_end"
	// EventFinal is the terminal variant carrying the run's result.
	EventFinal EventType = "final"
)

// Event is one element of the streaming run's event sequence.
type Event struct {
	Type EventType
	// ID correlates the event in logs and downstream consumers.
	ID string
	// Sender names the agent producing the current turn (delta events).
	Sender string
	// Delta is the raw fragment for EventDelta.
	Delta *model.Delta
	// Response and Err carry the terminal result for EventFinal; they mirror
	// what Wait returns.
	Response *core.Response
	Err      error
}

// Stream is the lazy, single-consumer event sequence of a streaming run. It
// is finite and not restartable: the consumer must drain Events until the
// channel closes, then read the terminal result via Wait. A consumer that
// abandons the sequence must cancel the run's context; the run then resolves
// to a cancellation failure rather than a silent empty success.
type Stream struct {
	events chan Event
	done   chan struct{}

	resp *core.Response
	err  error
}

// Events returns the event channel. It is closed after the final event.
func (s *Stream) Events() <-chan Event { return s.events }

// Wait blocks until the run has finished and returns its terminal result.
func (s *Stream) Wait() (*core.Response, error) {
	<-s.done
	return s.resp, s.err
}

// RunStream is the streaming counterpart of Run: it produces TurnStart, raw
// delta fragments and TurnEnd for each model turn, feeding every fragment
// into the merger to rebuild the in-progress assistant message; once a
// turn's deltas are exhausted the loop proceeds exactly as the non-streaming
// path (tool dispatch, handoff, continuation) and eventually resolves to the
// same terminal result Run returns.
func (e *Engine) RunStream(
	ctx context.Context,
	agent *core.Agent,
	messages []core.Message,
	contextVariables core.ContextVariables,
	optFns ...func(o *RunOptions),
) *Stream {
	s := &Stream{
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	go e.runStream(ctx, s, agent, messages, contextVariables, newRunOptions(optFns))
	return s
}

func (e *Engine) runStream(
	ctx context.Context,
	s *Stream,
	agent *core.Agent,
	messages []core.Message,
	contextVariables core.ContextVariables,
	opts RunOptions,
) {
	finished := false
	finish := func(resp *core.Response, err error) {
		if finished {
			return
		}
		finished = true
		s.resp, s.err = resp, err
		select {
		case s.events <- Event{Type: EventFinal, ID: core.NewID(), Response: resp, Err: err}:
		case <-ctx.Done():
		}
		close(s.events)
		close(s.done)
	}

	// emit delivers one event, or reports consumer-side cancellation.
	emit := func(ev Event) bool {
		select {
		case s.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	cancelled := func() {
		finish(nil, core.WrapError(core.TagTimeout, ctx.Err(), "streaming run cancelled before completion"))
	}

	if agent == nil {
		finish(nil, core.NewError(core.TagValidation, "no agent provided"))
		return
	}

	runID := core.NewID()
	history := append([]core.Message(nil), messages...)
	vars := contextVariables.Clone()
	initLen := len(history)
	active := agent

	e.logger.Info("engine.stream.start", "run_id", runID, "agent", active.Name, "max_turns", opts.MaxTurns)

	for turns := 0; turns < opts.MaxTurns && active != nil; turns++ {
		if ctx.Err() != nil {
			cancelled()
			return
		}

		stream, err := e.client.createChatCompletionStream(ctx, active, history, vars)
		if err != nil {
			finish(nil, err)
			return
		}

		if !emit(Event{Type: EventTurnStart, ID: core.NewID(), Sender: active.Name}) {
			stream.Close()
			cancelled()
			return
		}

		m := newMerger()
		for stream.Next() {
			chunk := stream.Current()
			delta := chunk.Delta
			if !emit(Event{Type: EventDelta, ID: core.NewID(), Sender: active.Name, Delta: &delta}) {
				stream.Close()
				cancelled()
				return
			}
			m.mergeChunk(deltaToMap(delta))
		}
		streamErr := stream.Err()
		stream.Close()
		if streamErr != nil {
			finish(nil, classifyRequestError(ctx, streamErr))
			return
		}

		if !emit(Event{Type: EventTurnEnd, ID: core.NewID(), Sender: active.Name}) {
			cancelled()
			return
		}

		msg := m.message(active.Name)
		history = append(history, msg)

		if len(msg.ToolCalls) == 0 || !opts.ExecuteTools {
			break
		}

		result, err := e.handleToolCalls(ctx, msg.ToolCalls, active, vars)
		if err != nil {
			finish(nil, err)
			return
		}
		history = append(history, result.Messages...)
		vars.Merge(result.ContextVariables)
		if result.Agent != nil {
			e.logger.Info("engine.stream.handoff", "run_id", runID, "from_agent", active.Name, "to_agent", result.Agent.Name)
			active = result.Agent
		}
	}

	e.logger.Info("engine.stream.complete", "run_id", runID, "agent", active.Name, "messages", len(history)-initLen)

	finish(&core.Response{
		Messages:         history[initLen:],
		Agent:            active,
		ContextVariables: vars,
	}, nil)
}
