package engine

import (
	"context"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/logging"
	"github.com/viktorbezdek/sw4rm/model"
	"github.com/viktorbezdek/sw4rm/retry"
)

// DefaultMaxTurns bounds a run when the caller does not override it. A run
// that legitimately needs more turns must opt in via WithMaxTurns; there is
// deliberately no "unlimited" setting.
const DefaultMaxTurns = 10

// Options configures an Engine.
type Options struct {
	// Logger receives engine, completion and tool dispatch logs.
	// Defaults to a NoOpLogger.
	Logger logging.Logger
	// Retry controls the backoff around completion requests.
	Retry retry.Config
}

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithRetryConfig sets the completion request backoff parameters.
func WithRetryConfig(cfg retry.Config) func(o *Options) {
	return func(o *Options) { o.Retry = cfg }
}

// Engine orchestrates conversations between a caller and a completion
// provider. Construct once and reuse across runs.
type Engine struct {
	client *completionClient
	logger logging.Logger
}

// New creates an Engine talking to provider.
func New(provider model.Provider, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Retry:  retry.DefaultConfig(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{
		client: &completionClient{provider: provider, retryCfg: opts.Retry, logger: opts.Logger},
		logger: opts.Logger,
	}
}

// RunOptions configure a single run.
type RunOptions struct {
	// MaxTurns bounds the number of request/response cycles. Values <= 0
	// fall back to DefaultMaxTurns.
	MaxTurns int
	// ExecuteTools, when false, stops the loop after the first assistant
	// message carrying tool calls instead of dispatching them.
	ExecuteTools bool
}

// WithMaxTurns overrides the finite default turn bound.
func WithMaxTurns(n int) func(o *RunOptions) {
	return func(o *RunOptions) { o.MaxTurns = n }
}

// WithoutToolExecution disables tool dispatch for this run.
func WithoutToolExecution() func(o *RunOptions) {
	return func(o *RunOptions) { o.ExecuteTools = false }
}

func newRunOptions(optFns []func(o *RunOptions)) RunOptions {
	opts := RunOptions{MaxTurns: DefaultMaxTurns, ExecuteTools: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	return opts
}

// Run drives the conversation until a terminal outcome: an assistant message
// without tool calls, turn exhaustion, a completion failure, or a fatal tool
// error. messages and contextVariables are shallow-copied at entry and never
// aliased; the returned Response carries only the messages produced by this
// run, the agent active at the end, and the merged context variables.
func (e *Engine) Run(
	ctx context.Context,
	agent *core.Agent,
	messages []core.Message,
	contextVariables core.ContextVariables,
	optFns ...func(o *RunOptions),
) (*core.Response, error) {
	if agent == nil {
		return nil, core.NewError(core.TagValidation, "no agent provided")
	}
	opts := newRunOptions(optFns)
	runID := core.NewID()

	history := append([]core.Message(nil), messages...)
	vars := contextVariables.Clone()
	initLen := len(history)
	active := agent

	e.logger.Info("engine.run.start", "run_id", runID, "agent", active.Name, "max_turns", opts.MaxTurns)

	for turns := 0; turns < opts.MaxTurns && active != nil; turns++ {
		if err := ctx.Err(); err != nil {
			return nil, core.WrapError(core.TagTimeout, err, "run cancelled")
		}

		completion, err := e.client.createChatCompletion(ctx, active, history, vars)
		if err != nil {
			e.logger.Error("engine.run.completion_failed", "run_id", runID, "agent", active.Name, "error", err.Error())
			return nil, err
		}

		msg := completion.Message
		msg.Sender = active.Name
		history = append(history, msg)

		if len(msg.ToolCalls) == 0 || !opts.ExecuteTools {
			e.logger.Debug("engine.run.turn_final", "run_id", runID, "agent", active.Name)
			break
		}

		result, err := e.handleToolCalls(ctx, msg.ToolCalls, active, vars)
		if err != nil {
			return nil, err
		}
		history = append(history, result.Messages...)
		vars.Merge(result.ContextVariables)
		if result.Agent != nil {
			e.logger.Info("engine.run.handoff", "run_id", runID, "from_agent", active.Name, "to_agent", result.Agent.Name)
			active = result.Agent
		}
	}

	e.logger.Info("engine.run.complete", "run_id", runID, "agent", active.Name, "messages", len(history)-initLen)

	return &core.Response{
		Messages:         history[initLen:],
		Agent:            active,
		ContextVariables: vars,
	}, nil
}
