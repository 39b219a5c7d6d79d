// Package sw4rm provides a high-level façade over the conversation engine,
// enabling rapid construction of lightweight multi-agent systems. Most
// applications interact with this package by:
//  1. Creating a Swarm via New() with a completion provider
//  2. Describing one or more agents (core.Agent) with registered tools
//  3. Driving conversations via Run (blocking) or RunStream (event sequence)
//
// The façade delegates orchestration to engine.Engine while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a structured logger
// and tuned retry parameters.
package sw4rm

import (
	"context"

	"github.com/viktorbezdek/sw4rm/core"
	"github.com/viktorbezdek/sw4rm/engine"
	"github.com/viktorbezdek/sw4rm/logging"
	"github.com/viktorbezdek/sw4rm/model"
	"github.com/viktorbezdek/sw4rm/retry"
)

// Options configures the Swarm instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
	// Retry controls the backoff around completion requests
	// (defaults to retry.DefaultConfig()).
	Retry retry.Config
}

// Swarm is the high-level façade aggregating the underlying engine.
type Swarm struct {
	engine *engine.Engine
}

// New creates a Swarm talking to provider with optional overrides.
func New(provider model.Provider, optFns ...func(o *Options)) *Swarm {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Retry:  retry.DefaultConfig(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Swarm{
		engine: engine.New(provider, engine.WithLogger(opts.Logger), engine.WithRetryConfig(opts.Retry)),
	}
}

// WithLogger sets the logger used by the engine.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithRetry sets the completion request backoff parameters.
func WithRetry(cfg retry.Config) func(o *Options) {
	return func(o *Options) { o.Retry = cfg }
}

// Run drives a conversation to a terminal outcome. See engine.Engine.Run.
func (s *Swarm) Run(
	ctx context.Context,
	agent *core.Agent,
	messages []core.Message,
	contextVariables core.ContextVariables,
	optFns ...func(o *engine.RunOptions),
) (*core.Response, error) {
	return s.engine.Run(ctx, agent, messages, contextVariables, optFns...)
}

// RunStream drives a conversation while emitting its event sequence. See
// engine.Engine.RunStream.
func (s *Swarm) RunStream(
	ctx context.Context,
	agent *core.Agent,
	messages []core.Message,
	contextVariables core.ContextVariables,
	optFns ...func(o *engine.RunOptions),
) *engine.Stream {
	return s.engine.RunStream(ctx, agent, messages, contextVariables, optFns...)
}
