// Package logging provides a minimal logging interface and adapters for sw4rm.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine and tool dispatcher use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - SwarmLogger with contextual helpers (component, run) and domain helpers
//     for tool and completion calls
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng := engine.New(provider, engine.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
