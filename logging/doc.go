// Package logging provides a minimal logging interface and slog based
// adapters for deepresearch.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the runner, agents, flows and front-ends use. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - New building a JSON or text logger from a Config
//   - NoOpLogger for silent operation (tests, library embedding)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "json", Component: "cli"})
//	r := runner.New(manager, func(o *runner.Options) { o.Logger = logger })
package logging
