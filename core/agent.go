package core

import "context"

// Agent is the unit of execution driven by a Runner. Run receives a
// RunContext, emits events through it and returns when the agent produced its
// final response or failed.
//
// Agents are immutable after construction. A single instance may be run by
// many sessions concurrently, so implementations must not keep per-run state
// on the receiver.
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
}

// Invoker is the synchronous text-in / text-out surface of an agent. Tool
// adapters and pipelines bind to it rather than to a concrete agent type.
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, input string) (string, error)
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "model", "sequential").
type AgentInfo struct{ Name, Type string }
