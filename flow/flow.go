// Package flow provides the execution loop behind model backed agents.
//
// A flow turns a RunContext into model requests, relays model output as
// events, executes requested tool calls and feeds their results back until
// the model answers without calling a tool.
package flow

import (
	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/model"
	"github.com/hupe1980/deepresearch/tool"
)

// Flow defines the interface for agent execution flows.
type Flow interface {
	// Execute runs the flow asynchronously. Events are delivered on the first
	// channel; at most one terminal error is delivered on the second. Both
	// channels are closed when the flow ends.
	Execute(runCtx *core.RunContext) (<-chan core.Event, <-chan error)
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	// ResolveInstructions returns the system instruction for this run.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the registered tools in presentation order.
	GetTools() []tool.Tool

	// IsStreamingEnabled returns whether partial model output is requested.
	IsStreamingEnabled() bool
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request before LLM execution.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}
