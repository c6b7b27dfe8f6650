package core

import (
	"context"

	"github.com/hupe1980/deepresearch/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// by an agent. Tools see the cancellation context and correlation IDs but
// cannot emit events or touch the session.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
	agentInfo      AgentInfo

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext
// and unique functionCallID. Log records carry the function call id.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	tc := &ToolContext{runCtx: runCtx, functionCallID: functionCallID}

	if runCtx == nil || runCtx.loggerAdapter == nil {
		tc.loggerAdapter = newLoggerAdapter(nil)
		return tc
	}

	tc.agentInfo = runCtx.Agent
	tc.loggerAdapter = runCtx.loggerAdapter.with("function_call_id", functionCallID)

	return tc
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// SessionID returns the session ID associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.runCtx.SessionID }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the name of the agent that requested the call.
func (tc *ToolContext) AgentName() string { return tc.agentInfo.Name }
