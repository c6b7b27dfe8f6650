package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/deepresearch/logging"
)

// RunContext carries execution state & helpers for an agent run.
// It encapsulates the per-invocation execution scope passed to an
// Agent's Run method. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID, Agent info)
//   - Input user Content
//   - The emission channel and the shared model call limiter
//   - Branch label for nested agents
//
// The Session snapshot is informational only. Agents never replay it to the
// model, every run starts from UserContent alone.
type RunContext struct {
	Context          context.Context
	SessionID, RunID string
	Agent            AgentInfo
	UserContent      Content
	Emit             chan<- Event
	Limiter          *ModelLimiter
	Session          *Session
	Branch           string

	*loggerAdapter
}

// NewRunContext constructs a RunContext with a fresh limiter capped at
// maxModelCalls (0 = unlimited).
func NewRunContext(
	ctx context.Context,
	sessionID, runID string,
	agent AgentInfo,
	userContent Content,
	maxModelCalls int,
	emit chan<- Event,
	sess *Session,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		SessionID:     sessionID,
		RunID:         runID,
		Agent:         agent,
		UserContent:   userContent,
		Emit:          emit,
		Limiter:       NewModelLimiter(maxModelCalls),
		Session:       sess,
		loggerAdapter: newLoggerAdapter(logger).with("run_id", runID),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetAgentName returns the logical agent name for this invocation.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// GetAgentType returns a categorization label for the agent.
func (rc *RunContext) GetAgentType() string { return rc.Agent.Type }

// NewChildContext derives a context for a nested execution path. The child
// shares the limiter and session with its parent but emits into its own
// channel. An empty branch keeps the parent's branch.
func (rc *RunContext) NewChildContext(emit chan<- Event, agent AgentInfo, userContent Content, branch string) *RunContext {
	finalBranch := rc.Branch
	if branch != "" {
		finalBranch = branch
	}

	return &RunContext{
		Context:       rc.Context,
		SessionID:     rc.SessionID,
		RunID:         rc.RunID,
		Agent:         agent,
		UserContent:   userContent,
		Emit:          emit,
		Limiter:       rc.Limiter,
		Session:       rc.Session,
		Branch:        finalBranch,
		loggerAdapter: rc.loggerAdapter,
	}
}

// EmitEvent stamps the branch onto ev and sends it, honoring cancellation.
func (rc *RunContext) EmitEvent(ev Event) error {
	if rc.Emit == nil {
		return fmt.Errorf("emit channel not configured")
	}

	if ev.Branch == "" {
		ev.Branch = rc.Branch
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	return nil
}
