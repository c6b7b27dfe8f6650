package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/logging"
)

// BaseAgent holds the identity shared by all agents. Embed it in concrete
// agent implementations and supply Run to satisfy core.Agent.
type BaseAgent struct {
	name        string
	description string
}

// NewBaseAgent constructs a BaseAgent. An empty description defaults to "Agent <name>".
func NewBaseAgent(name, description string) BaseAgent {
	if description == "" {
		description = fmt.Sprintf("Agent %s", name)
	}
	return BaseAgent{name: name, description: description}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// invokeSync runs a under a private RunContext seeded with input and returns
// the text of its final response. Events are consumed locally and discarded.
func invokeSync(ctx context.Context, a core.Agent, agentType, input string, maxModelCalls int, logger logging.Logger) (string, error) {
	emit := make(chan core.Event, 64)

	runCtx := core.NewRunContext(
		ctx,
		"",
		core.NewID(),
		core.AgentInfo{Name: a.Name(), Type: agentType},
		core.NewTextContent("user", input),
		maxModelCalls,
		emit,
		nil,
		logger,
	)
	runCtx.Branch = a.Name()

	errCh := make(chan error, 1)
	go func() {
		defer close(emit)
		errCh <- a.Run(runCtx)
	}()

	var events []core.Event
	for ev := range emit {
		events = append(events, ev)
	}

	if err := <-errCh; err != nil {
		return "", err
	}

	return core.FinalText(events), nil
}
