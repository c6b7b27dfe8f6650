package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/logging"
)

// SequentialAgent runs a fixed pipeline of stages. The run's user text is
// handed to the first stage and every stage's output becomes the input of the
// next one. The output of the last stage is the final answer.
//
// Stages run under child contexts of the pipeline's RunContext, so they share
// its model call limiter and session. Each stage result is emitted as a
// message event authored by the stage; the last one is marked turn complete.
// The first failing stage stops the pipeline.
type SequentialAgent struct {
	BaseAgent
	stages        []core.Agent
	maxModelCalls int
	logger        logging.Logger
}

// SequentialAgentOptions configures a SequentialAgent.
type SequentialAgentOptions struct {
	Description string
	// MaxModelCalls bounds the model calls of all stages together when the
	// pipeline is used through Invoke. Zero means unlimited.
	MaxModelCalls int
	Logger        logging.Logger
}

// NewSequentialAgent creates a new pipeline over stages.
func NewSequentialAgent(name string, stages []core.Agent, optFns ...func(o *SequentialAgentOptions)) *SequentialAgent {
	opts := SequentialAgentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := make([]core.Agent, len(stages))
	copy(s, stages)

	return &SequentialAgent{
		BaseAgent:     NewBaseAgent(name, opts.Description),
		stages:        s,
		maxModelCalls: opts.MaxModelCalls,
		logger:        opts.Logger,
	}
}

// Stages returns the names of the pipeline stages in execution order.
func (s *SequentialAgent) Stages() []string {
	names := make([]string, 0, len(s.stages))
	for _, st := range s.stages {
		names = append(names, st.Name())
	}
	return names
}

// Run implements core.Agent.
func (s *SequentialAgent) Run(runCtx *core.RunContext) error {
	input := runCtx.UserContent.Text()

	for i, stage := range s.stages {
		runCtx.LogDebug("agent.stage.start", "agent", s.Name(), "stage", stage.Name(), "index", i)

		output, err := s.runStage(runCtx, stage, input)
		if err != nil {
			runCtx.LogError("agent.stage.error", "agent", s.Name(), "stage", stage.Name(), "error", err.Error())
			return fmt.Errorf("sequential execution failed at agent %s: %w", stage.Name(), err)
		}

		ev := core.NewMessageEvent(runCtx.RunID, stage.Name(), output)
		if i == len(s.stages)-1 {
			complete := true
			ev.TurnComplete = &complete
		}

		if err := runCtx.EmitEvent(ev); err != nil {
			return err
		}

		input = output
	}

	return nil
}

// runStage executes stage under a child context seeded with input and
// returns the text of its final response. The stage's own events stay local.
func (s *SequentialAgent) runStage(runCtx *core.RunContext, stage core.Agent, input string) (string, error) {
	emit := make(chan core.Event, 64)
	child := runCtx.NewChildContext(
		emit,
		core.AgentInfo{Name: stage.Name(), Type: "stage"},
		core.NewTextContent("user", input),
		stage.Name(),
	)

	errCh := make(chan error, 1)
	go func() {
		defer close(emit)
		errCh <- stage.Run(child)
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

// Invoke runs the pipeline synchronously and returns the last stage's output.
// An empty pipeline returns the input unchanged.
func (s *SequentialAgent) Invoke(ctx context.Context, input string) (string, error) {
	if len(s.stages) == 0 {
		return input, nil
	}
	return invokeSync(ctx, s, "sequential", input, s.maxModelCalls, s.logger)
}
