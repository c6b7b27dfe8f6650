package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/flow"
	"github.com/hupe1980/deepresearch/logging"
	"github.com/hupe1980/deepresearch/model"
	"github.com/hupe1980/deepresearch/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description     string
	Instruction     Instruction
	Tools           []tool.Tool
	EnableStreaming bool
	// MaxModelCalls caps model calls of a single Invoke (0 = unlimited).
	// Runs started by a runner use the runner's limit instead.
	MaxModelCalls int
	// Executor runs tool calls; nil executes them one by one in request order.
	Executor flow.FunctionExecutor
	Logger   logging.Logger
}

// ModelAgent drives a language model with a fixed instruction and an ordered
// set of tools. The model decides which tools to call and in which order; the
// agent executes them and hands results back until the model answers in text.
type ModelAgent struct {
	BaseAgent
	llm             model.Model
	instruction     Instruction
	tools           []tool.Tool
	enableStreaming bool
	maxModelCalls   int
	executor        flow.FunctionExecutor
	logger          logging.Logger
}

// NewModelAgent creates a new model-based agent.
//
// Defaults: a generic instruction naming the agent, no tools, streaming off,
// at most 25 model calls per Invoke.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:   NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxModelCalls: 25,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	tools := make([]tool.Tool, len(opts.Tools))
	copy(tools, opts.Tools)

	return &ModelAgent{
		BaseAgent:       NewBaseAgent(name, opts.Description),
		llm:             llm,
		instruction:     opts.Instruction,
		tools:           tools,
		enableStreaming: opts.EnableStreaming,
		maxModelCalls:   opts.MaxModelCalls,
		executor:        opts.Executor,
		logger:          opts.Logger,
	}
}

// Instruction returns the agent's instruction.
func (a *ModelAgent) Instruction() Instruction { return a.instruction }

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	for _, t := range a.tools {
		if t.Name() == name {
			return true
		}
	}
	return false
}

// ListTools returns the names of all registered tools in registration order.
func (a *ModelAgent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for _, t := range a.tools {
		names = append(names, t.Name())
	}
	return names
}

// GetName returns the agent's display name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM returns the language model instance.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools returns a copy of the registered tools in registration order.
func (a *ModelAgent) GetTools() []tool.Tool {
	tools := make([]tool.Tool, len(a.tools))
	copy(tools, a.tools)
	return tools
}

// IsStreamingEnabled returns whether streaming responses are enabled.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// ResolveInstructions returns the static instruction text.
func (a *ModelAgent) ResolveInstructions(*core.RunContext) (string, error) {
	return a.instruction.Text(), nil
}

// Run implements core.Agent. It executes the single-agent flow and forwards
// its events to runCtx until the model produced a final text answer.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "type", runCtx.GetAgentType(), "run", runCtx.RunID)

	eventChan, errChan := flow.NewSingleAgentFlow(a, a.executor).Execute(runCtx)

	var forwardErr error
	for event := range eventChan {
		if forwardErr != nil {
			continue
		}

		if err := runCtx.EmitEvent(event); err != nil {
			runCtx.LogWarn("agent.run.context_done", "agent", a.Name(), "error", err.Error())
			forwardErr = err
			continue
		}

		runCtx.LogDebug(
			"agent.event.forward",
			"agent", a.Name(),
			"event_id", event.ID,
			"partial", event.IsPartial(),
			"fn_calls", len(event.GetFunctionCalls()),
		)
	}

	if err := <-errChan; err != nil {
		runCtx.LogError("agent.run.error", "agent", a.Name(), "error", err.Error())
		return err
	}

	if forwardErr != nil {
		return forwardErr
	}

	runCtx.LogDebug("agent.run.complete", "agent", a.Name())

	return nil
}

// Invoke sends input to the model under the agent's instruction and returns
// the final text answer. Remote failures are returned wrapped in
// model.ErrRemoteCall; no partial result is returned on failure.
func (a *ModelAgent) Invoke(ctx context.Context, input string) (string, error) {
	return invokeSync(ctx, a, "model", input, a.maxModelCalls, a.logger)
}
