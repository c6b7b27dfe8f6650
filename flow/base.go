package flow

import (
	"fmt"
	"time"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/model"
	"github.com/hupe1980/deepresearch/tool"
)

// BaseFlow is a single-agent flow implementing the
// request -> model -> (tool calls -> model)* cycle with pluggable request
// processors.
type BaseFlow struct {
	agent             FlowAgent
	executor          FunctionExecutor
	requestProcessors []RequestProcessor
}

// NewBaseFlow creates a new base flow. A nil executor selects a sequential one.
func NewBaseFlow(agent FlowAgent, executor FunctionExecutor) *BaseFlow {
	if executor == nil {
		executor = NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 1})
	}

	return &BaseFlow{
		agent:             agent,
		executor:          executor,
		requestProcessors: []RequestProcessor{},
	}
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// Execute launches the flow asynchronously. The event channel is closed after
// the final response or after a terminal error has been delivered.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, <-chan error) {
	eventChan := make(chan core.Event, 100)
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		defer close(eventChan)

		start := time.Now()
		turns, err := f.run(runCtx, eventChan)
		if err != nil {
			runCtx.LogError("flow.execute.error", "agent", f.agent.GetName(), "turns", turns, "error", err.Error())
			errChan <- err
			return
		}

		runCtx.LogDebug("flow.execute.complete", "agent", f.agent.GetName(), "turns", turns, "duration_ms", time.Since(start).Milliseconds())
	}()

	return eventChan, errChan
}

func (f *BaseFlow) run(runCtx *core.RunContext, eventChan chan<- core.Event) (int, error) {
	tools := f.agent.GetTools()
	registry := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		registry[t.Name()] = t
	}
	definitions := toolDefinitions(tools)

	emit := func(ev core.Event) error {
		if ev.Branch == "" {
			ev.Branch = runCtx.Branch
		}
		select {
		case <-runCtx.Context.Done():
			return runCtx.Context.Err()
		case eventChan <- ev:
			return nil
		}
	}

	// tool call / tool result pairs produced during this run
	var transcript []core.Content

	for turn := 1; ; turn++ {
		if err := runCtx.Err(); err != nil {
			return turn - 1, err
		}

		if runCtx.Limiter != nil {
			if err := runCtx.Limiter.Increment(); err != nil {
				return turn - 1, err
			}
		}

		req := new(model.Request)
		for _, processor := range f.requestProcessors {
			if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
				return turn - 1, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
			}
		}
		req.Contents = append(req.Contents, transcript...)
		req.Tools = definitions
		req.Stream = f.agent.IsStreamingEnabled()

		final, err := f.generate(runCtx, *req, emit)
		if err != nil {
			return turn, err
		}

		calls := final.GetFunctionCalls()
		if len(calls) == 0 {
			return turn, nil
		}

		transcript = append(transcript, *final.Content)

		responses, err := f.executor.Execute(runCtx, f.agent.GetName(), registry, calls, emit)
		if err != nil {
			return turn, err
		}

		parts := make([]core.Part, 0, len(responses))
		for _, ev := range responses {
			for _, fr := range ev.GetFunctionResponses() {
				parts = append(parts, core.FunctionResponsePart{FunctionResponse: fr})
			}
		}
		transcript = append(transcript, core.Content{Role: "tool", Parts: parts})
	}
}

// generate performs one model call, emitting partial chunks as they arrive
// and the complete response as a single non-partial event.
func (f *BaseFlow) generate(runCtx *core.RunContext, req model.Request, emit func(core.Event) error) (core.Event, error) {
	llm := f.agent.GetLLM()
	if llm == nil {
		return core.Event{}, fmt.Errorf("agent %s has no model configured", f.agent.GetName())
	}

	start := time.Now()
	respCh, errCh := llm.Generate(runCtx.Context, req)

	var (
		final    *core.Event
		emitErr  error
		usage    *model.TokenUsage
		received int
	)

	for resp := range respCh {
		// keep draining so the provider goroutine can finish
		if emitErr != nil {
			continue
		}

		received++

		content := resp.Content
		if content.Role == "" {
			content.Role = "assistant"
		}

		ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
		ev.Content = &content

		if resp.Partial {
			partial := true
			ev.Partial = &partial
			emitErr = emit(ev)
			continue
		}

		if len(ev.GetFunctionCalls()) == 0 {
			complete := true
			ev.TurnComplete = &complete
		}

		usage = resp.Usage
		emitErr = emit(ev)
		final = &ev
	}

	if err := <-errCh; err != nil {
		runCtx.LogError("model.call.error", "agent", f.agent.GetName(), "model", llm.Info().Name, "duration_ms", time.Since(start).Milliseconds(), "error", err.Error())
		return core.Event{}, err
	}

	if emitErr != nil {
		return core.Event{}, emitErr
	}

	if final == nil {
		return core.Event{}, fmt.Errorf("%w: %w", model.ErrRemoteCall, model.ErrNoChoices)
	}

	logArgs := []any{"agent", f.agent.GetName(), "model", llm.Info().Name, "chunks", received, "duration_ms", time.Since(start).Milliseconds()}
	if usage != nil {
		logArgs = append(logArgs, "total_tokens", usage.TotalTokens)
	}
	runCtx.LogInfo("model.call.complete", logArgs...)

	return *final, nil
}

func toolDefinitions(tools []tool.Tool) []model.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}

	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return defs
}
