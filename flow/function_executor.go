package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/model"
	"github.com/hupe1980/deepresearch/tool"
)

// FunctionExecutor executes the tool calls requested in one model turn.
// Implementations must:
//   - Respect runCtx.Context cancellation
//   - Never panic (recover internally and report the panic as a tool error)
//   - Emit exactly one FunctionResponse event per executed FunctionCall, in
//     request order
//   - Return the emitted response events in request order
//
// Tool failures are reported to the model through the response event. A
// failure that makes the whole run pointless (remote call failure, model call
// limit, cancellation) is returned as error instead and stops the batch.
type FunctionExecutor interface {
	Execute(
		runCtx *core.RunContext,
		agentName string,
		toolRegistry map[string]tool.Tool,
		fnCalls []core.FunctionCall,
		emit func(core.Event) error,
	) ([]core.Event, error)
}

// FunctionExecutorConfig configures the default executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // <=1 executes calls one after another
	LogStartEvents bool // log a start line per function
}

// parallelFunctionExecutor is the default implementation.
type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs a new executor with the given config.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

type fnResult struct {
	event core.Event
	fatal error
	done  bool
}

func (e *parallelFunctionExecutor) Execute(
	runCtx *core.RunContext,
	agentName string,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
	emit func(core.Event) error,
) ([]core.Event, error) {
	n := len(fnCalls)
	if n == 0 {
		return nil, nil
	}

	batchStart := time.Now()

	maxPar := e.cfg.MaxParallel
	if maxPar <= 1 {
		events := make([]core.Event, 0, n)
		for _, fc := range fnCalls {
			if err := runCtx.Err(); err != nil {
				return events, err
			}

			res := e.executeOne(runCtx, agentName, toolRegistry, fc)
			if res.fatal != nil {
				return events, res.fatal
			}

			if err := emit(res.event); err != nil {
				return events, err
			}
			events = append(events, res.event)
		}

		e.logBatch(runCtx, agentName, n, 1, batchStart)

		return events, nil
	}

	if maxPar > n {
		maxPar = n
	}

	results := make([]fnResult, n)
	sem := make(chan struct{}, maxPar)

	var wg sync.WaitGroup

	for i := range fnCalls {
		if runCtx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			if runCtx.Err() != nil {
				return
			}

			results[idx] = e.executeOne(runCtx, agentName, toolRegistry, fc)
		}(i, fnCalls[i])
	}

	wg.Wait()

	events := make([]core.Event, 0, n)
	for _, res := range results {
		if !res.done {
			continue
		}
		if res.fatal != nil {
			return events, res.fatal
		}
		if err := emit(res.event); err != nil {
			return events, err
		}
		events = append(events, res.event)
	}

	if err := runCtx.Err(); err != nil {
		return events, err
	}

	e.logBatch(runCtx, agentName, n, maxPar, batchStart)

	return events, nil
}

func (e *parallelFunctionExecutor) executeOne(
	runCtx *core.RunContext,
	agentName string,
	toolRegistry map[string]tool.Tool,
	fc core.FunctionCall,
) fnResult {
	toolCtx := core.NewToolContext(runCtx, fc.ID)

	if e.cfg.LogStartEvents {
		runCtx.LogInfo("agent.function.start", "agent", agentName, "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()

	var (
		result any
		err    error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				runCtx.LogError("agent.function.panic", "agent", agentName, "function", fc.Name, "recover", r)
			}
		}()
		result, err = executeTool(toolRegistry, toolCtx, fc.Name, fc.Arguments)
	}()

	runCtx.LogInfo(
		"agent.function.executed",
		"agent", agentName,
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil && isFatal(err) {
		return fnResult{fatal: err, done: true}
	}

	return fnResult{
		event: core.NewFunctionResponseEvent(runCtx.RunID, agentName, fc.ID, fc.Name, result, err),
		done:  true,
	}
}

func (e *parallelFunctionExecutor) logBatch(runCtx *core.RunContext, agentName string, n, parallelism int, start time.Time) {
	runCtx.LogDebug(
		"agent.functions.batch.complete",
		"agent", agentName,
		"count", n,
		"parallelism", parallelism,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// isFatal reports whether a tool error must abort the run instead of being
// handed back to the model.
func isFatal(err error) bool {
	return errors.Is(err, model.ErrRemoteCall) ||
		errors.Is(err, core.ErrModelCallLimit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// executeTool resolves the tool by name, decodes its JSON arguments and calls it.
func executeTool(toolRegistry map[string]tool.Tool, toolCtx *core.ToolContext, toolName, args string) (any, error) {
	impl, ok := toolRegistry[toolName]
	if !ok {
		return nil, tool.NewToolError(toolName, fmt.Sprintf("tool %s not found", toolName), tool.CodeValidation)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, &tool.ToolError{
				Tool:    toolName,
				Message: fmt.Sprintf("failed to unmarshal args: %v", err),
				Code:    tool.CodeValidation,
				Err:     err,
			}
		}
	}

	return impl.Call(toolCtx, argMap)
}
