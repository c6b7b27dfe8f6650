package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/internal/util"
	"github.com/hupe1980/deepresearch/logging"
	"github.com/hupe1980/deepresearch/model"
	"github.com/hupe1980/deepresearch/tool"
)

type mockFlowAgent struct {
	name      string
	llm       model.Model
	tools     []tool.Tool
	streaming bool
}

func (m *mockFlowAgent) GetName() string                                      { return m.name }
func (m *mockFlowAgent) GetLLM() model.Model                                  { return m.llm }
func (m *mockFlowAgent) ResolveInstructions(*core.RunContext) (string, error) { return "be helpful", nil }
func (m *mockFlowAgent) GetTools() []tool.Tool                                { return m.tools }
func (m *mockFlowAgent) IsStreamingEnabled() bool                             { return m.streaming }

func newTestRunContext(maxCalls int) *core.RunContext {
	return core.NewRunContext(
		context.Background(),
		"test-session", "test-run",
		core.AgentInfo{Name: "TestAgent", Type: "model"},
		core.NewTextContent("user", "test message"),
		maxCalls,
		nil,
		core.NewSession("test-session"),
		logging.NoOpLogger{},
	)
}

func drain(f Flow, rc *core.RunContext) ([]core.Event, error) {
	events, errs := f.Execute(rc)
	var out []core.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out, <-errs
}

func echoTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "echo", util.StringParamSchema("text", ""), func(_ *core.ToolContext, args map[string]any) (any, error) {
		return "echo:" + args["text"].(string), nil
	})
}

func callContent(calls ...core.FunctionCall) core.Content {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}
	return core.Content{Role: "assistant", Parts: parts}
}

func TestSingleAgentFlow_PlainAnswer(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("test message", "plain answer")

	rc := newTestRunContext(0)
	events, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "TestAgent", llm: llm}, nil), rc)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "plain answer", core.FinalText(events))
	assert.True(t, *events[0].TurnComplete)

	calls := llm.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "be helpful", calls[0].Instructions)
	require.Len(t, calls[0].Contents, 2)
	assert.Equal(t, "system", calls[0].Contents[0].Role)
	assert.Equal(t, "user", calls[0].Contents[1].Role)
	assert.Nil(t, calls[0].Tools)
}

func TestSingleAgentFlow_ToolLoop(t *testing.T) {
	var (
		mu   sync.Mutex
		reqs []model.Request
	)

	llm := model.GenerateFunc(func(_ context.Context, req model.Request) (model.Response, error) {
		mu.Lock()
		reqs = append(reqs, req)
		turn := len(reqs)
		mu.Unlock()

		if turn == 1 {
			return model.Response{Content: callContent(
				core.FunctionCall{ID: "1", Name: "first", Arguments: `{"text":"a"}`},
				core.FunctionCall{ID: "2", Name: "second", Arguments: `{"text":"b"}`},
			)}, nil
		}

		last := req.Contents[len(req.Contents)-1]
		var results []string
		for _, p := range last.Parts {
			results = append(results, p.(core.FunctionResponsePart).FunctionResponse.Response.(string))
		}
		return model.Response{Content: core.NewTextContent("assistant", fmt.Sprint(results))}, nil
	})

	agent := &mockFlowAgent{name: "Manager", llm: llm, tools: []tool.Tool{echoTool("first"), echoTool("second")}}
	rc := newTestRunContext(5)

	events, err := drain(NewSingleAgentFlow(agent, nil), rc)
	require.NoError(t, err)

	// call event, two responses, final answer
	require.Len(t, events, 4)
	assert.Len(t, events[0].GetFunctionCalls(), 2)
	assert.Equal(t, "first", events[1].GetFunctionResponses()[0].Name)
	assert.Equal(t, "second", events[2].GetFunctionResponses()[0].Name)
	assert.Equal(t, "[echo:a echo:b]", core.FinalText(events))

	require.Len(t, reqs, 2)
	require.Len(t, reqs[0].Tools, 2)
	assert.Equal(t, "first", reqs[0].Tools[0].Function.Name)
	assert.Equal(t, "second", reqs[0].Tools[1].Function.Name)
	require.Len(t, reqs[1].Contents, 4)
	assert.Equal(t, "assistant", reqs[1].Contents[2].Role)
	assert.Equal(t, "tool", reqs[1].Contents[3].Role)
	assert.Equal(t, 2, rc.Limiter.Count())
}

func TestSingleAgentFlow_ValidationErrorReturnedToModel(t *testing.T) {
	turn := 0
	llm := model.GenerateFunc(func(_ context.Context, req model.Request) (model.Response, error) {
		turn++
		if turn == 1 {
			return model.Response{Content: callContent(core.FunctionCall{ID: "1", Name: "first", Arguments: `{}`})}, nil
		}
		fr := req.Contents[len(req.Contents)-1].Parts[0].(core.FunctionResponsePart).FunctionResponse
		return model.Response{Content: core.NewTextContent("assistant", "saw: "+fr.Error)}, nil
	})

	events, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "M", llm: llm, tools: []tool.Tool{echoTool("first")}}, nil), newTestRunContext(0))
	require.NoError(t, err)
	assert.Contains(t, core.FinalText(events), "VALIDATION_ERROR")
}

func TestSingleAgentFlow_RemoteErrorFromToolAborts(t *testing.T) {
	failing := tool.NewFunctionTool("first", "", map[string]any{}, func(*core.ToolContext, map[string]any) (any, error) {
		return nil, fmt.Errorf("%w: unavailable", model.ErrRemoteCall)
	})

	turns := 0
	llm := model.GenerateFunc(func(context.Context, model.Request) (model.Response, error) {
		turns++
		return model.Response{Content: callContent(core.FunctionCall{ID: "1", Name: "first"})}, nil
	})

	events, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "M", llm: llm, tools: []tool.Tool{failing}}, nil), newTestRunContext(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRemoteCall)
	assert.Equal(t, 1, turns)
	assert.Empty(t, core.FinalText(events))
}

func TestSingleAgentFlow_ModelErrorPropagates(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.SetError(errors.New("invalid api key"))

	_, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "M", llm: llm}, nil), newTestRunContext(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRemoteCall)
}

func TestSingleAgentFlow_ModelCallLimit(t *testing.T) {
	llm := model.GenerateFunc(func(context.Context, model.Request) (model.Response, error) {
		return model.Response{Content: callContent(core.FunctionCall{ID: "1", Name: "first", Arguments: `{"text":"x"}`})}, nil
	})

	_, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "M", llm: llm, tools: []tool.Tool{echoTool("first")}}, nil), newTestRunContext(3))
	assert.ErrorIs(t, err, core.ErrModelCallLimit)
}

func TestSingleAgentFlow_EmptyModelResponse(t *testing.T) {
	llm := model.GenerateFunc(func(context.Context, model.Request) (model.Response, error) {
		return model.Response{Partial: true, Content: core.NewTextContent("assistant", "x")}, nil
	})

	_, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "M", llm: llm}, nil), newTestRunContext(0))
	assert.ErrorIs(t, err, model.ErrNoChoices)
}

func TestSingleAgentFlow_Streaming(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("test message", "hey")

	events, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "M", llm: llm, streaming: true}, nil), newTestRunContext(0))
	require.NoError(t, err)
	require.Len(t, events, 4)
	for _, ev := range events[:3] {
		assert.True(t, ev.IsPartial())
	}
	assert.Equal(t, "hey", core.FinalText(events))
}

func TestSingleAgentFlow_BranchStamped(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	rc := newTestRunContext(0)
	rc.Branch = "Research Manager"

	events, err := drain(NewSingleAgentFlow(&mockFlowAgent{name: "M", llm: llm}, nil), rc)
	require.NoError(t, err)
	assert.Equal(t, "Research Manager", events[0].Branch)
}
