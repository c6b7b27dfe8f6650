package deepresearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deepresearch/artifact"
	"github.com/hupe1980/deepresearch/chat"
	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/model"
)

// scriptedModel answers role agents by tagging their input and drives the
// manager through run_search, run_summarizer and run_synthesizer once each
// before returning the concatenated tool results.
type scriptedModel struct {
	mu           sync.Mutex
	managerCalls int
	failOn       string
}

func (s *scriptedModel) generate(_ context.Context, req model.Request) (model.Response, error) {
	if req.Instructions == s.failOn {
		return model.Response{}, fmt.Errorf("%w: quota exceeded", model.ErrRemoteCall)
	}

	switch req.Instructions {
	case SearchInstruction:
		return textResponse("SEARCH(" + lastUserText(req) + ")"), nil
	case SummarizerInstruction:
		return textResponse("SUMMARY(" + lastUserText(req) + ")"), nil
	case SynthesizerInstruction:
		return textResponse("REPORT(" + lastUserText(req) + ")"), nil
	case ManagerInstruction:
		s.mu.Lock()
		s.managerCalls++
		s.mu.Unlock()

		results := toolResults(req)
		switch len(results) {
		case 0:
			return callResponse("call-1", SearchToolName, SearchParam, lastUserText(req)), nil
		case 1:
			return callResponse("call-2", SummarizerToolName, SummarizerParam, results[0]), nil
		case 2:
			return callResponse("call-3", SynthesizerToolName, SynthesizerParam, results[1]), nil
		default:
			return textResponse(strings.Join(results, "\n")), nil
		}
	}

	return model.Response{}, fmt.Errorf("unexpected instructions %q", req.Instructions)
}

func (s *scriptedModel) model() model.Model { return model.GenerateFunc(s.generate) }

func textResponse(text string) model.Response {
	return model.Response{Content: core.NewTextContent("assistant", text), FinishReason: "stop"}
}

func callResponse(id, name, param, value string) model.Response {
	args, _ := json.Marshal(map[string]string{param: value})
	return model.Response{
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: string(args)}},
		}},
		FinishReason: "tool_calls",
	}
}

func lastUserText(req model.Request) string {
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == "user" {
			return req.Contents[i].Text()
		}
	}
	return ""
}

func toolResults(req model.Request) []string {
	var out []string
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			if fr, ok := p.(core.FunctionResponsePart); ok {
				out = append(out, model.FunctionResponseText(fr.FunctionResponse))
			}
		}
	}
	return out
}

const topic = "Impact of AI on Education"

var (
	wantSearch  = "SEARCH(" + topic + ")"
	wantSummary = "SUMMARY(" + wantSearch + ")"
	wantReport  = "REPORT(" + wantSummary + ")"
)

func TestManagerInstructionNamesToolsInOrder(t *testing.T) {
	iSearch := strings.Index(ManagerInstruction, "run_search")
	iSummarizer := strings.Index(ManagerInstruction, "run_summarizer")
	iSynthesizer := strings.Index(ManagerInstruction, "run_synthesizer")

	require.True(t, iSearch >= 0 && iSummarizer >= 0 && iSynthesizer >= 0)
	assert.Less(t, iSearch, iSummarizer)
	assert.Less(t, iSummarizer, iSynthesizer)
}

func TestNew_Wiring(t *testing.T) {
	a := New((&scriptedModel{}).model())

	assert.Equal(t, WorkflowAdvisory, a.Workflow())
	assert.Equal(t, ManagerName, a.Manager().Name())
	assert.Equal(t, ManagerInstruction, a.Manager().Instruction().Text())
	assert.Equal(t, []string{SearchToolName, SummarizerToolName, SynthesizerToolName}, a.Manager().ListTools())

	roles := map[string]string{
		SearchAgentName:      SearchInstruction,
		SummarizerAgentName:  SummarizerInstruction,
		SynthesizerAgentName: SynthesizerInstruction,
	}
	for _, ag := range []interface {
		Name() string
		ListTools() []string
	}{a.SearchAgent(), a.SummarizerAgent(), a.SynthesizerAgent()} {
		assert.Empty(t, ag.ListTools(), ag.Name())
	}
	assert.Equal(t, roles[SearchAgentName], a.SearchAgent().Instruction().Text())
	assert.Equal(t, roles[SummarizerAgentName], a.SummarizerAgent().Instruction().Text())
	assert.Equal(t, roles[SynthesizerAgentName], a.SynthesizerAgent().Instruction().Text())

	tools := a.Tools()
	require.Len(t, tools, 3)
	assert.Equal(t, SearchParam, tools[0].Param())
	assert.Equal(t, SummarizerParam, tools[1].Param())
	assert.Equal(t, SynthesizerParam, tools[2].Param())
	assert.Same(t, a.SearchAgent(), tools[0].Agent())

	assert.Equal(t, []string{SearchAgentName, SummarizerAgentName, SynthesizerAgentName}, a.Pipeline().Stages())
}

func TestRoleAgentIsDeterministicWithStubModel(t *testing.T) {
	a := New((&scriptedModel{}).model())

	first, err := a.SearchAgent().Invoke(context.Background(), topic)
	require.NoError(t, err)
	second, err := a.SearchAgent().Invoke(context.Background(), topic)
	require.NoError(t, err)

	assert.Equal(t, wantSearch, first)
	assert.Equal(t, first, second)
}

func TestToolAdapterOutputEqualsAgentOutput(t *testing.T) {
	a := New((&scriptedModel{}).model())

	runCtx := core.NewRunContext(context.Background(), "s1", "r1", core.AgentInfo{Name: ManagerName, Type: "model"},
		core.NewTextContent("user", topic), 0, make(chan core.Event, 1), core.NewSession("s1"), nil)

	for _, tl := range a.Tools() {
		direct, err := tl.Agent().Invoke(context.Background(), topic)
		require.NoError(t, err)

		viaTool, err := tl.Call(core.NewToolContext(runCtx, "fc-"+tl.Name()), map[string]any{tl.Param(): topic})
		require.NoError(t, err)

		assert.Equal(t, direct, viaTool, tl.Name())
	}
}

func TestInvoke_EndToEnd(t *testing.T) {
	stub := &scriptedModel{}
	a := New(stub.model())

	out, err := a.Invoke(context.Background(), topic)
	require.NoError(t, err)

	iSearch := strings.Index(out, wantSearch)
	iSummary := strings.Index(out, wantSummary)
	iReport := strings.Index(out, wantReport)
	require.True(t, iSearch >= 0 && iSummary >= 0 && iReport >= 0, out)
	assert.Less(t, iSearch, iSummary)
	assert.Less(t, iSummary, iReport)
	assert.Equal(t, 4, stub.managerCalls)
}

func TestRespond_PersistsTranscriptAndReport(t *testing.T) {
	artifacts := artifact.NewInMemoryStore()
	a := New((&scriptedModel{}).model(), func(o *Options) { o.ArtifactStore = artifacts })

	out, err := a.Respond(context.Background(), "s1", topic)
	require.NoError(t, err)
	assert.Contains(t, out, wantReport)

	sess, err := a.SessionStore().Get("s1")
	require.NoError(t, err)
	events := sess.GetEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, topic, events[0].Text())

	var calls []string
	for _, ev := range events {
		for _, fc := range ev.GetFunctionCalls() {
			calls = append(calls, fc.Name)
		}
	}
	assert.Equal(t, []string{SearchToolName, SummarizerToolName, SynthesizerToolName}, calls)

	ids, err := artifacts.List("s1")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	report, err := artifacts.Get("s1", ids[0])
	require.NoError(t, err)
	assert.Equal(t, out, string(report))
}

func TestStrictWorkflow_ChainsRoleAgents(t *testing.T) {
	stub := &scriptedModel{}
	a := New(stub.model(), func(o *Options) { o.Workflow = WorkflowStrict })

	out, err := a.Invoke(context.Background(), topic)
	require.NoError(t, err)
	assert.Equal(t, wantReport, out)

	out, err = a.Respond(context.Background(), "s1", topic)
	require.NoError(t, err)
	assert.Equal(t, wantReport, out)

	assert.Zero(t, stub.managerCalls)
}

func TestStrictWorkflow_RespectsModelCallLimit(t *testing.T) {
	stub := &scriptedModel{}
	a := New(stub.model(), func(o *Options) {
		o.Workflow = WorkflowStrict
		o.MaxModelCalls = 1
	})

	_, err := a.Respond(context.Background(), "s1", topic)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrModelCallLimit)

	_, err = a.Invoke(context.Background(), topic)
	assert.ErrorIs(t, err, core.ErrModelCallLimit)
}

func TestRunner_StreamsEventsOfRun(t *testing.T) {
	a := New((&scriptedModel{}).model())

	var r core.Runner = a.Runner()
	runID, events, errs, err := r.Run(context.Background(), "s1", core.NewTextContent("user", topic))
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	var collected []core.Event
	for ev := range events {
		collected = append(collected, ev)
	}
	require.NoError(t, <-errs)
	assert.Contains(t, core.FinalText(collected), wantReport)

	assert.Error(t, r.Cancel(runID))
}

func TestStubModelErrorPropagates(t *testing.T) {
	for _, failOn := range []string{ManagerInstruction, SearchInstruction, SynthesizerInstruction} {
		t.Run(failOn[:20], func(t *testing.T) {
			a := New((&scriptedModel{failOn: failOn}).model())

			out, err := a.Invoke(context.Background(), topic)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrRemoteCall), err.Error())
			assert.Empty(t, out)

			_, err = a.Respond(context.Background(), "s1", topic)
			assert.ErrorIs(t, err, model.ErrRemoteCall)
		})
	}
}

func TestChatShimOverAssistant(t *testing.T) {
	a := New((&scriptedModel{}).model())
	shim := chat.NewShim(a)

	rec := &chat.Recorder{}
	require.NoError(t, shim.OnChatStart(context.Background(), "s1", rec))
	require.NoError(t, shim.OnMessage(context.Background(), "s1", chat.Message{Author: "user", Content: topic}, rec))

	msgs := rec.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.WelcomeMessage, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, wantReport)
}
