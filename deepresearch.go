// Package deepresearch assembles the research assistant: three role agents
// (search, summarizer, synthesizer) exposed as tools to a "Research Manager"
// agent that is asked, in its instruction, to call them in order.
//
// Typical use:
//  1. Build a model client (NewModelFromConfig or a provider package)
//  2. Create the assistant with New
//  3. Answer a chat message with Respond, or call Invoke directly
//
// The default advisory workflow leaves tool order to the model. The strict
// workflow replaces the manager by a fixed pipeline calling the three role
// agents one after another.
package deepresearch

import (
	"context"

	"github.com/hupe1980/deepresearch/agent"
	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/logging"
	"github.com/hupe1980/deepresearch/model"
	"github.com/hupe1980/deepresearch/runner"
	"github.com/hupe1980/deepresearch/tool"
)

// Agent names.
const (
	ManagerName          = "Research Manager"
	SearchAgentName      = "Search Agent"
	SummarizerAgentName  = "Summarizer Agent"
	SynthesizerAgentName = "Synthesizer Agent"
	PipelineName         = "Research Pipeline"
)

// Tool names and their single string parameter.
const (
	SearchToolName      = "run_search"
	SummarizerToolName  = "run_summarizer"
	SynthesizerToolName = "run_synthesizer"

	SearchParam      = "query"
	SummarizerParam  = "text"
	SynthesizerParam = "notes"
)

// Role and manager instructions.
const (
	SearchInstruction      = "Search the web and return relevant information about the query in bullet points."
	SummarizerInstruction  = "Summarize provided text into concise, clear paragraphs capturing key insights."
	SynthesizerInstruction = "Take multiple summaries or research notes and synthesize them into a comprehensive research report with clear sections."

	workflowExamples = `
Always follow this exact 3-step workflow:
1. Call run_search
2. Call run_summarizer
3. Call run_synthesizer
Never skip steps. Never answer directly without using the tools.
`

	ManagerInstruction = "You are the Research Manager. Your role is to coordinate the workflow of research. " +
		"Follow strictly: (1) run_search, (2) run_summarizer, (3) run_synthesizer.\n\n" +
		workflowExamples
)

// Workflow selects how the three role agents are orchestrated.
type Workflow string

const (
	// WorkflowAdvisory lets the manager model decide which tools to call.
	WorkflowAdvisory Workflow = "advisory"
	// WorkflowStrict calls search, summarizer and synthesizer in order.
	WorkflowStrict Workflow = "strict"
)

// Options configures an Assistant.
type Options struct {
	Workflow Workflow
	// MaxModelCalls caps model calls per user message for the root agent.
	MaxModelCalls int
	// EnableStreaming forwards partial model output of the manager.
	EnableStreaming bool
	// SessionStore and ArtifactStore default to in-memory stores.
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	Logger        logging.Logger
}

// rootAgent is what a workflow exposes: runnable by the runner and callable
// synchronously.
type rootAgent interface {
	core.Agent
	core.Invoker
}

// Assistant owns the agent graph and the runner that drives it. It is
// immutable after New and safe for concurrent use by many sessions.
type Assistant struct {
	workflow    Workflow
	search      *agent.ModelAgent
	summarizer  *agent.ModelAgent
	synthesizer *agent.ModelAgent
	tools       []*tool.AgentTool
	manager     *agent.ModelAgent
	pipeline    *agent.SequentialAgent
	root        rootAgent
	runner      *runner.Runner
	logger      logging.Logger
}

// New builds the role agents, their tool adapters, the manager and the
// runner. All agents share llm.
func New(llm model.Model, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		Workflow:      WorkflowAdvisory,
		MaxModelCalls: 25,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Workflow == "" {
		opts.Workflow = WorkflowAdvisory
	}

	role := func(name, instruction, description string) *agent.ModelAgent {
		return agent.NewModelAgent(name, llm, func(o *agent.ModelAgentOptions) {
			o.Description = description
			o.Instruction = agent.NewInstructionFromText(instruction)
			o.Logger = logging.With(opts.Logger, "agent", name)
		})
	}

	a := &Assistant{
		workflow:    opts.Workflow,
		search:      role(SearchAgentName, SearchInstruction, "Gathers information about a query as bullet points"),
		summarizer:  role(SummarizerAgentName, SummarizerInstruction, "Condenses text into concise paragraphs"),
		synthesizer: role(SynthesizerAgentName, SynthesizerInstruction, "Turns notes into a structured research report"),
		logger:      opts.Logger,
	}

	a.tools = []*tool.AgentTool{
		tool.NewAgentTool(SearchToolName, "Search the web for the query and return relevant information in bullet points.", SearchParam, a.search),
		tool.NewAgentTool(SummarizerToolName, "Summarize the provided text into concise, clear paragraphs.", SummarizerParam, a.summarizer),
		tool.NewAgentTool(SynthesizerToolName, "Synthesize research notes into a comprehensive report with clear sections.", SynthesizerParam, a.synthesizer),
	}

	tools := make([]tool.Tool, len(a.tools))
	for i, t := range a.tools {
		tools[i] = t
	}

	a.manager = agent.NewModelAgent(ManagerName, llm, func(o *agent.ModelAgentOptions) {
		o.Description = "Coordinates search, summarization and synthesis"
		o.Instruction = agent.NewInstructionFromText(ManagerInstruction)
		o.Tools = tools
		o.EnableStreaming = opts.EnableStreaming
		o.MaxModelCalls = opts.MaxModelCalls
		o.Logger = logging.With(opts.Logger, "agent", ManagerName)
	})

	a.pipeline = agent.NewSequentialAgent(PipelineName, []core.Agent{a.search, a.summarizer, a.synthesizer}, func(o *agent.SequentialAgentOptions) {
		o.Description = "Runs search, summarizer and synthesizer in order"
		o.MaxModelCalls = opts.MaxModelCalls
		o.Logger = logging.With(opts.Logger, "agent", PipelineName)
	})

	a.root = a.manager
	if opts.Workflow == WorkflowStrict {
		a.root = a.pipeline
	}

	a.runner = runner.New(a.root, func(o *runner.Options) {
		o.MaxModelCalls = opts.MaxModelCalls
		o.Logger = opts.Logger
		if opts.SessionStore != nil {
			o.SessionStore = opts.SessionStore
		}
		if opts.ArtifactStore != nil {
			o.ArtifactStore = opts.ArtifactStore
		}
	})

	return a
}

// Workflow returns the configured orchestration mode.
func (a *Assistant) Workflow() Workflow { return a.workflow }

// Manager returns the tool-calling manager agent.
func (a *Assistant) Manager() *agent.ModelAgent { return a.manager }

// Pipeline returns the fixed pipeline used by the strict workflow.
func (a *Assistant) Pipeline() *agent.SequentialAgent { return a.pipeline }

// SearchAgent returns the search role agent.
func (a *Assistant) SearchAgent() *agent.ModelAgent { return a.search }

// SummarizerAgent returns the summarizer role agent.
func (a *Assistant) SummarizerAgent() *agent.ModelAgent { return a.summarizer }

// SynthesizerAgent returns the synthesizer role agent.
func (a *Assistant) SynthesizerAgent() *agent.ModelAgent { return a.synthesizer }

// Tools returns the tool adapters in the order the manager advertises them.
func (a *Assistant) Tools() []*tool.AgentTool {
	out := make([]*tool.AgentTool, len(a.tools))
	copy(out, a.tools)
	return out
}

// Runner returns the runner driving the root agent.
func (a *Assistant) Runner() core.Runner { return a.runner }

// SessionStore returns the store holding chat transcripts.
func (a *Assistant) SessionStore() core.SessionStore { return a.runner.SessionStore() }

// ArtifactStore returns the report store, nil when archiving is disabled.
func (a *Assistant) ArtifactStore() core.ArtifactStore { return a.runner.ArtifactStore() }

// Invoke runs the root agent once on input without touching any session.
func (a *Assistant) Invoke(ctx context.Context, input string) (string, error) {
	return a.root.Invoke(ctx, input)
}

// Respond answers one chat message for sessionID. The transcript is stored
// and the report archived; earlier messages are not sent to the model.
func (a *Assistant) Respond(ctx context.Context, sessionID, input string) (string, error) {
	a.logger.Debug("assistant.respond.start", "session_id", sessionID, "workflow", string(a.workflow))

	res, err := a.RunSync(ctx, sessionID, input)
	if err != nil {
		return "", err
	}

	return res.Output, nil
}

// RunSync is Respond with the run id, the report id and the events of the run.
func (a *Assistant) RunSync(ctx context.Context, sessionID, input string) (*runner.Result, error) {
	return a.runner.RunSync(ctx, sessionID, input)
}
