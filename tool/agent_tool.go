package tool

import (
	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/internal/util"
)

// AgentTool exposes an agent as a tool taking a single string parameter.
// The argument is passed to the agent unchanged and the agent's text is
// returned unchanged. It holds no state and performs no caching.
type AgentTool struct {
	*FunctionTool
	param string
	agent core.Invoker
}

// NewAgentTool binds agent to a tool called name whose only parameter is param.
func NewAgentTool(name, description, param string, agent core.Invoker) *AgentTool {
	t := &AgentTool{param: param, agent: agent}

	t.FunctionTool = NewFunctionTool(
		name,
		description,
		util.StringParamSchema(param, "Input text handed to "+agent.Name()+"."),
		t.invoke,
	)

	return t
}

// Param returns the name of the single string parameter.
func (t *AgentTool) Param() string { return t.param }

// Agent returns the bound agent.
func (t *AgentTool) Agent() core.Invoker { return t.agent }

func (t *AgentTool) invoke(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	// presence and type already checked against the schema
	input := args[t.param].(string)

	toolCtx.Logger().Debug("tool.agent.invoke", "tool", t.Name(), "agent", t.agent.Name(), "input_len", len(input))

	return t.agent.Invoke(toolCtx.Context(), input)
}
