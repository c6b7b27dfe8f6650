package flow

// SingleAgentFlow implements the execution flow of a standalone model agent.
// It wires the instruction and contents processors and executes tool calls
// with the given executor.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a new single-agent flow. A nil executor selects
// a sequential one.
func NewSingleAgentFlow(agent FlowAgent, executor FunctionExecutor) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent, executor)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())

	return &SingleAgentFlow{BaseFlow: baseFlow}
}
