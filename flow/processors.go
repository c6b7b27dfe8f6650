package flow

import (
	"fmt"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/model"
)

// InstructionsProcessor resolves the agent instruction into the request.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets the system instruction on the request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	req.Instructions = instructions

	return nil
}

// ContentsProcessor builds the initial conversation: the system instruction
// followed by the run's user content. Earlier turns of the session are never
// included.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest replaces the request contents.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, _ FlowAgent) error {
	contents := make([]core.Content, 0, 2)

	if req.Instructions != "" {
		contents = append(contents, core.NewTextContent("system", req.Instructions))
	}

	user := runCtx.UserContent
	if user.Role == "" {
		user.Role = "user"
	}
	contents = append(contents, user)

	req.Contents = contents

	return nil
}
