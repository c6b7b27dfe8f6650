package agent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/logging"
)

// MockInvoker for testing pipelines and tools bound to agents.
type MockInvoker struct {
	mock.Mock
	name string
}

func NewMockInvoker(name string) *MockInvoker {
	return &MockInvoker{name: name}
}

func (m *MockInvoker) Name() string { return m.name }

func (m *MockInvoker) Invoke(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// MockStage is a core.Agent whose reply is scripted through testify. Run
// receives the stage input and emits the scripted reply as its final message.
type MockStage struct {
	mock.Mock
	name string
}

func NewMockStage(name string) *MockStage {
	return &MockStage{name: name}
}

func (m *MockStage) Name() string        { return m.name }
func (m *MockStage) Description() string { return "stage " + m.name }

func (m *MockStage) Run(runCtx *core.RunContext) error {
	args := m.Called(runCtx.UserContent.Text())
	if err := args.Error(1); err != nil {
		return err
	}
	return runCtx.EmitEvent(core.NewMessageEvent(runCtx.RunID, m.name, args.String(0)))
}

func newTestRunContext(input string, emit chan core.Event) *core.RunContext {
	return core.NewRunContext(
		context.Background(),
		"test-session",
		"test-run",
		core.AgentInfo{Name: "TestAgent", Type: "test"},
		core.NewTextContent("user", input),
		10,
		emit,
		core.NewSession("test-session"),
		logging.NoOpLogger{},
	)
}
