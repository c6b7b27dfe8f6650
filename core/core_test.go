package core

import "context"

type testLogger struct{}

func (l testLogger) Debug(string, ...any) {}
func (l testLogger) Info(string, ...any)  {}
func (l testLogger) Warn(string, ...any)  {}
func (l testLogger) Error(string, ...any) {}

func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 5)
	sess := NewSession("sess-x")
	rc := NewRunContext(
		context.Background(),
		"sess-x", "run-x",
		AgentInfo{Name: "Agent1", Type: "test"},
		NewTextContent("user", "Impact of AI on Education"),
		3,
		emit,
		sess,
		testLogger{},
	)
	return rc, emit
}
