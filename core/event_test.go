package core

import (
	"errors"
	"testing"
)

func TestEvent_ConstructorsAndMethods(t *testing.T) {
	e := NewEvent("run-123", "authorA")
	if e.Author != "authorA" || e.RunID != "run-123" || e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("NewEvent did not initialize fields correctly: %+v", e)
	}

	msg := NewMessageEvent("run-123", "agent1", "hello world")
	if msg.Content == nil || msg.Content.Role != "assistant" || msg.Text() != "hello world" {
		t.Fatalf("NewMessageEvent malformed: %+v", msg)
	}

	c := NewTextContent("user", "hi")
	user := NewUserContentEvent("run-123", &c)
	if user.Author != "user" || user.Content.Role != "user" {
		t.Fatalf("NewUserContentEvent malformed: %+v", user)
	}

	fRespOK := NewFunctionResponseEvent("run-123", "agent2", "call-1", "run_search", "notes", nil)
	resps := fRespOK.GetFunctionResponses()
	if len(resps) != 1 || resps[0].Response.(string) != "notes" || resps[0].Error != "" {
		t.Fatalf("Function response success extraction failed: %+v", resps)
	}

	fRespErr := NewFunctionResponseEvent("run-123", "agent2", "call-2", "run_search", nil, errors.New("boom"))
	resps = fRespErr.GetFunctionResponses()
	if resps[0].Error != "boom" {
		t.Fatalf("Expected error message in function response: %+v", resps[0])
	}
}

func TestEvent_GetFunctionCallsPreservesOrder(t *testing.T) {
	e := NewEvent("run", "manager")
	e.Content = &Content{Role: "assistant", Parts: []Part{
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "run_search"}},
		TextPart{Text: "thinking"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "2", Name: "run_summarizer"}},
	}}

	calls := e.GetFunctionCalls()
	if len(calls) != 2 || calls[0].Name != "run_search" || calls[1].Name != "run_summarizer" {
		t.Fatalf("unexpected calls: %+v", calls)
	}

	if e.Text() != "thinking" {
		t.Fatalf("unexpected text: %q", e.Text())
	}
}

func TestEvent_IsFinalResponseLogic(t *testing.T) {
	e := NewEvent("run", "authorA")
	if e.IsFinalResponse() {
		t.Error("Event without content should not be final")
	}

	msg := NewMessageEvent("run", "agent", "done")
	if !msg.IsFinalResponse() {
		t.Error("Expected text message to be final")
	}

	partial := true
	msg.Partial = &partial
	if msg.IsFinalResponse() {
		t.Error("Partial event should not be final")
	}

	call := NewEvent("run", "agent")
	call.Content = &Content{Role: "assistant", Parts: []Part{FunctionCallPart{FunctionCall: FunctionCall{Name: "f"}}}}
	if call.IsFinalResponse() {
		t.Error("Event with function call should not be final")
	}

	resp := NewFunctionResponseEvent("run", "agent", "call-3", "f", "ok", nil)
	if resp.IsFinalResponse() {
		t.Error("Event with function response should not be final")
	}
}

func TestFinalText(t *testing.T) {
	events := []Event{
		NewMessageEvent("run", "a", "first"),
		NewFunctionResponseEvent("run", "a", "c", "f", "x", nil),
		NewMessageEvent("run", "a", "last"),
	}

	if got := FinalText(events); got != "last" {
		t.Fatalf("expected last, got %q", got)
	}

	if got := FinalText(nil); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestEvent_IDUniqueness(t *testing.T) {
	if NewID() == NewID() {
		t.Error("Expected unique IDs")
	}
}

func TestParts_DiscriminatedUnion(t *testing.T) {
	parts := []Part{
		TextPart{Text: "hello"},
		FunctionCallPart{FunctionCall: FunctionCall{Name: "f"}},
		FunctionResponsePart{FunctionResponse: FunctionResponse{Name: "f"}},
	}
	for _, p := range parts {
		switch pt := p.(type) {
		case TextPart, FunctionCallPart, FunctionResponsePart:
		default:
			t.Fatalf("Unexpected part type: %T (%v)", pt, pt)
		}
	}
}
