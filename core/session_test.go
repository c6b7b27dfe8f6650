package core

import "testing"

func TestSession_AddEventAndClone(t *testing.T) {
	s := NewSession("s1")
	s.AddEvent(NewMessageEvent("run", "assistant", "hello"))

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}

	clone.AddEvent(NewMessageEvent("run", "assistant", "again"))
	if len(s.GetEvents()) != 1 {
		t.Errorf("original should keep 1 event, got %d", len(s.GetEvents()))
	}
	if len(clone.GetEvents()) != 2 {
		t.Errorf("clone should have 2 events, got %d", len(clone.GetEvents()))
	}
}

func TestSession_GetEventsIsDefensiveCopy(t *testing.T) {
	s := NewSession("s2")
	s.AddEvent(NewMessageEvent("run", "assistant", "hello"))

	events := s.GetEvents()
	events[0].Author = "mutated"

	if s.GetEvents()[0].Author != "assistant" {
		t.Error("GetEvents must return a copy")
	}
	if s.Updated.Before(s.Created) {
		t.Error("Updated must not precede Created")
	}
}
