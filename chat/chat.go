// Package chat adapts a research responder to a two-hook chat protocol: a
// session-start hook that greets the user and a message hook that forwards the
// user's text and posts the reply. Front-ends (terminal, HTTP) call the hooks
// and decide how messages are displayed.
package chat

import (
	"context"
	"sync"
)

// DefaultAuthor is the author of every message the Shim emits.
const DefaultAuthor = "Deep Research Assistant"

// WelcomeMessage is the static markdown greeting sent on session start.
const WelcomeMessage = "# 📚 Deep Research Assistant\n\n" +
	"Welcome to the **AI-powered Research Assistant**! 🚀\n\n" +
	"### ✨ Features\n" +
	"- Automatically gathers information using `Search Agent`\n" +
	"- Summarizes findings with `Summarizer Agent`\n" +
	"- Produces a structured research report using `Synthesizer Agent`\n\n" +
	"### 📝 How to use\n" +
	"Simply type your research topic (e.g., *Impact of AI on Education*), " +
	"and I'll return a polished research report.\n\n" +
	"---\n" +
	"⚡ *Powered by deepresearch*"

// Message is one chat message.
type Message struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Sender delivers messages to the user.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Responder produces the reply to one user message. Implementations must not
// carry conversation memory between calls.
type Responder interface {
	Respond(ctx context.Context, sessionID, input string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, sessionID, input string) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, sessionID, input string) (string, error) {
	return f(ctx, sessionID, input)
}

// Recorder is a Sender collecting every message it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send implements Sender.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
