package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/deepresearch/core"
)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It answers with a canned completion keyed by the text of the last content,
// or echoes the input when no completion is registered.
type MockModel struct {
	info      Info
	mu        sync.RWMutex
	responses map[string]string
	err       error
	calls     []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetError makes every subsequent Generate call fail with err wrapped in ErrRemoteCall.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of the requests received so far.
func (m *MockModel) Calls() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Request(nil), m.calls...)
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls = append(m.calls, req)
	failure := m.err
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if failure != nil {
			errCh <- fmt.Errorf("%w: %w", ErrRemoteCall, failure)
			return
		}

		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}

		inputText := req.Contents[len(req.Contents)-1].Text()

		m.mu.RLock()
		full := m.responses[inputText]
		m.mu.RUnlock()

		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}

		if req.Stream {
			for _, r := range full {
				if !SendResponse(ctx, respCh, Response{Partial: true, Content: core.NewTextContent("assistant", string(r))}) {
					errCh <- ctx.Err()
					return
				}
			}
		}

		respCh <- Response{
			Partial:      false,
			Content:      core.NewTextContent("assistant", full),
			FinishReason: "stop",
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// GenerateFunc adapts a plain function into a non-streaming Model. It is
// handy for scripting multi-turn tool calling conversations in tests.
type GenerateFunc func(ctx context.Context, req Request) (Response, error)

// Generate implements Model.
func (f GenerateFunc) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		resp, err := f(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	return respCh, errCh
}

// Info implements Model.
func (f GenerateFunc) Info() Info {
	return Info{Name: "func", Provider: "mock", SupportsTools: true}
}
