package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deepresearch/chat"
)

func newTestModel(responder chat.ResponderFunc) Model {
	return New(context.Background(), chat.NewShim(responder), "s1", func(o *Options) {
		o.MarkdownStyle = "notty"
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModel_WelcomeOnStart(t *testing.T) {
	m := newTestModel(func(context.Context, string, string) (string, error) { return "", nil })
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	assert.True(t, m.Waiting())

	m, _ = update(t, m, m.startChat()())

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, chat.WelcomeMessage, entries[0].Content)
	assert.False(t, m.Waiting())
	assert.Contains(t, m.View(), "Deep Research Assistant")
}

func TestModel_EnterSendsMessage(t *testing.T) {
	var got string
	m := newTestModel(func(_ context.Context, _ string, input string) (string, error) {
		got = input
		return "# Report", nil
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m, _ = update(t, m, m.startChat()())

	m.input.SetValue("Impact of AI on Education")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.Waiting())
	assert.Empty(t, m.input.Value())

	m, _ = update(t, m, m.send("Impact of AI on Education")())
	assert.Equal(t, "Impact of AI on Education", got)

	entries := m.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[1].User)
	assert.Equal(t, "# Report", entries[2].Content)
	assert.False(t, m.Waiting())
}

func TestModel_EnterIgnoredWhileWaitingOrEmpty(t *testing.T) {
	m := newTestModel(func(context.Context, string, string) (string, error) { return "x", nil })
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	m.input.SetValue("topic")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "still waiting for the welcome message")

	m, _ = update(t, m, m.startChat()())
	m.input.SetValue("   ")
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_ErrorIsDisplayed(t *testing.T) {
	m := newTestModel(func(context.Context, string, string) (string, error) {
		return "", errors.New("remote call failed")
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	m, _ = update(t, m, m.send("x")())

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Err)
	assert.Equal(t, "remote call failed", entries[0].Content)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(func(context.Context, string, string) (string, error) { return "", nil })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "Goodbye")
}
