// Package tui is a terminal chat front-end built on bubbletea. Assistant
// messages are rendered as markdown with glamour.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/deepresearch/chat"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	authorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	errorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF4444")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Entry is one line of the rendered conversation.
type Entry struct {
	Author  string
	Content string
	User    bool
	Err     bool
}

// Options configures the terminal model.
type Options struct {
	// Title shown above the conversation.
	Title string
	// MarkdownStyle is a glamour standard style ("dark", "light", "notty");
	// empty selects a style from the terminal background.
	MarkdownStyle string
}

// replyMsg carries messages produced by a chat hook.
type replyMsg struct{ messages []chat.Message }

// errMsg carries a failed chat hook.
type errMsg struct{ err error }

// Model is the bubbletea model of a single chat session.
type Model struct {
	ctx       context.Context
	shim      *chat.Shim
	sessionID string
	opts      Options

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	entries  []Entry
	waiting  bool
	ready    bool
	quitting bool
}

// New creates the model for sessionID. ctx bounds every chat hook call.
func New(ctx context.Context, shim *chat.Shim, sessionID string, optFns ...func(o *Options)) Model {
	opts := Options{Title: "📚 Deep Research Assistant"}
	for _, fn := range optFns {
		fn(&opts)
	}

	ti := textinput.New()
	ti.Placeholder = "Type your research topic..."
	ti.Prompt = "❯ "
	ti.CharLimit = 2000
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))

	return Model{
		ctx:       ctx,
		shim:      shim,
		sessionID: sessionID,
		opts:      opts,
		input:     ti,
		spinner:   s,
		waiting:   true,
	}
}

// Entries returns the conversation so far.
func (m Model) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Waiting reports whether a chat hook is in flight.
func (m Model) Waiting() bool { return m.waiting }

// Init starts the chat session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.startChat())
}

func (m Model) startChat() tea.Cmd {
	return func() tea.Msg {
		rec := &chat.Recorder{}
		if err := m.shim.OnChatStart(m.ctx, m.sessionID, rec); err != nil {
			return errMsg{err: err}
		}
		return replyMsg{messages: rec.Messages()}
	}
}

func (m Model) send(text string) tea.Cmd {
	return func() tea.Msg {
		rec := &chat.Recorder{}
		if err := m.shim.OnMessage(m.ctx, m.sessionID, chat.Message{Author: "user", Content: text}, rec); err != nil {
			return errMsg{err: err}
		}
		return replyMsg{messages: rec.Messages()}
	}
}

// Update handles incoming messages and updates the model state accordingly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - 5
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.input.Width = msg.Width - 4
		m.renderer = m.newRenderer(msg.Width)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.entries = append(m.entries, Entry{Author: "You", Content: text, User: true})
			m.input.Reset()
			m.waiting = true
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.send(text))
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case replyMsg:
		for _, cm := range msg.messages {
			m.entries = append(m.entries, Entry{Author: cm.Author, Content: cm.Content})
		}
		m.waiting = false
		m.refresh()

	case errMsg:
		m.entries = append(m.entries, Entry{Author: "Error", Content: msg.err.Error(), Err: true})
		m.waiting = false
		m.refresh()

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the current state of the model as a string for display.
func (m Model) View() string {
	if m.quitting {
		return "\nGoodbye! 👋\n"
	}

	if !m.ready {
		return "\nInitializing...\n"
	}

	status := ""
	if m.waiting {
		status = fmt.Sprintf("%s Researching...", m.spinner.View())
	}

	footer := helpStyle.Render("enter: send • pgup/pgdn: scroll • esc/ctrl+c: quit")

	return titleStyle.Render(m.opts.Title) + "\n" +
		m.viewport.View() + "\n" +
		status + "\n" +
		m.input.View() + "\n" +
		footer
}

func (m Model) newRenderer(width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}

	style := glamour.WithAutoStyle()
	if m.opts.MarkdownStyle != "" {
		style = glamour.WithStandardStyle(m.opts.MarkdownStyle)
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		return nil
	}

	return r
}

// refresh re-renders the conversation into the viewport and scrolls to the end.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoBottom()
}

func (m Model) renderContent() string {
	var b strings.Builder

	for _, e := range m.entries {
		switch {
		case e.User:
			b.WriteString(userStyle.Render(e.Author+":") + " " + e.Content + "\n\n")
		case e.Err:
			b.WriteString(errorStyle.Render("Error: "+e.Content) + "\n\n")
		default:
			b.WriteString(authorStyle.Render(e.Author) + "\n")
			b.WriteString(m.renderMarkdown(e.Content) + "\n\n")
		}
	}

	return b.String()
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(out, "\n")
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, shim *chat.Shim, sessionID string, optFns ...func(o *Options)) error {
	p := tea.NewProgram(New(ctx, shim, sessionID, optFns...), tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()

	return err
}
