package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"

	"github.com/lumenworks/sage/internal/artifact"
	"github.com/lumenworks/sage/internal/convo"
	"github.com/lumenworks/sage/internal/persona"
)

// chatState tracks which screen the chat UI is on.
type chatState int

const (
	statePicker chatState = iota
	stateChat
)

var (
	chatTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	personaNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#04B575"))

	userNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	pickerCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7D56F4")).
				Bold(true)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C")).
			Italic(true)

	videoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BE9FD"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))
)

// chatModel is the Bubble Tea model for the two-screen chat UI: persona
// selection and the conversation itself.
type chatModel struct {
	ctx      context.Context
	orc      *convo.Orchestrator
	store    *artifact.Store
	personas []persona.Persona

	state   chatState
	cursor  int
	input   string
	turns   []convo.Turn
	current persona.Persona
	status  string
	width   int
	busy    bool
}

// convoEventMsg wraps orchestrator events for the Bubble Tea loop.
type convoEventMsg convo.Event

// askFinishedMsg reports the synchronous part of an Ask completing.
type askFinishedMsg struct{ err error }

// runChatUI starts the terminal UI. When initial is non-nil the picker
// is skipped and the chat opens on that persona.
func runChatUI(ctx context.Context, orc *convo.Orchestrator, store *artifact.Store, initial *persona.Persona) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("chat needs an interactive terminal; use 'sage ask' for scripted use")
	}

	m := chatModel{ctx: ctx, orc: orc, store: store, personas: orc.Personas(), state: statePicker}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil {
		m.width = w
	}

	p := tea.NewProgram(m, tea.WithContext(ctx))
	orc.Subscribe(func(e convo.Event) {
		p.Send(convoEventMsg(e))
	})

	if initial != nil {
		ip := *initial
		go func() { _ = orc.SelectPersona(ctx, ip, "") }()
	}

	_, err := p.Run()
	return err
}

func (m chatModel) Init() tea.Cmd { return nil }

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case convoEventMsg:
		e := convo.Event(msg)
		m.turns = m.orc.Snapshot()
		switch e.Kind {
		case convo.EventReset:
			if e.Persona.ID != "" {
				m.current = e.Persona
				m.state = stateChat
				m.status = ""
			}
		case convo.EventRouting:
			m.status = e.Message
		}
		return m, nil

	case askFinishedMsg:
		m.busy = false
		m.turns = m.orc.Snapshot()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.state == stateChat {
			releaseConversationVideos(m.store, m.turns)
			m.orc.Reset()
			m.state = statePicker
			m.turns = nil
			m.input = ""
			m.status = ""
			return m, nil
		}
		return m, tea.Quit
	case "up":
		if m.state == statePicker && m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.state == statePicker && m.cursor < len(m.personas)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.handleEnter()
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		case tea.KeySpace:
			m.input += " "
		}
		return m, nil
	}
}

func (m chatModel) handleEnter() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input)

	if m.state == statePicker {
		if text != "" {
			// A typed question routes to the best persona.
			m.input = ""
			m.status = "Finding the right persona..."
			question := text
			return m, func() tea.Msg {
				_, _, err := m.orc.FindBestPersona(m.ctx, question)
				return askFinishedMsg{err: err}
			}
		}
		p := m.personas[m.cursor]
		return m, func() tea.Msg {
			return askFinishedMsg{err: m.orc.SelectPersona(m.ctx, p, "")}
		}
	}

	if text == "" || m.busy {
		return m, nil
	}
	m.input = ""
	m.busy = true
	return m, func() tea.Msg {
		return askFinishedMsg{err: m.orc.Ask(m.ctx, text)}
	}
}

func (m chatModel) View() string {
	if m.state == statePicker {
		return m.viewPicker()
	}
	return m.viewChat()
}

func (m chatModel) viewPicker() string {
	var b strings.Builder
	b.WriteString(chatTitleStyle.Render("Who would you like to talk to?"))
	b.WriteString("\n")
	for i, p := range m.personas {
		cursor := "  "
		name := p.Name
		if i == m.cursor {
			cursor = pickerCursorStyle.Render("> ")
			name = personaNameStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%-9s %s\n", cursor, name, summaryStyle.Render(p.Summary))
	}
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + promptStyle.Render("? "+m.input+"▌") + "\n")
	b.WriteString(helpStyle.Render("↑/↓ choose · enter select · or type a question to be routed · esc quit"))
	return b.String()
}

func (m chatModel) viewChat() string {
	var b strings.Builder
	b.WriteString(chatTitleStyle.Render("Talking with " + m.current.Name))
	b.WriteString("\n")

	for _, t := range m.turns {
		switch t.Sender {
		case convo.SenderUser:
			b.WriteString(userNameStyle.Render("You: "))
			b.WriteString(t.Text + "\n\n")
		case convo.SenderAgent:
			b.WriteString(personaNameStyle.Render(m.current.Name + ": "))
			if t.Pending {
				b.WriteString(statusStyle.Render("thinking...") + "\n\n")
				continue
			}
			b.WriteString(t.Text + "\n")
			b.WriteString(videoLine(t))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	b.WriteString(promptStyle.Render("> " + m.input + "▌"))
	b.WriteString("\n" + helpStyle.Render("enter send · esc back to personas · ctrl+c quit"))
	return b.String()
}

// releaseConversationVideos deletes the materialized files of a
// conversation being left. The artifact lifetime follows display: once
// the turns are gone from screen the files would only accumulate.
func releaseConversationVideos(store *artifact.Store, turns []convo.Turn) {
	if store == nil {
		return
	}
	for _, t := range turns {
		if t.VideoStatus == convo.VideoDone && t.VideoHandle != "" {
			_ = store.Release(t.VideoHandle)
		}
	}
}

func videoLine(t convo.Turn) string {
	switch t.VideoStatus {
	case convo.VideoGenerating:
		return videoStyle.Render("  ▶ generating video...") + "\n"
	case convo.VideoDone:
		return videoStyle.Render("  ▶ video: "+t.VideoHandle) + "\n"
	case convo.VideoError:
		return errStyle.Render("  ▶ video failed: "+t.VideoErr) + "\n"
	default:
		return ""
	}
}
