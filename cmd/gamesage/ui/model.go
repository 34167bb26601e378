// Package ui is the terminal chat interface.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"gamesage/internal/assistant"
	"gamesage/internal/debug"
)

type Asker interface {
	Ask(ctx context.Context, query string, history []string) (assistant.Turn, error)
}

type messageKind int

const (
	kindText messageKind = iota
	kindUser
	kindAnswer
	kindDebug
	kindError
	kindLoading
)

type message struct {
	kind messageKind
	text string
}

type Model struct {
	messages       []message
	input          string
	width          int
	height         int
	loading        bool
	animationFrame int
	asker          Asker
	history        *assistant.History
	renderer       *glamour.TermRenderer
	debug          *debug.Logger
	sessionID      string
}

// NewModel builds the chat model. renderer may be nil, in which case
// answers are shown as plain markdown.
func NewModel(asker Asker, history *assistant.History, renderer *glamour.TermRenderer, debug *debug.Logger) Model {
	m := Model{
		asker:     asker,
		history:   history,
		renderer:  renderer,
		debug:     debug,
		sessionID: uuid.NewString(),
	}
	m.messages = append(m.messages, message{kindText, "Ask me about any video game. Plot answers stay spoiler-free unless you ask for spoilers."})
	if debug.Enabled() {
		m.messages = append(m.messages, message{kindDebug, "[DEBUG] session " + m.sessionID + ", commands: /help, /clear"})
	}
	m.messages = append(m.messages, message{kind: kindText})
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) SessionID() string {
	return m.sessionID
}

type animationTickMsg struct{}

type answerMsg struct {
	query string
	turn  assistant.Turn
	err   error
}
