package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case answerMsg:
		return m.handleAnswer(msg)
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case animationTickMsg:
		return m.handleAnimation(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	if !m.loading {
		return m, nil
	}
	m.loading = false
	m.messages = m.messages[:len(m.messages)-1]

	switch {
	case msg.err != nil:
		m.messages = append(m.messages, message{kindError, "Error: " + msg.err.Error()})
		m.history.AddError(msg.err)
	case strings.TrimSpace(msg.turn.Answer) == "":
		m.messages = append(m.messages, message{kindText, "I could not find anything to say about that."})
	default:
		m.messages = append(m.messages, message{kindAnswer, m.render(msg.turn.Answer)})
		m.history.AddAssistant(msg.turn.Answer)
		if m.debug.Enabled() {
			m.messages = append(m.messages, message{kindDebug, debugLine(msg)})
		}
	}
	m.messages = append(m.messages, message{kind: kindText})
	return m, nil
}

func debugLine(msg answerMsg) string {
	line := "[DEBUG] topic=" + msg.turn.Topic.String()
	if msg.turn.Game != "" {
		line += " game=" + msg.turn.Game
	}
	if msg.turn.Fallback {
		line += " fallback"
	}
	return line
}

func (m Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	return m, nil
}

func (m Model) handleAnimation(msg animationTickMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		m.animationFrame++
		return m, animationTimer()
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		userInput := strings.TrimSpace(m.input)
		if userInput == "" || m.loading {
			return m, nil
		}
		m.input = ""

		if strings.HasPrefix(userInput, "/") {
			return m.handleCommand(userInput)
		}

		history := m.history.Entries()
		m.history.AddUser(userInput)
		m.messages = append(m.messages, message{kindUser, "> " + userInput}, message{kind: kindText})
		m.loading = true
		m.animationFrame = 0
		m.messages = append(m.messages, message{kind: kindLoading})

		return m, tea.Batch(askCmd(m.asker, m.sessionID, userInput, history), animationTimer())

	case "backspace":
		if len(m.input) > 0 && !m.loading {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil

	default:
		if msg.Type == tea.KeyRunes && !m.loading {
			m.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace && !m.loading {
			m.input += " "
		}
		return m, nil
	}
}

func (m Model) handleCommand(cmd string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, message{kindUser, "> " + cmd})
	switch strings.ToLower(cmd) {
	case "/help":
		m.messages = append(m.messages,
			message{kindText, "/clear - forget the conversation so far"},
			message{kindText, "/help - show this help"},
			message{kindText, "Esc or Ctrl+C quits."},
		)
	case "/clear":
		m.history.Reset()
		m.messages = append(m.messages, message{kindText, "Conversation cleared."})
	default:
		m.messages = append(m.messages, message{kindText, "Unknown command. Try /help"})
	}
	m.messages = append(m.messages, message{kind: kindText})
	return m, nil
}
