package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gamesage/internal/observability"
)

func animationTimer() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

func askCmd(asker Asker, sessionID, query string, history []string) tea.Cmd {
	return func() tea.Msg {
		ctx := observability.WithSessionID(context.Background(), sessionID)
		turn, err := asker.Ask(ctx, query, history)
		return answerMsg{query: query, turn: turn, err: err}
	}
}

// render formats an answer for the terminal, falling back to the raw
// markdown when rendering fails.
func (m Model) render(answer string) string {
	if m.renderer == nil {
		return answer
	}
	out, err := m.renderer.Render(answer)
	if err != nil {
		m.debug.Warnf("render failed: %v", err)
		return answer
	}
	return strings.TrimRight(out, "\n")
}
