package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	inputHeight := 3
	chatHeight := m.height - inputHeight
	rightWidth := m.width

	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("7"))

	userStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	debugStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9"))

	loadingStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("6"))

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Width(m.width - 4)

	chatPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(chatHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1)

	contentWidth := rightWidth - 4

	var lines []string
	for _, msg := range m.messages {
		var rendered string
		switch msg.kind {
		case kindUser:
			rendered = userStyle.Render(wrapAndIndent(msg.text, contentWidth, " "))
		case kindDebug:
			rendered = debugStyle.Render(wrapAndIndent(msg.text, contentWidth, " "))
		case kindError:
			rendered = errorStyle.Render(wrapAndIndent(msg.text, contentWidth, " "))
		case kindLoading:
			rendered = loadingStyle.Render(wrapAndIndent(getLoadingAnimation(m.animationFrame), contentWidth, " "))
		case kindAnswer:
			rendered = msg.text
		default:
			if msg.text == "" {
				rendered = ""
			} else {
				rendered = messageStyle.Render(wrapAndIndent(msg.text, contentWidth, " "))
			}
		}
		lines = append(lines, strings.Split(rendered, "\n")...)
	}

	maxLines := chatHeight - 2
	if maxLines < 1 {
		maxLines = 1
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	var chatContent strings.Builder
	for i := 0; i < maxLines-len(lines); i++ {
		chatContent.WriteString("\n")
	}
	chatContent.WriteString(strings.Join(lines, "\n"))

	chat := chatPanel.Render(chatContent.String())
	input := inputStyle.Render(m.input + "│")

	return chat + "\n" + input
}

func wrapAndIndent(text string, width int, indent string) string {
	if len(text) <= width {
		return indent + text
	}

	var result strings.Builder
	words := strings.Fields(text)
	if len(words) == 0 {
		return indent + text
	}

	currentLine := indent + words[0]

	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			result.WriteString(currentLine + "\n")
			currentLine = indent + word
		}
	}

	result.WriteString(currentLine)
	return result.String()
}

func getLoadingAnimation(frame int) string {
	arc := []string{"◜", "◠", "◝", "◞", "◡", "◟"}
	return arc[frame%len(arc)]
}
