package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamesage/internal/answer"
	"gamesage/internal/assistant"
	"gamesage/internal/observability"
)

type fakeAsker struct {
	turn      assistant.Turn
	err       error
	sessionID string
	history   []string
}

func (f *fakeAsker) Ask(ctx context.Context, query string, history []string) (assistant.Turn, error) {
	f.sessionID = observability.SessionIDFromContext(ctx)
	f.history = history
	turn := f.turn
	turn.Query = query
	return turn, f.err
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func lastTexts(m Model, n int) []string {
	var out []string
	for _, msg := range m.messages[len(m.messages)-n:] {
		out = append(out, msg.text)
	}
	return out
}

func TestAskRoundTrip(t *testing.T) {
	asker := &fakeAsker{turn: assistant.Turn{Answer: "**Info:** Hades (Released on 17 Sep 2020).", Topic: answer.TopicMetadata}}
	history := assistant.NewHistory(0)
	m := NewModel(asker, history, nil, nil)

	m = typeText(t, m, "when was Hades released")
	assert.Equal(t, "when was Hades released", m.input)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Empty(t, m.input)
	assert.Equal(t, kindLoading, m.messages[len(m.messages)-1].kind)
	assert.Equal(t, []string{"User: when was Hades released"}, history.Entries())

	msg := askCmd(asker, m.SessionID(), "when was Hades released", nil)()
	m, _ = update(t, m, msg)

	assert.False(t, m.loading)
	assert.Equal(t, m.SessionID(), asker.sessionID)
	assert.Equal(t, []string{"**Info:** Hades (Released on 17 Sep 2020).", ""}, lastTexts(m, 2))
	assert.Equal(t, []string{
		"User: when was Hades released",
		"Assistant: **Info:** Hades (Released on 17 Sep 2020).",
	}, history.Entries())
}

func TestAskError(t *testing.T) {
	history := assistant.NewHistory(0)
	m := NewModel(&fakeAsker{}, history, nil, nil)

	m = typeText(t, m, "what is the story")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, answerMsg{query: "what is the story", err: errors.New("boom")})

	assert.Equal(t, kindError, m.messages[len(m.messages)-2].kind)
	assert.Equal(t, "Error: boom", m.messages[len(m.messages)-2].text)
	assert.Equal(t, []string{"User: what is the story", "Error: boom"}, history.Entries())
}

func TestEmptyAnswer(t *testing.T) {
	m := NewModel(&fakeAsker{}, assistant.NewHistory(0), nil, nil)
	m = typeText(t, m, "hello")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, answerMsg{query: "hello"})

	assert.Equal(t, []string{"I could not find anything to say about that.", ""}, lastTexts(m, 2))
}

func TestHistoryPassedToAsker(t *testing.T) {
	asker := &fakeAsker{}
	history := assistant.NewHistory(0)
	history.AddUser("tell me about Hades")
	history.AddAssistant("A roguelike.")

	msg := askCmd(asker, "s1", "how long is it", history.Entries())()
	_, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"User: tell me about Hades", "Assistant: A roguelike."}, asker.history)
	assert.Equal(t, "s1", asker.sessionID)
}

func TestInputIgnoredWhileLoading(t *testing.T) {
	m := NewModel(&fakeAsker{}, assistant.NewHistory(0), nil, nil)
	m = typeText(t, m, "first")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = typeText(t, m, "second")
	assert.Empty(t, m.input)

	m.input = "second"
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestStaleAnswerIgnored(t *testing.T) {
	m := NewModel(&fakeAsker{}, assistant.NewHistory(0), nil, nil)
	before := len(m.messages)
	m, _ = update(t, m, answerMsg{turn: assistant.Turn{Answer: "late"}})
	assert.Len(t, m.messages, before)
}

func TestBackspace(t *testing.T) {
	m := NewModel(&fakeAsker{}, assistant.NewHistory(0), nil, nil)
	m = typeText(t, m, "Pokémon")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "Pokémo", m.input)
}

func TestCommands(t *testing.T) {
	history := assistant.NewHistory(0)
	history.AddUser("old question")
	m := NewModel(&fakeAsker{}, history, nil, nil)

	m = typeText(t, m, "/help")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, lastTexts(m, 4), "/help - show this help")

	m = typeText(t, m, "/clear")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, history.Entries())
	assert.Equal(t, []string{"Conversation cleared.", ""}, lastTexts(m, 2))

	m = typeText(t, m, "/nope")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"Unknown command. Try /help", ""}, lastTexts(m, 2))
}

func TestQuit(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		m := NewModel(&fakeAsker{}, assistant.NewHistory(0), nil, nil)
		_, cmd := update(t, m, tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestAnimationStopsWhenIdle(t *testing.T) {
	m := NewModel(&fakeAsker{}, assistant.NewHistory(0), nil, nil)
	_, cmd := update(t, m, animationTickMsg{})
	assert.Nil(t, cmd)

	m.loading = true
	m, cmd = update(t, m, animationTickMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.animationFrame)
}

func TestView(t *testing.T) {
	m := NewModel(&fakeAsker{}, assistant.NewHistory(0), nil, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeText(t, m, "is Hades good")

	view := m.View()
	assert.Contains(t, view, "is Hades good│")
	assert.Contains(t, view, "Ask me about any video game.")
}

func TestWrapAndIndent(t *testing.T) {
	assert.Equal(t, " short", wrapAndIndent("short", 20, " "))
	got := wrapAndIndent("one two three four five", 10, " ")
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 10)
		assert.True(t, strings.HasPrefix(line, " "))
	}
}

func TestLoadingAnimationCycles(t *testing.T) {
	assert.Equal(t, getLoadingAnimation(0), getLoadingAnimation(6))
	assert.NotEqual(t, getLoadingAnimation(0), getLoadingAnimation(1))
}
