package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gamesage/internal/answer"
	"gamesage/internal/answer/policy"
	"gamesage/internal/assistant"
	"gamesage/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAsker struct {
	turn assistant.Turn
	err  error

	query     string
	sessionID string
}

func (f *fakeAsker) Ask(ctx context.Context, query string, _ []string) (assistant.Turn, error) {
	f.query = query
	f.sessionID = observability.SessionIDFromContext(ctx)
	return f.turn, f.err
}

// connect serves s over an in-memory transport and returns a connected
// client. Both are stopped when the test ends.
func connect(t *testing.T, s *Server) *Client {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.serveWithTransport(ctx, serverTransport)
	}()

	c := NewClient("test", nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), time.Second)
	defer connectCancel()
	require.NoError(t, c.Connect(connectCtx, clientTransport))

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		select {
		case err := <-serveErr:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after cancel")
		}
	})
	return c
}

func TestEnforceTool(t *testing.T) {
	c := connect(t, NewServer(nil, policy.New(answer.DefaultTerms()), "test", nil))

	out, err := c.Enforce(context.Background(), EnforceInput{
		Draft: map[string]any{"no_spoilers": "The hero kills the king.", "topic": "plot"},
		Query: "what is the story",
	})
	require.NoError(t, err)

	assert.Equal(t, "**Contains major spoilers**\n\n**Full Plot:**\nThe hero kills the king.", out.Response)
	assert.Equal(t, "plot", out.Topic)
	assert.Equal(t, policy.MajorSpoilerWarning, out.Warning)
	assert.True(t, out.CanBeSpoiler)
}

func TestEnforceToolLegacyKeys(t *testing.T) {
	c := connect(t, NewServer(nil, policy.New(answer.DefaultTerms()), "test", nil))

	out, err := c.Enforce(context.Background(), EnforceInput{
		Draft: map[string]any{"rawg_data": "Released: 2020", "topic": "metadata"},
		Query: "when did it come out",
	})
	require.NoError(t, err)
	assert.Equal(t, "Released: 2020", out.Response)
}

func TestAskTool(t *testing.T) {
	asker := &fakeAsker{turn: assistant.Turn{ID: 9, Topic: answer.TopicTips, Answer: "**Tips:**\nDash often."}}
	c := connect(t, NewServer(asker, policy.New(answer.DefaultTerms()), "test", nil))

	out, err := c.Ask(context.Background(), AskInput{Query: "tips for Hades", SessionID: "s-1"})
	require.NoError(t, err)

	assert.Equal(t, "**Tips:**\nDash often.", out.Response)
	assert.Equal(t, "tips", out.Topic)
	assert.Equal(t, int64(9), out.TurnID)
	assert.Equal(t, "tips for Hades", asker.query)
	assert.Equal(t, "s-1", asker.sessionID)
}

func TestAskToolError(t *testing.T) {
	asker := &fakeAsker{err: errors.New("model unavailable")}
	c := connect(t, NewServer(asker, policy.New(answer.DefaultTerms()), "test", nil))

	_, err := c.Ask(context.Background(), AskInput{Query: "tips for Hades"})
	assert.ErrorContains(t, err, "model unavailable")
}

func TestListTools(t *testing.T) {
	c := connect(t, NewServer(&fakeAsker{}, policy.New(answer.DefaultTerms()), "test", nil))

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tools, "- "+AskToolName+":")
	assert.Contains(t, tools, "- "+EnforceToolName+":")
}

func TestAskToolHiddenWithoutAssistant(t *testing.T) {
	c := connect(t, NewServer(nil, policy.New(answer.DefaultTerms()), "test", nil))

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, tools, AskToolName)
}

func TestClientNotConnected(t *testing.T) {
	_, err := NewClient("test", nil).Ask(context.Background(), AskInput{Query: "q"})
	assert.ErrorContains(t, err, "not connected")
}
