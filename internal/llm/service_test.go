package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "test-model",
	"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": %q}}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`

type capturedRequest struct {
	Model          string          `json:"model"`
	ResponseFormat json.RawMessage `json:"response_format"`
	Messages       []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestService(t *testing.T, content string, captured *capturedRequest) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			require.NoError(t, json.Unmarshal(body, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, chatResponse, content)
	}))
	t.Cleanup(srv.Close)

	return NewService(Options{APIKey: "test", BaseURL: srv.URL + "/", Model: "test-model"}, nil)
}

func TestCompleteText(t *testing.T) {
	var req capturedRequest
	s := newTestService(t, "Hades is a roguelike.", &req)

	got, err := s.CompleteText(context.Background(), TextCompletionRequest{
		SystemPrompt: "You answer game questions.",
		UserPrompt:   "What is Hades?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hades is a roguelike.", got)
	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "What is Hades?", req.Messages[1].Content)
	assert.Empty(t, req.ResponseFormat)
}

func TestCompleteJSONSchema(t *testing.T) {
	var req capturedRequest
	s := newTestService(t, `{"game":"Hades"}`, &req)

	got, err := s.CompleteJSONSchema(context.Background(), JSONSchemaCompletionRequest{
		SystemPrompt: "Extract the game.",
		UserPrompt:   "Is Hades good?",
		Model:        "override-model",
		SchemaName:   "game",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"game": map[string]any{"type": "string"}},
		},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"game":"Hades"}`, got)
	assert.Equal(t, "override-model", req.Model)

	var format struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string `json:"name"`
			Strict bool   `json:"strict"`
		} `json:"json_schema"`
	}
	require.NoError(t, json.Unmarshal(req.ResponseFormat, &format))
	assert.Equal(t, "json_schema", format.Type)
	assert.Equal(t, "game", format.JSONSchema.Name)
	assert.True(t, format.JSONSchema.Strict)
}

func TestCompleteJSON(t *testing.T) {
	var req capturedRequest
	s := newTestService(t, `{}`, &req)

	_, err := s.CompleteJSON(context.Background(), JSONCompletionRequest{UserPrompt: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"json_object"}`, string(req.ResponseFormat))
}

func TestCompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	s := NewService(Options{APIKey: "test", BaseURL: srv.URL + "/"}, nil)
	_, err := s.CompleteText(context.Background(), TextCompletionRequest{UserPrompt: "x"})
	assert.ErrorContains(t, err, "text completion failed")
}

func TestGameContextMerges(t *testing.T) {
	ctx := WithGameContext(context.Background(), map[string]interface{}{"title": "Hades"})
	ctx = WithGameContext(ctx, map[string]interface{}{"topic": "plot"})

	assert.Equal(t, map[string]interface{}{"title": "Hades", "topic": "plot"}, getGameContext(ctx))
	assert.Equal(t, "draft", getOperationType(WithOperationType(ctx, "draft")))
}
