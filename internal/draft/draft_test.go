package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamesage/internal/answer"
	"gamesage/internal/llm"
)

type fakeCompleter struct {
	json       string
	schema     string
	err        error
	lastSchema llm.JSONSchemaCompletionRequest
	lastJSON   llm.JSONCompletionRequest
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, req llm.JSONCompletionRequest) (string, error) {
	f.lastJSON = req
	return f.json, f.err
}

func (f *fakeCompleter) CompleteJSONSchema(_ context.Context, req llm.JSONSchemaCompletionRequest) (string, error) {
	f.lastSchema = req
	return f.schema, f.err
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want answer.Record
	}{
		{
			name: "bare json",
			raw:  `{"summary":"A roguelike.","topic":"gameplay"}`,
			want: answer.Record{Summary: "A roguelike.", Topic: answer.TopicGameplay},
		},
		{
			name: "prose around json",
			raw:  "Sure! Here you go: {\"lore\": \"Old gods.\"} Hope that helps.",
			want: answer.Record{Lore: "Old gods."},
		},
		{
			name: "fenced block",
			raw:  "Answer:\n```json\n{\"game_tips\": \"Dash often.\"}\n```\nThen {broken",
			want: answer.Record{GameTips: "Dash often."},
		},
		{
			name: "plain fence",
			raw:  "```\n{\"warning\": \"w\", \"spoilers\": \"s\"}\n```",
			want: answer.Record{Warning: "w", Spoilers: "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "Hades is a great game.", "{not json}", `["a"]`, "null", " null "} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrMalformedDraft, "raw %q", raw)
	}
}

func TestDraft(t *testing.T) {
	fake := &fakeCompleter{schema: `{"no_spoilers":"Zagreus tries to escape.","topic":"plot","debug_trace":"x"}`}
	d := NewDrafter(fake, nil)

	rec, raw, err := d.Draft(context.Background(), Request{
		Query:   "What is the story of Hades?",
		History: []string{"User: hi", "Assistant: hello"},
		Topic:   answer.TopicPlot,
		Facts: Facts{
			Game:        "Hades",
			Section:     "plot",
			SectionText: "Zagreus, son of Hades, tries to escape.",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Zagreus tries to escape.", rec.NoSpoilers)
	assert.Equal(t, answer.TopicPlot, rec.Topic)
	assert.Contains(t, rec.Extra, "debug_trace")
	assert.Equal(t, fake.schema, raw)

	assert.Equal(t, "game_answer", fake.lastSchema.SchemaName)
	assert.Contains(t, fake.lastSchema.UserPrompt, "User: hi")
	assert.Contains(t, fake.lastSchema.UserPrompt, "Game: Hades")
	assert.Contains(t, fake.lastSchema.UserPrompt, "Wikipedia plot section:\nZagreus, son of Hades, tries to escape.")
	assert.Contains(t, fake.lastSchema.UserPrompt, "Likely topic: plot")
	assert.NotContains(t, fake.lastSchema.UserPrompt, "asking for spoilers")
	assert.Contains(t, fake.lastSchema.SystemPrompt, "Contains major spoilers")
}

func TestDraftMalformedKeepsRawText(t *testing.T) {
	fake := &fakeCompleter{schema: "Hades is a roguelike by Supergiant."}
	d := NewDrafter(fake, nil)

	_, raw, err := d.Draft(context.Background(), Request{Query: "what is hades"})
	assert.ErrorIs(t, err, ErrMalformedDraft)
	assert.Equal(t, "Hades is a roguelike by Supergiant.", raw)
}

func TestDraftCompletionError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}
	d := NewDrafter(fake, nil)

	_, _, err := d.Draft(context.Background(), Request{Query: "x"})
	assert.ErrorContains(t, err, "failed to draft answer")
	assert.NotErrorIs(t, err, ErrMalformedDraft)
}

func TestResolveGame(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"game key", `{"game": " Elden Ring "}`, "Elden Ring"},
		{"title key", `{"title": "Hades"}`, "Hades"},
		{"none", `{"game": ""}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{json: tt.raw}
			got, err := NewDrafter(fake, nil).ResolveGame(context.Background(), "how long is it", []string{"User: tell me about Hades"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, fake.lastJSON.UserPrompt, "User: tell me about Hades")
		})
	}
}

func TestRecordSchemaIsStrict(t *testing.T) {
	schema := recordSchema()

	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, answer.SchemaFields, schema["required"])

	props := schema["properties"].(map[string]interface{})
	assert.Len(t, props, len(answer.SchemaFields))
	assert.Equal(t, "boolean", props["can_be_spoiler"].(map[string]interface{})["type"])

	enum := props["topic"].(map[string]interface{})["enum"].([]string)
	assert.Contains(t, enum, "")
	assert.Contains(t, enum, "dlc")
	assert.NotContains(t, enum, "summary")
}

func TestUserPromptMarksSpoilerRequests(t *testing.T) {
	prompt := buildUserPrompt(Request{
		Query:         "Spoil the ending",
		WantsSpoilers: true,
		Facts:         Facts{MetadataLine: "Hades (17 Sep 2020).", LengthLine: "Main: 22h"},
	})

	assert.Contains(t, prompt, "The user is asking for spoilers.")
	assert.Contains(t, prompt, "metadata_line: Hades (17 Sep 2020).")
	assert.Contains(t, prompt, "length_line: Main: 22h")
	assert.NotContains(t, prompt, "Likely topic")
}
