package mcp

import (
	"encoding/json"
	"fmt"

	"gamesage/internal/answer"
	"gamesage/internal/assistant"
)

type AskInput struct {
	Query     string   `json:"query" jsonschema:"the question about a video game"`
	History   []string `json:"history,omitempty" jsonschema:"earlier exchanges, oldest first"`
	SessionID string   `json:"session_id,omitempty" jsonschema:"conversation id used for tracing"`
}

type AskOutput struct {
	Response string `json:"response"`
	Topic    string `json:"topic"`
	TurnID   int64  `json:"turn_id,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

type EnforceInput struct {
	Draft map[string]any `json:"draft" jsonschema:"drafted answer record with summary, spoilers, no_spoilers and related fields"`
	Query string         `json:"query" jsonschema:"the user question the draft answers"`
}

type EnforceOutput struct {
	Response     string `json:"response"`
	Topic        string `json:"topic"`
	Warning      string `json:"warning,omitempty"`
	CanBeSpoiler bool   `json:"can_be_spoiler"`
}

func askOutput(turn assistant.Turn) AskOutput {
	return AskOutput{
		Response: turn.Answer,
		Topic:    turn.Topic.String(),
		TurnID:   turn.ID,
		Fallback: turn.Fallback,
	}
}

func enforceOutput(rec answer.Record, composed string) EnforceOutput {
	return EnforceOutput{
		Response:     composed,
		Topic:        rec.Topic.String(),
		Warning:      rec.Warning,
		CanBeSpoiler: rec.CanBeSpoiler,
	}
}

// recordFromArguments reads tool arguments into a record, accepting the
// same keys as a model draft.
func recordFromArguments(args map[string]any) (answer.Record, error) {
	if args == nil {
		return answer.Record{}, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return answer.Record{}, fmt.Errorf("failed to encode draft: %w", err)
	}
	var rec answer.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return answer.Record{}, fmt.Errorf("failed to parse draft: %w", err)
	}
	return rec, nil
}
