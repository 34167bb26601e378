// Package draft asks the language model for a structured answer record and
// recovers one from whatever text comes back.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"gamesage/internal/answer"
	"gamesage/internal/debug"
	"gamesage/internal/llm"
)

// ErrMalformedDraft means the model output could not be read as a record.
// Callers show the raw text instead.
var ErrMalformedDraft = errors.New("malformed draft")

// Completer is the part of llm.Service the drafter needs.
type Completer interface {
	CompleteJSON(ctx context.Context, req llm.JSONCompletionRequest) (string, error)
	CompleteJSONSchema(ctx context.Context, req llm.JSONSchemaCompletionRequest) (string, error)
}

type Drafter struct {
	llm       Completer
	debug     *debug.Logger
	maxTokens int
}

func NewDrafter(completer Completer, debug *debug.Logger) *Drafter {
	return &Drafter{llm: completer, debug: debug, maxTokens: 1200}
}

// Draft returns the model's record for req together with the raw model
// text. When the text is not a record the error wraps ErrMalformedDraft and
// the raw text is still returned.
func (d *Drafter) Draft(ctx context.Context, req Request) (answer.Record, string, error) {
	ctx, span := otel.Tracer("draft").Start(ctx, "draft.answer")
	defer span.End()
	span.SetAttributes(
		attribute.String("draft.query", req.Query),
		attribute.String("draft.topic_hint", req.Topic.String()),
		attribute.Bool("draft.wants_spoilers", req.WantsSpoilers),
	)

	ctx = llm.WithOperationType(ctx, "draft.answer")
	ctx = llm.WithGameContext(ctx, map[string]interface{}{
		"title":          req.Facts.Game,
		"topic_hint":     req.Topic.String(),
		"wants_spoilers": req.WantsSpoilers,
	})
	raw, err := d.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(req),
		MaxTokens:    d.maxTokens,
		SchemaName:   "game_answer",
		Schema:       recordSchema(),
	})
	if err != nil {
		span.RecordError(err)
		return answer.Record{}, "", fmt.Errorf("failed to draft answer: %w", err)
	}

	rec, err := Parse(raw)
	if err != nil {
		span.RecordError(err)
		if d.debug != nil {
			d.debug.Printf("draft parse failed: %v", err)
		}
		return answer.Record{}, raw, err
	}

	span.SetAttributes(attribute.String("draft.topic", rec.Topic.String()))
	return rec, raw, nil
}

// ResolveGame names the game a question is about, or returns "" when none
// is named or implied.
func (d *Drafter) ResolveGame(ctx context.Context, query string, history []string) (string, error) {
	ctx = llm.WithOperationType(ctx, "draft.resolve_game")
	raw, err := d.llm.CompleteJSON(ctx, llm.JSONCompletionRequest{
		SystemPrompt: gameSystemPrompt,
		UserPrompt:   buildGamePrompt(query, history),
		MaxTokens:    60,
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve game: %w", err)
	}

	var resp struct {
		Game  string `json:"game"`
		Title string `json:"title"`
	}
	if err := decodeLenient(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to resolve game: %w", err)
	}
	if resp.Game == "" {
		resp.Game = resp.Title
	}
	return strings.TrimSpace(resp.Game), nil
}

// Parse reads a record from model text. It accepts bare JSON, JSON
// surrounded by prose, and JSON inside a fenced code block.
func Parse(raw string) (answer.Record, error) {
	var rec answer.Record
	if err := decodeLenient(raw, &rec); err != nil {
		return answer.Record{}, err
	}
	return rec, nil
}

func decodeLenient(raw string, dst interface{}) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedDraft)
	}

	for _, candidate := range jsonCandidates(text) {
		if err := json.Unmarshal([]byte(candidate), dst); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %.200s", ErrMalformedDraft, text)
}

// jsonCandidates lists the substrings of text worth trying as JSON, most
// likely first.
func jsonCandidates(text string) []string {
	candidates := []string{text}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}

	for _, fence := range []string{"```json", "```"} {
		idx := strings.Index(text, fence)
		if idx < 0 {
			continue
		}
		after := text[idx+len(fence):]
		if end := strings.Index(after, "```"); end >= 0 {
			candidates = append(candidates, strings.TrimSpace(after[:end]))
		}
	}
	return candidates
}
