package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gamesage/internal/debug"
	"gamesage/internal/observability"
)

// Context keys for operation tracing
type contextKey string

const (
	operationTypeKey contextKey = "operation_type"
	gameContextKey   contextKey = "game_context"
)

const DefaultModel = "gpt-4o-mini"

type Service struct {
	client *openai.Client
	model  string
	debug  *debug.Logger
	tracer trace.Tracer
}

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewService(opts Options, debug *debug.Logger) *Service {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	model := opts.Model
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	client := openai.NewClient(reqOpts...)
	return &Service{
		client: &client,
		model:  model,
		debug:  debug,
		tracer: otel.Tracer("llm-service"),
	}
}

type TextCompletionRequest struct {
	SystemPrompt    string
	UserPrompt      string
	MaxTokens       int
	Model           string // optional override
	ReasoningEffort string // optional: minimal, low, medium, high
}

type JSONCompletionRequest struct {
	SystemPrompt    string
	UserPrompt      string
	MaxTokens       int
	Model           string // optional override
	ReasoningEffort string // optional: minimal, low, medium, high
}

type JSONSchemaCompletionRequest struct {
	SystemPrompt    string
	UserPrompt      string
	MaxTokens       int
	Model           string // optional override
	ReasoningEffort string // optional: minimal, low, medium, high
	SchemaName      string
	Schema          interface{}
}

// completion is the shape shared by every request kind.
type completion struct {
	kind            string // text, json, json_schema
	defaultOp       string
	systemPrompt    string
	userPrompt      string
	maxTokens       int
	model           string
	reasoningEffort string
	responseFormat  openai.ChatCompletionNewParamsResponseFormatUnion
}

func (s *Service) CompleteText(ctx context.Context, req TextCompletionRequest) (string, error) {
	return s.complete(ctx, completion{
		kind:            "text",
		defaultOp:       "llm.complete_text",
		systemPrompt:    req.SystemPrompt,
		userPrompt:      req.UserPrompt,
		maxTokens:       req.MaxTokens,
		model:           req.Model,
		reasoningEffort: req.ReasoningEffort,
	})
}

func (s *Service) CompleteJSON(ctx context.Context, req JSONCompletionRequest) (string, error) {
	jsonObject := shared.NewResponseFormatJSONObjectParam()
	return s.complete(ctx, completion{
		kind:            "json",
		defaultOp:       "llm.complete_json",
		systemPrompt:    req.SystemPrompt,
		userPrompt:      req.UserPrompt,
		maxTokens:       req.MaxTokens,
		model:           req.Model,
		reasoningEffort: req.ReasoningEffort,
		responseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &jsonObject,
		},
	})
}

func (s *Service) CompleteJSONSchema(ctx context.Context, req JSONSchemaCompletionRequest) (string, error) {
	return s.complete(ctx, completion{
		kind:            "json_schema",
		defaultOp:       "llm.complete_json_schema",
		systemPrompt:    req.SystemPrompt,
		userPrompt:      req.UserPrompt,
		maxTokens:       req.MaxTokens,
		model:           req.Model,
		reasoningEffort: req.ReasoningEffort,
		responseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				Type: constant.JSONSchema("json_schema"),
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
}

func (s *Service) complete(ctx context.Context, c completion) (string, error) {
	operationType := c.defaultOp
	if opType := getOperationType(ctx); opType != "" {
		operationType = opType
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if s.debug != nil {
		if !sc.IsValid() {
			s.debug.Printf("NO PARENT: ctx missing active span for %s", operationType)
		} else {
			s.debug.Printf("complete %s trace=%s parentSpan=%s op=%s", c.kind, sc.TraceID(), sc.SpanID(), operationType)
		}
	}

	model := s.model
	if strings.TrimSpace(c.model) != "" {
		model = c.model
	}
	ctx, span := s.tracer.Start(ctx, operationType,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.CreateGenAIAttributes("openai", model, 0, 0, 0.0)...,
		),
	)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.Int("gen_ai.request.max_tokens", c.maxTokens),
		attribute.String("langfuse.observation.type", "generation"),
		attribute.String("response_format", c.kind),
		attribute.String("game.operation_type", operationType),
	}
	span.SetAttributes(attrs...)
	CopyGameContextToSpan(ctx, span)

	span.AddEvent("gen_ai.user.message", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("content", c.userPrompt),
	))

	startTime := time.Now()

	openaiReq := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(c.userPrompt),
		},
		ResponseFormat: c.responseFormat,
	}
	if c.maxTokens > 0 {
		openaiReq.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}
	if c.reasoningEffort != "" {
		openaiReq.ReasoningEffort = shared.ReasoningEffort(c.reasoningEffort)
	}

	if s.debug != nil {
		s.debug.Printf("LLM %s completion - Model: %s, MaxTokens: %d, SystemPrompt length: %d", c.kind, model, c.maxTokens, len(c.systemPrompt))
	}

	resp, err := s.client.Chat.Completions.New(ctx, openaiReq)
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		if s.debug != nil {
			s.debug.Printf("LLM %s completion error: %v", c.kind, err)
		}
		return "", fmt.Errorf("%s completion failed: %w", c.kind, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no completion choices returned")
		span.RecordError(err)
		return "", err
	}

	content := resp.Choices[0].Message.Content
	duration := time.Since(startTime)

	if s.debug != nil {
		s.debug.Printf("LLM %s response: finish_reason=%s, length=%d, tokens=%d/%d, duration=%v",
			c.kind, resp.Choices[0].FinishReason, len(content), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, duration)
		if resp.Choices[0].FinishReason == "length" {
			s.debug.Printf("LLM %s response truncated at max tokens %d", c.kind, c.maxTokens)
		}
	}

	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int64("response_time_ms", duration.Milliseconds()),
		attribute.String("langfuse.observation.input", c.systemPrompt+"\n\n"+c.userPrompt),
		attribute.String("langfuse.observation.output", content),
		attribute.String("langfuse.observation.output_format", c.kind),
		attribute.String("langfuse.observation.model.name", model),
	)

	span.AddEvent("gen_ai.choice", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("content", content),
	))

	return content, nil
}

func WithOperationType(ctx context.Context, opType string) context.Context {
	return context.WithValue(ctx, operationTypeKey, opType)
}

// WithGameContext attaches per-turn attributes (game title, topic) that are
// copied onto every LLM span. It merges with any context already present.
func WithGameContext(ctx context.Context, gameCtx map[string]interface{}) context.Context {
	if existing, ok := ctx.Value(gameContextKey).(map[string]interface{}); ok && existing != nil {
		merged := make(map[string]interface{}, len(existing)+len(gameCtx))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range gameCtx {
			merged[k] = v
		}
		return context.WithValue(ctx, gameContextKey, merged)
	}
	return context.WithValue(ctx, gameContextKey, gameCtx)
}

func getOperationType(ctx context.Context) string {
	if opType, ok := ctx.Value(operationTypeKey).(string); ok {
		return opType
	}
	return ""
}

func getGameContext(ctx context.Context) map[string]interface{} {
	if gameCtx, ok := ctx.Value(gameContextKey).(map[string]interface{}); ok {
		return gameCtx
	}
	return nil
}

// CopyGameContextToSpan attaches game context and session id attributes to an existing span.
func CopyGameContextToSpan(ctx context.Context, span trace.Span) {
	if span == nil {
		return
	}
	if sid := observability.SessionIDFromContext(ctx); sid != "" {
		span.SetAttributes(
			attribute.String("langfuse.session.id", sid),
			attribute.String("session.id", sid),
		)
	}
	for k, v := range getGameContext(ctx) {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String("game."+k, val))
		case int:
			span.SetAttributes(attribute.Int("game."+k, val))
		case bool:
			span.SetAttributes(attribute.Bool("game."+k, val))
		case []string:
			span.SetAttributes(attribute.StringSlice("game."+k, val))
		}
	}
}
