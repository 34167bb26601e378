// Package assistant answers one question per turn: it names the game,
// gathers provider facts, drafts a record with the language model, applies
// the answer policy and composes the final text.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"gamesage/internal/answer"
	"gamesage/internal/answer/compose"
	"gamesage/internal/answer/plot"
	"gamesage/internal/answer/policy"
	"gamesage/internal/answer/topic"
	"gamesage/internal/debug"
	"gamesage/internal/draft"
	"gamesage/internal/logging"
	"gamesage/internal/observability"
	"gamesage/internal/providers/wiki"
)

const (
	excerptSentences = 2
	gatherLimit      = 3
)

type Drafter interface {
	Draft(ctx context.Context, req draft.Request) (answer.Record, string, error)
	ResolveGame(ctx context.Context, query string, history []string) (string, error)
}

type MetadataSource interface {
	MetadataLine(ctx context.Context, game string) (string, error)
}

type LengthSource interface {
	LengthLine(ctx context.Context, game string) (string, error)
}

type PageSource interface {
	Fetch(ctx context.Context, title string) (*wiki.Page, error)
	ExtractSection(raw, section string) string
}

type TurnStore interface {
	LogTurn(ctx context.Context, t logging.Turn) (int64, error)
}

// Deps wires an Assistant. Only Drafter is required; a nil provider is
// treated as one that never finds anything.
type Deps struct {
	Terms    answer.Terms
	Drafter  Drafter
	Metadata MetadataSource
	Length   LengthSource
	Wiki     PageSource
	Store    TurnStore
	Debug    *debug.Logger
}

type Assistant struct {
	classifier *topic.Classifier
	extractor  *plot.Extractor
	enforcer   *policy.Enforcer
	drafter    Drafter
	metadata   MetadataSource
	length     LengthSource
	wiki       PageSource
	store      TurnStore
	debug      *debug.Logger
}

func New(deps Deps) *Assistant {
	terms := deps.Terms
	if len(terms.SpoilerTriggers) == 0 && len(terms.TopicRules) == 0 {
		terms = answer.DefaultTerms()
	}
	return &Assistant{
		classifier: topic.NewClassifier(terms),
		extractor:  plot.NewExtractor(terms),
		enforcer:   policy.New(terms),
		drafter:    deps.Drafter,
		metadata:   deps.Metadata,
		length:     deps.Length,
		wiki:       deps.Wiki,
		store:      deps.Store,
		debug:      deps.Debug,
	}
}

// Turn is the outcome of one question.
type Turn struct {
	ID        int64
	SessionID string
	Query     string
	Game      string
	Topic     answer.Topic
	Record    answer.Record
	Draft     string
	Answer    string
	// Fallback is set when the draft was unreadable and Answer is the raw
	// model text.
	Fallback bool
}

// facts is what the providers found for one turn.
type facts struct {
	metadata string
	length   string
	section  string
	text     string
	excerpt  string
}

// Ask answers query. history holds earlier exchanges, oldest first.
func (a *Assistant) Ask(ctx context.Context, query string, history []string) (Turn, error) {
	sessionID := observability.SessionIDFromContext(ctx)
	ctx, span := otel.Tracer("assistant").Start(ctx, "assistant.turn")
	defer span.End()
	started := time.Now()

	turn := Turn{SessionID: sessionID, Query: query}
	query = strings.TrimSpace(query)
	if query == "" {
		return turn, errors.New("empty question")
	}

	hint := a.classifier.Resolve(answer.TopicNone, query)
	wantsSpoilers := a.extractor.WantsSpoilers(query)
	span.SetAttributes(observability.CreateLangfuseAttributes("assistant.turn", sessionID, "", []string{hint.String()})...)
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("assistant.topic_hint", hint.String()),
		attribute.Bool("assistant.wants_spoilers", wantsSpoilers),
	)

	game, err := a.drafter.ResolveGame(ctx, query, history)
	if err != nil {
		a.debug.Warnf("game resolution failed: %v", err)
		game = ""
	}
	turn.Game = game
	span.SetAttributes(attribute.String("assistant.game", game))

	found, err := a.gather(ctx, game, hint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return turn, err
	}

	rec, raw, err := a.drafter.Draft(ctx, draft.Request{
		Query:         query,
		History:       history,
		Topic:         hint,
		WantsSpoilers: wantsSpoilers,
		Facts: draft.Facts{
			Game:         game,
			MetadataLine: found.metadata,
			LengthLine:   found.length,
			Section:      found.section,
			SectionText:  found.text,
		},
	})
	turn.Draft = raw

	meta := logging.TurnMetadata{Game: game, TopicHint: hint, WantsSpoilers: wantsSpoilers}

	switch {
	case errors.Is(err, draft.ErrMalformedDraft):
		a.debug.Warnf("showing raw model text: %v", err)
		turn.Fallback = true
		turn.Topic = hint
		turn.Answer = strings.TrimSpace(raw)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return turn, fmt.Errorf("failed to answer: %w", err)
	default:
		rec = a.fill(rec, found, hint, wantsSpoilers)
		rec = a.enforcer.Enforce(rec, query)
		turn.Record = rec
		turn.Topic = rec.Topic
		turn.Answer = compose.Compose(rec)
	}

	span.SetAttributes(
		attribute.String("assistant.topic", turn.Topic.String()),
		attribute.Bool("assistant.fallback", turn.Fallback),
	)

	meta.Fallback = turn.Fallback
	meta.ResponseTime = time.Since(started)
	a.persist(ctx, &turn, meta)
	return turn, nil
}

// gather queries the providers concurrently. Provider failures are logged
// and read as missing data; only cancellation of ctx is returned.
func (a *Assistant) gather(ctx context.Context, game string, hint answer.Topic) (facts, error) {
	var found facts
	if game == "" {
		return found, nil
	}
	found.section = sectionFor(hint)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(gatherLimit)

	if a.metadata != nil {
		eg.Go(func() error {
			line, err := a.metadata.MetadataLine(egCtx, game)
			found.metadata = line
			return a.providerErr("metadata", err)
		})
	}

	if a.length != nil && !hint.PlotOriented() {
		eg.Go(func() error {
			line, err := a.length.LengthLine(egCtx, game)
			found.length = line
			return a.providerErr("length", err)
		})
	}

	if a.wiki != nil {
		eg.Go(func() error {
			page, err := a.wiki.Fetch(egCtx, game)
			if err != nil || page == nil {
				return a.providerErr("wiki", err)
			}
			if found.section != "" {
				found.text = a.wiki.ExtractSection(page.Extract, found.section)
			}
			found.excerpt = a.extractor.Condense(wiki.CleanText(page.Lead()), excerptSentences)
			if found.excerpt == "" {
				found.excerpt = page.Snippet
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return facts{}, err
	}
	return found, nil
}

func (a *Assistant) providerErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	a.debug.Warnf("%s provider failed: %v", name, err)
	return nil
}

// sectionFor names the encyclopedia section that backs a topic.
func sectionFor(t answer.Topic) string {
	switch t {
	case answer.TopicPlot, answer.TopicSpoilers, answer.TopicLore, answer.TopicDLC:
		return "plot"
	case answer.TopicCharacters:
		return "characters"
	case answer.TopicDevelopment:
		return "development"
	case answer.TopicGameplay, answer.TopicTips:
		return "gameplay"
	}
	return ""
}

// fill completes provider fields the draft left empty and, when the draft
// carries no narrative at all, seeds it from the gathered section.
func (a *Assistant) fill(rec answer.Record, found facts, hint answer.Topic, wantsSpoilers bool) answer.Record {
	if rec.MetadataLine == "" {
		rec.MetadataLine = found.metadata
	}
	if rec.LengthLine == "" {
		rec.LengthLine = found.length
	}
	if rec.WikiExcerpt == "" {
		rec.WikiExcerpt = found.excerpt
	}

	if found.text == "" || hasNarrative(rec) {
		return rec
	}

	t := rec.Topic
	if !t.Known() {
		t = hint
	}
	switch {
	case t.PlotOriented():
		rec.NoSpoilers = a.extractor.SpoilerFree(found.text)
		if wantsSpoilers {
			rec.Spoilers = a.extractor.Full(found.text)
		}
	case t.SpoilerSensitive() && !wantsSpoilers:
		rec.Summary = a.extractor.SpoilerFree(found.text)
	default:
		rec.Summary = a.extractor.Condense(found.text, plot.DefaultCondenseSentences)
	}
	return rec
}

func hasNarrative(rec answer.Record) bool {
	for _, s := range []string{rec.Summary, rec.NoSpoilers, rec.Spoilers, rec.Lore, rec.GameTips} {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func (a *Assistant) persist(ctx context.Context, turn *Turn, meta logging.TurnMetadata) {
	if a.store == nil {
		return
	}
	id, err := a.store.LogTurn(ctx, logging.Turn{
		SessionID: turn.SessionID,
		Query:     turn.Query,
		Draft:     turn.Draft,
		Record:    turn.Record,
		Answer:    turn.Answer,
		Metadata:  meta,
	})
	if err != nil {
		a.debug.Warnf("failed to log turn: %v", err)
		return
	}
	turn.ID = id
}
