// Package policy corrects drafted answers before they are shown: it settles
// the topic, keeps spoilers out of the spoiler-free field, pairs spoilers
// with a warning and drops fields outside the record schema.
//
// Enforcement runs as a fixed pipeline of stages
//
//	received -> topic resolved -> spoiler safe -> hygienic -> done
//
// Each stage takes a record by value and returns a new one. No stage fails.
package policy

import (
	"strings"

	"gamesage/internal/answer"
	"gamesage/internal/answer/plot"
	"gamesage/internal/answer/topic"
)

// MajorSpoilerWarning is attached to any record that carries spoilers
// without a warning of its own.
const MajorSpoilerWarning = "Contains major spoilers"

// Enforcer applies the answer policy. It is safe for concurrent use.
type Enforcer struct {
	classifier *topic.Classifier
	extractor  *plot.Extractor
}

// New builds an Enforcer over the given term tables.
func New(terms answer.Terms) *Enforcer {
	return &Enforcer{
		classifier: topic.NewClassifier(terms),
		extractor:  plot.NewExtractor(terms),
	}
}

var defaultEnforcer = New(answer.DefaultTerms())

// Enforce applies the policy with the built-in term tables.
func Enforce(draft answer.Record, query string) answer.Record {
	return defaultEnforcer.Enforce(draft, query)
}

// Enforce returns the corrected form of draft for the given user query.
// The result always has a routable topic, a spoiler-free field without
// trigger terms, a warning whenever spoilers are present and no extra keys.
// Enforcing a corrected record again returns it unchanged.
func (e *Enforcer) Enforce(draft answer.Record, query string) answer.Record {
	rec := e.resolveTopic(draft, query)
	rec = e.containSpoilers(rec)
	rec = e.refilterPlot(rec)
	return e.done(rec)
}

func (e *Enforcer) resolveTopic(rec answer.Record, query string) answer.Record {
	rec.Topic = e.classifier.Resolve(rec.Topic, query)
	return rec
}

// containSpoilers moves a leaking spoiler-free text into the spoiler field
// and makes sure spoilers never travel without a warning.
func (e *Enforcer) containSpoilers(rec answer.Record) answer.Record {
	if e.extractor.ContainsTrigger(rec.NoSpoilers) {
		rec.Spoilers = strings.TrimSpace(rec.Spoilers + "\n" + rec.NoSpoilers)
		rec.NoSpoilers = ""
	}
	if rec.Spoilers != "" && strings.TrimSpace(rec.Warning) == "" {
		rec.Warning = MajorSpoilerWarning
	}
	return rec
}

// refilterPlot runs the spoiler-free extraction again over plot answers.
// Extraction repeats until the text stops changing; every pass that changes
// the text shortens it, so the loop ends. The price is length: a plot of four
// or more sentences shrinks to its first two, not to the early and mid
// thirds a single pass would keep. Cleaning can join the halves of a trigger
// term, so containment is checked once more afterwards.
func (e *Enforcer) refilterPlot(rec answer.Record) answer.Record {
	if rec.Topic != answer.TopicPlot || rec.NoSpoilers == "" {
		return rec
	}

	text := rec.NoSpoilers
	for {
		next := e.extractor.SpoilerFree(text)
		if next == text {
			break
		}
		text = next
	}
	rec.NoSpoilers = text

	return e.containSpoilers(rec)
}

func (e *Enforcer) done(rec answer.Record) answer.Record {
	rec.Extra = nil
	if rec.Topic.SpoilerSensitive() || rec.Spoilers != "" {
		rec.CanBeSpoiler = true
	}
	return rec
}
