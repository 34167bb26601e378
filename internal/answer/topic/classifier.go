// Package topic infers the topic of a game question from keyword rules.
package topic

import (
	"gamesage/internal/answer"
)

type rule struct {
	topic    answer.Topic
	keywords []string
}

// Classifier evaluates an ordered keyword table. The first rule with a
// matching keyword decides the topic.
type Classifier struct {
	rules  []rule
	length []string
}

// NewClassifier builds a Classifier from the topic rules and length-intent
// keywords in terms. Rule order is preserved.
func NewClassifier(terms answer.Terms) *Classifier {
	c := &Classifier{length: answer.Lowered(terms.LengthIntent)}
	for _, r := range terms.TopicRules {
		c.rules = append(c.rules, rule{
			topic:    r.Topic,
			keywords: answer.Lowered(r.Keywords),
		})
	}
	return c
}

// Classify returns the topic of the first matching rule, or TopicNone.
func (c *Classifier) Classify(query string) answer.Topic {
	for _, r := range c.rules {
		if answer.ContainsAny(query, r.keywords) {
			return r.topic
		}
	}
	return answer.TopicNone
}

// AsksLength reports whether the query is about play time.
func (c *Classifier) AsksLength(query string) bool {
	return answer.ContainsAny(query, c.length)
}

// Resolve settles the topic of a turn. A routable current topic is kept.
// An empty one is classified from the query, and an empty or placeholder
// result on a play-time question becomes metadata. Anything still
// unresolved falls back to metadata, so the result is always routable.
func (c *Classifier) Resolve(current answer.Topic, query string) answer.Topic {
	t := answer.ParseTopic(string(current))
	if t == answer.TopicNone {
		t = c.Classify(query)
	}

	if (t == answer.TopicNone || t == answer.TopicSummary) && c.AsksLength(query) {
		t = answer.TopicMetadata
	}

	if !t.Known() {
		t = c.Classify(query)
	}
	if t == answer.TopicNone {
		t = answer.TopicMetadata
	}
	return t
}
