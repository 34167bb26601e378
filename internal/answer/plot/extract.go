package plot

import (
	"strings"

	"gamesage/internal/answer"
)

const (
	// DefaultCondenseSentences is the overview length used by Condense callers.
	DefaultCondenseSentences = 5

	maxSafeMidSentences = 2
)

// Extractor trims narrative text according to a spoiler trigger list.
type Extractor struct {
	triggers []string
	intent   []string
}

// NewExtractor builds an Extractor from the spoiler trigger and spoiler
// intent tables in terms.
func NewExtractor(terms answer.Terms) *Extractor {
	return &Extractor{
		triggers: answer.Lowered(terms.SpoilerTriggers),
		intent:   answer.Lowered(terms.SpoilerIntent),
	}
}

// ContainsTrigger reports whether text mentions any spoiler trigger,
// ignoring case.
func (e *Extractor) ContainsTrigger(text string) bool {
	return answer.ContainsAny(text, e.triggers)
}

// WantsSpoilers reports whether a query explicitly asks for spoilers or
// endings.
func (e *Extractor) WantsSpoilers(query string) bool {
	return answer.ContainsAny(query, e.intent)
}

// SpoilerFree keeps the premise of a plot: the whole early third plus at
// most two mid-third sentences that carry no spoiler trigger. The late third
// is always dropped.
func (e *Extractor) SpoilerFree(text string) string {
	early, mid, _ := SplitThirds(Clean(text))

	var safe []string
	for _, sentence := range strings.Split(mid, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || e.ContainsTrigger(sentence) {
			continue
		}
		safe = append(safe, sentence)
		if len(safe) == maxSafeMidSentences {
			break
		}
	}

	result := early
	if safeMid := strings.TrimSpace(strings.Join(safe, ". ")); safeMid != "" {
		result += " " + safeMid
	}
	return strings.TrimSpace(result)
}

// Full returns the cleaned text without trimming any of the story. Use it
// only when spoilers were asked for.
func (e *Extractor) Full(text string) string {
	return Clean(text)
}

// Condense shortens cleaned text to its first maxSentences sentences.
func (e *Extractor) Condense(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultCondenseSentences
	}
	text = Clean(text)
	sentences := Sentences(text)
	if len(sentences) <= maxSentences {
		return text
	}
	return strings.Join(sentences[:maxSentences], " ")
}
