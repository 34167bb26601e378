package answer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TopicRule maps a set of query keywords to a topic. Rules are evaluated in
// order and the first rule with a matching keyword wins.
type TopicRule struct {
	Topic    Topic    `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
}

// Terms is the keyword configuration shared by the classifier, the spoiler
// extractor, the policy enforcer and the wiki provider. Build it once and
// treat it as read-only.
type Terms struct {
	SpoilerTriggers []string            `yaml:"spoiler_triggers"`
	SpoilerIntent   []string            `yaml:"spoiler_intent"`
	TopicRules      []TopicRule         `yaml:"topic_rules"`
	LengthIntent    []string            `yaml:"length_intent"`
	SectionSynonyms map[string][]string `yaml:"section_synonyms"`
}

// DefaultTerms returns the built-in tables.
func DefaultTerms() Terms {
	return Terms{
		SpoilerTriggers: []string{
			"kills", "dies", "death", "betray", "twist", "ending", "final boss", "reveals",
		},
		SpoilerIntent: []string{
			"spoiler", "spoil", "ending", "end of", "plot twist", "who dies", "death of",
			"reveal", "true ending", "bad ending", "good ending", "secret ending",
		},
		TopicRules: []TopicRule{
			{TopicMetadata, []string{"release", "platform", "developer", "engine", "rating", "metacritic"}},
			{TopicCharacters, []string{"character"}},
			{TopicLore, []string{"lore", "world"}},
			{TopicDLC, []string{"dlc", "expansion"}},
			{TopicSpoilers, []string{"ending", "spoil"}},
			{TopicPlot, []string{"story", "plot"}},
			{TopicGameplay, []string{"gameplay", "mechanic", "combat"}},
			{TopicTips, []string{"how to", "beat", "solve", "puzzle", "tips", "guide"}},
		},
		LengthIntent: []string{
			"long", "short", "hours", "time to beat", "how long", "length",
		},
		SectionSynonyms: map[string][]string{
			"plot":        {"plot", "story", "synopsis", "plot summary", "storyline"},
			"characters":  {"characters", "cast", "main characters", "playable characters"},
			"development": {"development", "production", "creation"},
			"gameplay":    {"gameplay", "mechanics", "game play"},
		},
	}
}

// LoadTerms reads a YAML term file. Sections missing from the file keep
// their defaults. An empty path returns the defaults.
func LoadTerms(path string) (Terms, error) {
	terms := DefaultTerms()
	if path == "" {
		return terms, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Terms{}, fmt.Errorf("failed to read terms file: %w", err)
	}

	var override Terms
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Terms{}, fmt.Errorf("failed to parse terms file: %w", err)
	}

	if len(override.SpoilerTriggers) > 0 {
		terms.SpoilerTriggers = override.SpoilerTriggers
	}
	if len(override.SpoilerIntent) > 0 {
		terms.SpoilerIntent = override.SpoilerIntent
	}
	if len(override.TopicRules) > 0 {
		for _, rule := range override.TopicRules {
			if !rule.Topic.Known() {
				return Terms{}, fmt.Errorf("terms file: unknown topic %q in topic_rules", rule.Topic)
			}
		}
		terms.TopicRules = override.TopicRules
	}
	if len(override.LengthIntent) > 0 {
		terms.LengthIntent = override.LengthIntent
	}
	for section, synonyms := range override.SectionSynonyms {
		terms.SectionSynonyms[section] = synonyms
	}

	return terms, nil
}

// Lowered returns a copy of words in lower case with blanks removed.
func Lowered(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// ContainsAny reports whether text contains any of terms as a substring,
// ignoring case. terms must already be lower case.
func ContainsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
