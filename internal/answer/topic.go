package answer

import "strings"

// Topic classifies the intent of a user query. It drives provider routing and
// the layout of the composed answer.
type Topic string

const (
	TopicNone        Topic = ""
	TopicMetadata    Topic = "metadata"
	TopicPlot        Topic = "plot"
	TopicSpoilers    Topic = "spoilers"
	TopicCharacters  Topic = "characters"
	TopicDevelopment Topic = "development"
	TopicLore        Topic = "lore"
	TopicGameplay    Topic = "gameplay"
	TopicTips        Topic = "tips"
	TopicDLC         Topic = "dlc"

	// TopicSummary is the generic placeholder drafts sometimes carry. It is
	// not a routable topic.
	TopicSummary Topic = "summary"
)

// Topics is the closed set of routable topics.
var Topics = []Topic{
	TopicMetadata,
	TopicPlot,
	TopicSpoilers,
	TopicCharacters,
	TopicDevelopment,
	TopicLore,
	TopicGameplay,
	TopicTips,
	TopicDLC,
}

// ParseTopic normalizes case and surrounding whitespace.
func ParseTopic(s string) Topic {
	return Topic(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether t is one of the routable topics.
func (t Topic) Known() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// SpoilerSensitive reports whether answers on this topic can reveal story.
func (t Topic) SpoilerSensitive() bool {
	switch t {
	case TopicPlot, TopicSpoilers, TopicCharacters, TopicLore, TopicDLC:
		return true
	}
	return false
}

// PlotOriented reports whether the answer is about the story itself.
func (t Topic) PlotOriented() bool {
	return t == TopicPlot || t == TopicSpoilers
}

func (t Topic) String() string {
	return string(t)
}
