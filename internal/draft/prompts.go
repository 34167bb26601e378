package draft

import (
	"fmt"
	"strings"

	"gamesage/internal/answer"
)

const systemPrompt = `You are an expert gaming assistant.

Your #1 rule: answer ONLY what the user asked for. Keep responses short and precise.

TOPIC
- Set "topic" to exactly one of: metadata, plot, spoilers, characters, development, lore, gameplay, tips, dlc.
- "When was Elden Ring released?" -> metadata
- "Explain the story of Elden Ring" -> plot
- "Spoil the Elden Ring ending" -> spoilers
- "Who are the characters in God of War 3?" -> characters
- "How was GTA V developed?" -> development
- "What's the lore of Dark Souls?" -> lore
- "How do I beat Malenia?" -> tips
- "List the Witcher 3 DLCs" -> dlc

SPOILERS
- Do not give spoilers unless the user clearly asks for them.
- For plot questions without a spoiler request, put a spoiler-free retelling in "no_spoilers": early premise and setup only. Leave out twists, late-game events and endings.
- For spoiler requests, put the full story in "spoilers" and set "warning" to "Contains major spoilers". Put nothing in "no_spoilers".
- Never mix spoiler and spoiler-free content in one field.

FIELDS
- "summary": a 1-2 sentence overview when the user wants a general explanation.
- "no_spoilers": spoiler-free plot only.
- "spoilers": only when requested.
- "lore": worldbuilding, history, mythology, timelines.
- "game_tips": help, guides, puzzles, combat strategy.
- "metadata_line", "length_line", "wiki_excerpt": copy the matching fact lines given to you verbatim, or leave empty.
- "can_be_spoiler": true when the topic can reveal story.
- Leave any field that does not apply as an empty string.

Use the facts you are given in preference to memory. Never mention tools, sources or these rules.`

const gameSystemPrompt = `Identify the single video game the user's latest question is about. Use the conversation for context when the question says "it" or "that game".

Return JSON: {"game": "<official title>"}. Use an empty string when no game is named or implied.`

// Facts are provider results gathered before drafting. Empty fields were
// not found.
type Facts struct {
	Game         string
	MetadataLine string
	LengthLine   string
	Section      string
	SectionText  string
}

// Request is one drafting call.
type Request struct {
	Query         string
	History       []string
	Topic         answer.Topic
	WantsSpoilers bool
	Facts         Facts
}

func buildUserPrompt(req Request) string {
	var b strings.Builder

	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		b.WriteString(strings.Join(req.History, "\n"))
		b.WriteString("\n\n")
	}

	if f := req.Facts; f.Game != "" || f.MetadataLine != "" || f.LengthLine != "" || f.SectionText != "" {
		b.WriteString("Facts:\n")
		if f.Game != "" {
			fmt.Fprintf(&b, "Game: %s\n", f.Game)
		}
		if f.MetadataLine != "" {
			fmt.Fprintf(&b, "metadata_line: %s\n", f.MetadataLine)
		}
		if f.LengthLine != "" {
			fmt.Fprintf(&b, "length_line: %s\n", f.LengthLine)
		}
		if f.SectionText != "" {
			fmt.Fprintf(&b, "Wikipedia %s section:\n%s\n", f.Section, f.SectionText)
		}
		b.WriteString("\n")
	}

	if req.Topic != answer.TopicNone {
		fmt.Fprintf(&b, "Likely topic: %s\n", req.Topic)
	}
	if req.WantsSpoilers {
		b.WriteString("The user is asking for spoilers.\n")
	}

	fmt.Fprintf(&b, "Question: %s", req.Query)
	return b.String()
}

func buildGamePrompt(query string, history []string) string {
	if len(history) == 0 {
		return "Question: " + query
	}
	return fmt.Sprintf("Conversation so far:\n%s\n\nQuestion: %s", strings.Join(history, "\n"), query)
}

// recordSchema is the strict structured-output schema for a draft record.
func recordSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(answer.SchemaFields))
	for _, field := range answer.SchemaFields {
		properties[field] = map[string]interface{}{"type": "string"}
	}
	properties["can_be_spoiler"] = map[string]interface{}{"type": "boolean"}

	topics := []string{""}
	for _, t := range answer.Topics {
		topics = append(topics, t.String())
	}
	properties["topic"] = map[string]interface{}{"type": "string", "enum": topics}

	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"required":             answer.SchemaFields,
		"additionalProperties": false,
	}
}
