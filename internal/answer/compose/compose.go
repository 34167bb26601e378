// Package compose renders a corrected answer record as one block of text.
package compose

import (
	"strings"

	"gamesage/internal/answer"
)

// Section kinds, in the order a reader would recognize them.
const (
	KindMetadata = "metadata"
	KindLength   = "length"
	KindSummary  = "summary"
	KindPlot     = "plot"
	KindWarning  = "warning"
	KindSpoilers = "spoilers"
	KindLore     = "lore"
	KindTips     = "tips"
	KindWiki     = "wiki"
	KindInfo     = "info"
)

// Section is one labelled block of a composed answer. Label is empty for
// blocks that are shown bare.
type Section struct {
	Kind  string
	Label string
	Body  string
}

// String renders the section the way Compose does.
func (s Section) String() string {
	switch {
	case s.Kind == KindWarning:
		return "**" + s.Body + "**"
	case s.Label == "":
		return s.Body
	case s.Kind == KindInfo:
		return "**" + s.Label + ":** " + s.Body
	default:
		return "**" + s.Label + ":**\n" + s.Body
	}
}

// Sections returns the non-empty blocks of rec in display order. Factual
// lines lead for metadata questions and are demoted to the end otherwise;
// plot-oriented answers omit the wiki excerpt and the play-length line.
func Sections(rec answer.Record) []Section {
	var out []Section
	add := func(kind, label, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		out = append(out, Section{Kind: kind, Label: label, Body: body})
	}

	isMetadata := rec.Topic == answer.TopicMetadata
	plotOriented := rec.Topic.PlotOriented()

	if isMetadata {
		add(KindMetadata, "", rec.MetadataLine)
		add(KindLength, "", rec.LengthLine)
	}

	add(KindSummary, "", rec.Summary)
	add(KindPlot, "Plot", rec.NoSpoilers)

	if strings.TrimSpace(rec.Spoilers) != "" {
		add(KindWarning, "", rec.Warning)
		add(KindSpoilers, "Full Plot", rec.Spoilers)
	}

	add(KindLore, "Lore", rec.Lore)
	add(KindTips, "Tips", rec.GameTips)

	if !plotOriented {
		add(KindWiki, "From Wiki", rec.WikiExcerpt)
	}

	if !isMetadata {
		add(KindInfo, "Info", rec.MetadataLine)
		if !plotOriented {
			add(KindLength, "", rec.LengthLine)
		}
	}

	return out
}

// Compose joins the sections of rec with blank lines. A record with no
// content composes to the empty string.
func Compose(rec answer.Record) string {
	sections := Sections(rec)
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.String()
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
