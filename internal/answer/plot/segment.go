// Package plot segments narrative text and extracts spoiler-free or full
// spoiler excerpts from it.
package plot

import (
	"regexp"
	"strings"
)

var (
	citationPattern    = regexp.MustCompile(`\[\d+\]`)
	parentheticalAside = regexp.MustCompile(`\([^)]{0,30}\)`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	sentenceBoundary   = regexp.MustCompile(`[.!?]\s+`)
)

// minSplitSentences is the smallest text that gets divided into thirds.
// Anything shorter is returned whole as the early third.
const minSplitSentences = 4

// Clean strips [n] citation markers and short parenthetical asides, then
// collapses whitespace runs to a single space.
func Clean(text string) string {
	text = citationPattern.ReplaceAllString(text, "")
	text = parentheticalAside.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Sentences splits text after each '.', '!' or '?' that is followed by
// whitespace. Terminal punctuation stays with its sentence.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		end := loc[0] + 1
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// SplitThirds divides text into early, mid and late thirds by sentence
// count, splitting at floor(n/3) and floor(2n/3). Text with fewer than four
// sentences comes back whole as the early third.
func SplitThirds(text string) (early, mid, late string) {
	sentences := Sentences(text)
	n := len(sentences)
	if n < minSplitSentences {
		return text, "", ""
	}

	a, b := n/3, 2*n/3
	return strings.Join(sentences[:a], " "),
		strings.Join(sentences[a:b], " "),
		strings.Join(sentences[b:], " ")
}
