// Package wiki fetches plain-text encyclopedia pages from a MediaWiki API
// and cuts named sections out of them.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gamesage/internal/providers"
)

const DefaultAPIURL = "https://en.wikipedia.org/w/api.php"

// Page is a resolved article.
type Page struct {
	Title   string
	Snippet string // search snippet as plain text
	Extract string // full article as plain text
}

// Lead returns the text before the first section heading.
func (p Page) Lead() string {
	lines := strings.Split(p.Extract, "\n")
	for i, line := range lines {
		if isHeading(line) {
			return strings.TrimSpace(strings.Join(lines[:i], "\n"))
		}
	}
	return strings.TrimSpace(p.Extract)
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string  `json:"title"`
			Extract string  `json:"extract"`
			Missing *string `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
}

type Client struct {
	http     *providers.Client
	apiURL   string
	synonyms map[string][]string
}

// New builds a client. synonyms maps a canonical section name such as
// "plot" to the headings that may carry it.
func New(httpClient *providers.Client, apiURL string, synonyms map[string][]string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{http: httpClient, apiURL: apiURL, synonyms: synonyms}
}

// Fetch searches for title and returns the best matching page, or nil when
// the search finds nothing.
func (c *Client) Fetch(ctx context.Context, title string) (*Page, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}

	var search searchResponse
	err := c.http.GetJSON(ctx, c.apiURL, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {title},
		"srlimit":  {"1"},
		"format":   {"json"},
	}, &search)
	if err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search wiki: %w", err)
	}
	if len(search.Query.Search) == 0 {
		return nil, nil
	}
	hit := search.Query.Search[0]

	var extract extractResponse
	err = c.http.GetJSON(ctx, c.apiURL, url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {hit.Title},
		"format":      {"json"},
	}, &extract)
	if err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch wiki page: %w", err)
	}

	for _, p := range extract.Query.Pages {
		if p.Missing != nil || p.Extract == "" {
			continue
		}
		return &Page{
			Title:   p.Title,
			Snippet: SnippetText(hit.Snippet),
			Extract: p.Extract,
		}, nil
	}
	return nil, nil
}

// FetchRaw returns the plain text of the page best matching title, or "".
func (c *Client) FetchRaw(ctx context.Context, title string) (string, error) {
	page, err := c.Fetch(ctx, title)
	if err != nil || page == nil {
		return "", err
	}
	return page.Extract, nil
}

// Section fetches the page for title and returns the named section,
// cleaned. It returns "" when the page or section is missing.
func (c *Client) Section(ctx context.Context, title, section string) (string, error) {
	raw, err := c.FetchRaw(ctx, title)
	if err != nil || raw == "" {
		return "", err
	}
	return c.ExtractSection(raw, section), nil
}

// ExtractSection finds the first heading matching section or one of its
// synonyms and returns the cleaned body up to the next heading.
func (c *Client) ExtractSection(raw, section string) string {
	if raw == "" {
		return ""
	}
	target := strings.ToLower(strings.TrimSpace(section))
	synonyms := c.synonyms[target]
	if len(synonyms) == 0 {
		synonyms = []string{target}
	}

	lines := strings.Split(raw, "\n")
	start := -1
	for i, line := range lines {
		if matchesHeading(line, synonyms) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for j := start; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if strings.HasSuffix(trimmed, "==") || strings.HasSuffix(trimmed, ":") {
			end = j
			break
		}
	}

	return CleanText(strings.Join(lines[start:end], "\n"))
}

// headingText strips the "==" markers from a heading line.
func headingText(line string) string {
	return strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "=")))
}

func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "==") && strings.HasSuffix(trimmed, "==")
}

// matchesHeading accepts "== Plot ==" style headings and bare heading lines
// such as "Synopsis" whose text starts with a synonym.
func matchesHeading(line string, synonyms []string) bool {
	text := headingText(line)
	if text == "" {
		return false
	}
	if !isHeading(line) && len(text) > maxBareHeading {
		return false
	}
	for _, syn := range synonyms {
		if strings.HasPrefix(text, strings.ToLower(syn)) {
			return true
		}
	}
	return false
}

const maxBareHeading = 40

var (
	citationMarker = regexp.MustCompile(`\[\d+\]`)
	spaceRun       = regexp.MustCompile(`\s{2,}`)
)

// CleanText removes citation markers and the empty parentheses left behind
// by stripped markup, then collapses whitespace runs.
func CleanText(text string) string {
	text = citationMarker.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "()", "")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SnippetText reduces an HTML search snippet to plain text.
func SnippetText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + html + "</body>"))
	if err != nil {
		return CleanText(html)
	}
	return CleanText(doc.Find("body").Text())
}
