// Package hltb reads play-length estimates from HowLongToBeat.
//
// The site has no public API. Search posts to the /api/search endpoint its
// web client used, which now also expects a rotating key, so lookups are
// best-effort. A refused search comes back as an error and callers carry on
// without a length line.
package hltb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"gamesage/internal/providers"
)

const DefaultBaseURL = "https://howlongtobeat.com"

// Entry is one search result. Times are in seconds.
type Entry struct {
	Name          string `json:"game_name"`
	Main          int    `json:"comp_main"`
	MainExtras    int    `json:"comp_plus"`
	Completionist int    `json:"comp_100"`
}

type searchRequest struct {
	SearchType  string   `json:"searchType"`
	SearchTerms []string `json:"searchTerms"`
	SearchPage  int      `json:"searchPage"`
	Size        int      `json:"size"`
}

type searchResponse struct {
	Data []Entry `json:"data"`
}

type Client struct {
	http    *providers.Client
	baseURL string
}

func New(httpClient *providers.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: httpClient, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Search returns all entries matching game.
func (c *Client) Search(ctx context.Context, game string) ([]Entry, error) {
	req := searchRequest{
		SearchType:  "games",
		SearchTerms: strings.Fields(game),
		SearchPage:  1,
		Size:        20,
	}
	var resp searchResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/api/search", req, &resp); err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search HowLongToBeat: %w", err)
	}
	return resp.Data, nil
}

// LengthLine returns "Main: Xh | Main+Extras: Yh | Completionist: Zh" for
// the closest match to game, or "" when nothing matches.
func (c *Client) LengthLine(ctx context.Context, game string) (string, error) {
	if strings.TrimSpace(game) == "" {
		return "", nil
	}
	entries, err := c.Search(ctx, game)
	if err != nil {
		return "", err
	}
	best, ok := BestMatch(game, entries)
	if !ok {
		return "", nil
	}
	return FormatLine(best), nil
}

func FormatLine(e Entry) string {
	return fmt.Sprintf("Main: %dh | Main+Extras: %dh | Completionist: %dh",
		hours(e.Main), hours(e.MainExtras), hours(e.Completionist))
}

func hours(seconds int) int {
	return seconds / 3600
}

// BestMatch picks the entry whose name is most similar to game. Ties keep
// the earlier entry.
func BestMatch(game string, entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	target := normalize(game)
	best, bestScore := 0, -1.0
	for i, e := range entries {
		if score := Similarity(target, normalize(e.Name)); score > bestScore {
			best, bestScore = i, score
		}
	}
	return entries[best], true
}

// normalize lower-cases, strips accents and drops punctuation so that
// "Pokémon: Red" and "pokemon red" compare equal.
func normalize(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity is 1 minus the edit distance over the longer length, in [0, 1].
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
