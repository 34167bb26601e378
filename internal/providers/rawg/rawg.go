// Package rawg reads release metadata from the RAWG video game database.
package rawg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamesage/internal/providers"
)

const DefaultBaseURL = "https://api.rawg.io/api"

const (
	maxGenres    = 3
	maxPlatforms = 4
)

type named struct {
	Name string `json:"name"`
}

type platformEntry struct {
	Platform named `json:"platform"`
}

// Game is a search hit.
type Game struct {
	ID           int             `json:"id"`
	Slug         string          `json:"slug"`
	Name         string          `json:"name"`
	Released     string          `json:"released"`
	Rating       float64         `json:"rating"`
	RatingsCount int             `json:"ratings_count"`
	Metacritic   *int            `json:"metacritic"`
	Platforms    []platformEntry `json:"platforms"`
	Genres       []named         `json:"genres"`
}

// Details is the full game record.
type Details struct {
	Game
	Developers []named `json:"developers"`
}

type searchResponse struct {
	Results []Game `json:"results"`
}

type Client struct {
	http    *providers.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

func New(httpClient *providers.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		now:     time.Now,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Search returns the best match for name, or nil.
func (c *Client) Search(ctx context.Context, name string) (*Game, error) {
	var resp searchResponse
	params := url.Values{"search": {name}, "page_size": {"1"}}
	if err := c.get(ctx, "games", params, &resp); err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search RAWG: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// Details fetches a game by slug or id.
func (c *Client) Details(ctx context.Context, slugOrID string) (*Details, error) {
	var d Details
	if err := c.get(ctx, "games/"+url.PathEscape(slugOrID), nil, &d); err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch RAWG details: %w", err)
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

// MetadataLine returns a one-line factual summary of the game: title and
// release, developer, genres, platforms and ratings. It returns "" when the
// game is unknown or no API key is configured.
func (c *Client) MetadataLine(ctx context.Context, game string) (string, error) {
	if !c.Enabled() || strings.TrimSpace(game) == "" {
		return "", nil
	}

	hit, err := c.Search(ctx, game)
	if err != nil || hit == nil {
		return "", err
	}

	var developers []named
	slug := hit.Slug
	if slug == "" {
		slug = strconv.Itoa(hit.ID)
	}
	details, err := c.Details(ctx, slug)
	if err != nil {
		return "", err
	}
	if details != nil {
		developers = details.Developers
	}

	return c.formatLine(*hit, developers), nil
}

func (c *Client) formatLine(g Game, developers []named) string {
	var bits []string

	title := g.Name
	if countdown := c.countdown(g.Released); countdown != "" {
		title += " (" + countdown + ")"
	}
	bits = append(bits, title)

	if names := names(developers, 0); names != "" {
		bits = append(bits, "Developer: "+names)
	}
	if names := names(g.Genres, maxGenres); names != "" {
		bits = append(bits, "Genres: "+names)
	}
	platforms := make([]named, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		platforms = append(platforms, p.Platform)
	}
	if names := names(platforms, maxPlatforms); names != "" {
		bits = append(bits, "Platforms: "+names)
	}
	if rating := RatingLine(g); rating != "" {
		bits = append(bits, rating)
	}

	for i := range bits {
		bits[i] += "."
	}
	return strings.Join(bits, " ")
}

// Countdown describes the release of a game relative to today.
func (c *Client) Countdown(ctx context.Context, game string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	hit, err := c.Search(ctx, game)
	if err != nil || hit == nil {
		return "", err
	}
	return c.countdown(hit.Released), nil
}

func (c *Client) countdown(released string) string {
	formatted := FormatDate(released)
	if formatted == "" {
		return ""
	}
	if days := DaysUntil(released, c.now()); days > 0 {
		return fmt.Sprintf("Releases on %s, %d days from now", formatted, days)
	}
	return "Released on " + formatted
}

// RatingLine summarizes user and critic scores, e.g.
// "RAWG: 4.42/5, 6231 ratings, Metacritic: 94/100".
func RatingLine(g Game) string {
	var parts []string
	if g.Rating > 0 {
		rounded := math.Round(g.Rating*100) / 100
		parts = append(parts, "RAWG: "+strconv.FormatFloat(rounded, 'f', -1, 64)+"/5")
	}
	if g.RatingsCount > 0 {
		parts = append(parts, fmt.Sprintf("%d ratings", g.RatingsCount))
	}
	if g.Metacritic != nil {
		parts = append(parts, fmt.Sprintf("Metacritic: %d/100", *g.Metacritic))
	}
	return strings.Join(parts, ", ")
}

// FormatDate turns "2022-02-25" into "25 Feb 2022". Unparseable input is
// returned unchanged.
func FormatDate(yyyymmdd string) string {
	if yyyymmdd == "" {
		return ""
	}
	t, err := time.Parse(time.DateOnly, yyyymmdd)
	if err != nil {
		return yyyymmdd
	}
	return t.Format("02 Jan 2006")
}

// DaysUntil returns the whole days from now until the date, or 0 when the
// date has passed or cannot be parsed.
func DaysUntil(yyyymmdd string, now time.Time) int {
	t, err := time.Parse(time.DateOnly, yyyymmdd)
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(t.Sub(today).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return days
}

func names(items []named, limit int) string {
	var out []string
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		out = append(out, it.Name)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return strings.Join(out, ", ")
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst interface{}) error {
	q := url.Values{"key": {c.apiKey}}
	for k, v := range params {
		q[k] = v
	}
	return c.http.GetJSON(ctx, c.baseURL+"/"+path, q, dst)
}
