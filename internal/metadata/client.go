// Package metadata talks to the OMDb-compatible movie metadata provider.
// Provider payloads are converted into the canonical movie.Movie shape here
// and nowhere else.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reelclub/movienight/internal/movie"
)

// ErrNotFound is returned when the provider explicitly reports that no
// movie matches the request.
var ErrNotFound = errors.New("movie not found")

// ErrUpstream is returned when the provider is unreachable, times out or
// responds with garbage. Handlers translate it to 502.
var ErrUpstream = errors.New("metadata provider unavailable")

// Client queries the metadata provider over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client for the given endpoint and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SearchItem is one row of a paged title search.
type SearchItem struct {
	ID     string `json:"imdb_id"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Type   string `json:"type"`
	Poster string `json:"poster"`
}

// SearchResult is a page of candidate matches plus the provider's total
// result count.
type SearchResult struct {
	Items []SearchItem `json:"items"`
	Total int          `json:"total"`
}

// providerRecord mirrors the provider's detail payload verbatim.
type providerRecord struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	Metascore  string `json:"Metascore"`
	IMDBRating string `json:"imdbRating"`
	IMDBID     string `json:"imdbID"`
	Type       string `json:"Type"`
	BoxOffice  string `json:"BoxOffice"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

type providerSearch struct {
	Search []struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		IMDBID string `json:"imdbID"`
		Type   string `json:"Type"`
		Poster string `json:"Poster"`
	} `json:"Search"`
	TotalResults string `json:"totalResults"`
	Response     string `json:"Response"`
	Error        string `json:"Error"`
}

// ByID fetches the full detail record for one external movie id.
func (c *Client) ByID(ctx context.Context, imdbID string) (movie.Movie, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("i", imdbID)

	var rec providerRecord
	if err := c.get(ctx, q, &rec); err != nil {
		return movie.Movie{}, err
	}
	if !strings.EqualFold(rec.Response, "True") {
		if strings.Contains(strings.ToLower(rec.Error), "not found") {
			return movie.Movie{}, ErrNotFound
		}
		return movie.Movie{}, fmt.Errorf("%w: %s", ErrUpstream, rec.Error)
	}
	return convert(rec), nil
}

// Search runs a free-text title search and returns the requested page plus
// the total match count.
func (c *Client) Search(ctx context.Context, query string, page int) (SearchResult, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("s", query)
	q.Set("page", strconv.Itoa(page))

	var rec providerSearch
	if err := c.get(ctx, q, &rec); err != nil {
		return SearchResult{}, err
	}
	if !strings.EqualFold(rec.Response, "True") {
		if strings.Contains(strings.ToLower(rec.Error), "not found") {
			return SearchResult{Items: []SearchItem{}}, nil
		}
		return SearchResult{}, fmt.Errorf("%w: %s", ErrUpstream, rec.Error)
	}

	out := SearchResult{Items: make([]SearchItem, 0, len(rec.Search))}
	out.Total, _ = strconv.Atoi(rec.TotalResults)
	for _, s := range rec.Search {
		out.Items = append(out.Items, SearchItem{
			ID:     s.IMDBID,
			Title:  s.Title,
			Year:   parseYear(s.Year),
			Type:   s.Type,
			Poster: cleanField(s.Poster),
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// convert maps a provider record into the canonical Movie type. Numeric
// fields come through as decorated strings ("136 min", "1999–") and the
// placeholder "N/A" stands in for absence.
func convert(rec providerRecord) movie.Movie {
	return movie.Movie{
		ID:         rec.IMDBID,
		Title:      cleanField(rec.Title),
		Year:       parseYear(rec.Year),
		RuntimeMin: parseRuntime(rec.Runtime),
		Poster:     cleanField(rec.Poster),
		Rated:      cleanField(rec.Rated),
		Released:   cleanField(rec.Released),
		Genre:      cleanField(rec.Genre),
		Director:   cleanField(rec.Director),
		Writer:     cleanField(rec.Writer),
		Actors:     cleanField(rec.Actors),
		Plot:       cleanField(rec.Plot),
		Language:   cleanField(rec.Language),
		Country:    cleanField(rec.Country),
		Awards:     cleanField(rec.Awards),
		IMDBRating: cleanField(rec.IMDBRating),
		Metascore:  cleanField(rec.Metascore),
		Type:       cleanField(rec.Type),
		BoxOffice:  cleanField(rec.BoxOffice),
	}
}

func cleanField(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "N/A") {
		return ""
	}
	return strings.TrimSpace(s)
}

// parseYear reads the leading digits of a year field ("1999", "2008–2013").
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

// parseRuntime reads minutes from fields like "136 min".
func parseRuntime(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(fields[0])
	return n
}
