package scholar

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"golang.org/x/time/rate"

	"github.com/matsen/litbot/internal/reference"
)

const (
	// S2BaseURL is the Semantic Scholar Graph API base URL.
	S2BaseURL = "https://api.semanticscholar.org/graph/v1"

	// S2RateLimit is one request per second, the keyed S2 allowance.
	S2RateLimit = 1.0

	s2SearchFields = "title,authors,year,abstract,citationCount,url,externalIds"
)

// SemanticScholar searches the Semantic Scholar Graph API.
type SemanticScholar struct {
	http    *httpClient
	baseURL string
}

// S2Option configures a SemanticScholar client.
type S2Option func(*SemanticScholar)

// WithS2APIKey sets the x-api-key header.
func WithS2APIKey(key string) S2Option {
	return func(c *SemanticScholar) {
		if key != "" {
			c.http.headers["x-api-key"] = key
		}
	}
}

// WithS2BaseURL sets a custom base URL (for testing).
func WithS2BaseURL(u string) S2Option {
	return func(c *SemanticScholar) {
		c.baseURL = u
	}
}

// WithS2RateLimit overrides the request rate.
func WithS2RateLimit(rps float64) S2Option {
	return func(c *SemanticScholar) {
		c.http.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewSemanticScholar creates a client. S2_API_KEY is used when set.
func NewSemanticScholar(opts ...S2Option) *SemanticScholar {
	c := &SemanticScholar{
		http:    newHTTPClient("semantic_scholar", S2RateLimit),
		baseURL: S2BaseURL,
	}
	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.http.headers["x-api-key"] = key
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SemanticScholar) Name() string { return "semantic_scholar" }

type s2SearchResponse struct {
	Total int       `json:"total"`
	Data  []s2Paper `json:"data"`
}

type s2Paper struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Year          int    `json:"year"`
	CitationCount int    `json:"citationCount"`
	URL           string `json:"url"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
}

// Search runs a relevance search.
func (c *SemanticScholar) Search(ctx context.Context, query string, limit int) ([]reference.Paper, error) {
	u := fmt.Sprintf("%s/paper/search?query=%s&limit=%d&fields=%s",
		c.baseURL, url.QueryEscape(query), limit, s2SearchFields)

	var resp s2SearchResponse
	if err := c.http.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	papers := make([]reference.Paper, 0, len(resp.Data))
	for _, p := range resp.Data {
		papers = append(papers, mapS2Paper(p))
	}
	return papers, nil
}

// mapS2Paper converts an S2 record to a Paper with sentinels filled in.
func mapS2Paper(p s2Paper) reference.Paper {
	authors := make(reference.Authors, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	link := p.URL
	if link == "" && p.ExternalIDs.DOI != "" {
		link = "https://doi.org/" + p.ExternalIDs.DOI
	}
	return normalize(reference.Paper{
		Title:         p.Title,
		Authors:       authors,
		Year:          reference.YearFromInt(p.Year),
		CitationCount: p.CitationCount,
		URL:           link,
		Abstract:      p.Abstract,
		Source:        "semantic_scholar",
	})
}
