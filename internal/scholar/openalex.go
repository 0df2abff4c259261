package scholar

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/matsen/litbot/internal/reference"
)

const (
	// OpenAlexBaseURL is the OpenAlex API base URL.
	OpenAlexBaseURL = "https://api.openalex.org"

	// OpenAlexRateLimit stays under the polite-pool limit of 10 rps.
	OpenAlexRateLimit = 5.0

	openAlexSelect = "id,display_name,publication_year,cited_by_count,doi,primary_location,authorships,abstract_inverted_index"
)

// OpenAlex searches the OpenAlex works API.
type OpenAlex struct {
	http    *httpClient
	baseURL string
	mailto  string
}

// OpenAlexOption configures an OpenAlex client.
type OpenAlexOption func(*OpenAlex)

// WithMailto joins the polite pool.
func WithMailto(email string) OpenAlexOption {
	return func(c *OpenAlex) {
		c.mailto = email
	}
}

// WithOpenAlexBaseURL sets a custom base URL (for testing).
func WithOpenAlexBaseURL(u string) OpenAlexOption {
	return func(c *OpenAlex) {
		c.baseURL = u
	}
}

// NewOpenAlex creates a client.
func NewOpenAlex(opts ...OpenAlexOption) *OpenAlex {
	c := &OpenAlex{
		http:    newHTTPClient("openalex", OpenAlexRateLimit),
		baseURL: OpenAlexBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OpenAlex) Name() string { return "openalex" }

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	PublicationYear int    `json:"publication_year"`
	CitedByCount    int    `json:"cited_by_count"`
	DOI             string `json:"doi"`
	PrimaryLocation *struct {
		LandingPageURL string `json:"landing_page_url"`
	} `json:"primary_location"`
	Authorships []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Search runs a full-text works search.
func (c *OpenAlex) Search(ctx context.Context, query string, limit int) ([]reference.Paper, error) {
	u := fmt.Sprintf("%s/works?search=%s&per-page=%d&select=%s",
		c.baseURL, url.QueryEscape(query), limit, openAlexSelect)
	if c.mailto != "" {
		u += "&mailto=" + url.QueryEscape(c.mailto)
	}

	var resp openAlexResponse
	if err := c.http.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	papers := make([]reference.Paper, 0, len(resp.Results))
	for _, w := range resp.Results {
		papers = append(papers, mapOpenAlexWork(w))
	}
	return papers, nil
}

func mapOpenAlexWork(w openAlexWork) reference.Paper {
	authors := make(reference.Authors, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}

	// Prefer the DOI link, then the landing page, then the OpenAlex record.
	link := w.DOI
	if link == "" && w.PrimaryLocation != nil {
		link = w.PrimaryLocation.LandingPageURL
	}
	if link == "" {
		link = w.ID
	}

	return normalize(reference.Paper{
		Title:         w.DisplayName,
		Authors:       authors,
		Year:          reference.YearFromInt(w.PublicationYear),
		CitationCount: w.CitedByCount,
		URL:           link,
		Abstract:      rebuildAbstract(w.AbstractInvertedIndex),
		Source:        "openalex",
	})
}

// rebuildAbstract turns OpenAlex's inverted index (word -> positions) back
// into text.
func rebuildAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type slot struct {
		pos  int
		word string
	}
	var slots []slot
	for word, positions := range index {
		for _, p := range positions {
			slots = append(slots, slot{p, word})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].pos < slots[j].pos })

	words := make([]string, len(slots))
	for i, s := range slots {
		words[i] = s.word
	}
	return strings.Join(words, " ")
}
