// Package reference defines the core domain type for academic papers.
package reference

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Sentinels used when a search provider omits a field.
const (
	UnknownTitle   = "Unknown Title"
	UnknownAuthors = "Unknown Authors"
	UnknownYear    = "Unknown Year"
	NoURL          = "No URL available"
)

// Paper represents an academic paper as returned by a search provider.
// A Paper is never modified after it is stored.
type Paper struct {
	Title         string  `json:"title"`
	Authors       Authors `json:"authors"`
	Year          Year    `json:"year"`
	CitationCount int     `json:"citations"`
	URL           string  `json:"url"`
	Abstract      string  `json:"abstract,omitempty"` // Abstract or search snippet
	Source        string  `json:"source,omitempty"`   // Provider that returned the paper
}

// Key returns the deduplication key for the paper: "{title}_{year}".
func (p Paper) Key() string {
	return fmt.Sprintf("%s_%s", p.Title, p.Year)
}

// Label returns "title (year)", the form used in paper lists.
func (p Paper) Label() string {
	return fmt.Sprintf("%s (%s)", p.Title, p.Year)
}

// WithDefaults fills missing fields with the Unknown sentinels.
func (p Paper) WithDefaults() Paper {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = UnknownTitle
	}
	if len(p.Authors) == 0 {
		p.Authors = Authors{UnknownAuthors}
	}
	if strings.TrimSpace(string(p.Year)) == "" || p.Year == "0" {
		p.Year = UnknownYear
	}
	if p.CitationCount < 0 {
		p.CitationCount = 0
	}
	if strings.TrimSpace(p.URL) == "" {
		p.URL = NoURL
	}
	return p
}

// HasKnownYear reports whether the year is an actual year rather than the sentinel.
func (p Paper) HasKnownYear() bool {
	return p.Year != "" && p.Year != UnknownYear
}

// Authors is an ordered author list. It decodes from either a JSON array or
// a single comma-separated string, since providers disagree on the shape.
type Authors []string

// String joins the authors with ", ".
func (a Authors) String() string {
	return strings.Join(a, ", ")
}

// UnmarshalJSON accepts ["A", "B"] or "A, B".
func (a *Authors) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("authors must be a string or a list of strings: %w", err)
	}
	*a = ParseAuthors(s)
	return nil
}

// ParseAuthors splits a provider author string on ", ".
func ParseAuthors(s string) Authors {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ", ")
	out := make(Authors, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Year is a publication year kept as text so "Unknown Year" survives
// round trips. It decodes from a JSON string or number.
type Year string

// UnmarshalJSON accepts "2020" or 2020.
func (y *Year) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = Year(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("year must be a string or an integer: %w", err)
	}
	*y = YearFromInt(n)
	return nil
}

// YearFromInt converts a numeric year, mapping 0 to the empty year.
func YearFromInt(n int) Year {
	if n <= 0 {
		return ""
	}
	return Year(strconv.Itoa(n))
}
