package scholar

import (
	"fmt"
	"strings"

	"github.com/matsen/litbot/internal/reference"
)

// FormatResults renders papers as the context block handed to the LLM.
func FormatResults(query string, papers []reference.Paper) string {
	if len(papers) == 0 {
		return fmt.Sprintf("0 results found for '%s'.", query)
	}

	var b strings.Builder
	for i, p := range papers {
		fmt.Fprintf(&b, "Paper %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
		fmt.Fprintf(&b, "Authors: %s\n", p.Authors)
		fmt.Fprintf(&b, "Year: %s\n", p.Year)
		fmt.Fprintf(&b, "Citations: %d\n", p.CitationCount)
		fmt.Fprintf(&b, "URL: %s\n\n", p.URL)
	}
	return b.String()
}
