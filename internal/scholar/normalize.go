package scholar

import (
	"strings"

	"github.com/matsen/litbot/internal/reference"
)

// normalize trims provider text and fills missing fields with the
// reference sentinels, so downstream code never sees empty fields.
func normalize(p reference.Paper) reference.Paper {
	p.Title = collapseSpace(p.Title)
	p.Abstract = collapseSpace(p.Abstract)
	p.URL = strings.TrimSpace(p.URL)
	for i, a := range p.Authors {
		p.Authors[i] = collapseSpace(a)
	}
	return p.WithDefaults()
}

// collapseSpace joins runs of whitespace (providers embed newlines in titles).
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
