// Package citation formats papers in a fixed set of citation styles.
package citation

import (
	"fmt"
	"strings"
	"time"

	"github.com/matsen/litbot/internal/reference"
)

// Supported styles.
const (
	APA     = "apa"
	MLA     = "mla"
	Chicago = "chicago"
	Harvard = "harvard"
	IEEE    = "ieee"

	// DefaultStyle is used when a style is missing or unrecognized.
	DefaultStyle = APA
)

// styles lists the supported styles in display order.
var styles = []string{APA, MLA, Chicago, Harvard, IEEE}

// Styles returns the supported style names.
func Styles() []string {
	out := make([]string, len(styles))
	copy(out, styles)
	return out
}

// IsStyle reports whether name (case-insensitive) is a supported style.
func IsStyle(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range styles {
		if s == name {
			return true
		}
	}
	return false
}

// Normalize lower-cases a style name and falls back to APA when it is unknown.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if IsStyle(name) {
		return name
	}
	return DefaultStyle
}

// Formatter renders citations. MLA and Harvard embed the access date, which
// comes from Now so tests can pin it.
type Formatter struct {
	Now func() time.Time
}

// Default is the formatter backed by the wall clock.
var Default = Formatter{Now: time.Now}

// Format renders p in the given style using the wall clock.
func Format(p reference.Paper, style string) string {
	return Default.Format(p, style)
}

// Format renders p in the given style. Unknown styles fall back to APA.
func (f Formatter) Format(p reference.Paper, style string) string {
	switch Normalize(style) {
	case MLA:
		return fmt.Sprintf("%s. \"%s.\" %s. Web. Accessed %s. %s",
			mlaAuthors(p.Authors), p.Title, p.Year, f.now().Format("02 Jan. 2006"), p.URL)
	case Chicago:
		return fmt.Sprintf("%s. \"%s.\" %s. %s.", chicagoAuthors(p.Authors), p.Title, p.Year, p.URL)
	case Harvard:
		return fmt.Sprintf("%s (%s). %s. Available at: %s (Accessed: %s).",
			harvardAuthors(p.Authors), p.Year, p.Title, p.URL, f.now().Format("02 January 2006"))
	case IEEE:
		return fmt.Sprintf("%s, \"%s,\" %s. [Online]. Available: %s", ieeeAuthors(p.Authors), p.Title, p.Year, p.URL)
	default:
		return fmt.Sprintf("%s (%s). %s. Retrieved from %s", apaAuthors(p.Authors), p.Year, p.Title, p.URL)
	}
}

func (f Formatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// names returns the author list, substituting the sentinel when empty.
func names(a reference.Authors) []string {
	if len(a) == 0 {
		return []string{reference.UnknownAuthors}
	}
	return a
}

// apaAuthors: "A", "A & B", "A, B, & C".
func apaAuthors(a reference.Authors) string {
	n := names(a)
	switch len(n) {
	case 1:
		return n[0]
	case 2:
		return n[0] + " & " + n[1]
	default:
		return strings.Join(n[:len(n)-1], ", ") + ", & " + n[len(n)-1]
	}
}

// mlaAuthors: "A", "A and B", "A et al".
func mlaAuthors(a reference.Authors) string {
	n := names(a)
	switch {
	case len(n) == 1:
		return n[0]
	case len(n) == 2:
		return n[0] + " and " + n[1]
	default:
		return n[0] + " et al"
	}
}

// chicagoAuthors lists every author: "A and B", "A, B, and C".
func chicagoAuthors(a reference.Authors) string {
	n := names(a)
	switch len(n) {
	case 1:
		return n[0]
	case 2:
		return n[0] + " and " + n[1]
	default:
		return strings.Join(n[:len(n)-1], ", ") + ", and " + n[len(n)-1]
	}
}

// harvardAuthors: up to three authors listed, four or more abbreviated.
func harvardAuthors(a reference.Authors) string {
	n := names(a)
	switch {
	case len(n) == 1:
		return n[0]
	case len(n) == 2:
		return n[0] + " and " + n[1]
	case len(n) > 3:
		return n[0] + " et al."
	default:
		return strings.Join(n[:len(n)-1], ", ") + " and " + n[len(n)-1]
	}
}

func ieeeAuthors(a reference.Authors) string {
	return strings.Join(names(a), ", ")
}
