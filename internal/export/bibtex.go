// Package export provides functions to export papers to various formats.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matsen/litbot/internal/reference"
)

// ToBibTeX converts a paper to a BibTeX @misc entry. Sentinel fields are omitted.
func ToBibTeX(p reference.Paper) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@misc{%s,\n", CiteKey(p)))

	// Authors
	if authors := knownAuthors(p.Authors); len(authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(strings.Join(authors, " and "))))
	}

	// Title
	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	// Year
	if p.HasKnownYear() {
		b.WriteString(fmt.Sprintf("  year = {%s},\n", p.Year))
	}

	// URL (optional)
	if p.URL != "" && p.URL != reference.NoURL {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.URL))
	}

	// Abstract (optional, if present)
	if p.Abstract != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(p.Abstract)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple papers to BibTeX format. Cite keys that
// collide get -2, -3, ... suffixes.
func ToBibTeXList(papers []reference.Paper) string {
	seen := make(map[string]int)
	var entries []string
	for _, p := range papers {
		entry := ToBibTeX(p)
		key := CiteKey(p)
		seen[key]++
		if n := seen[key]; n > 1 {
			entry = strings.Replace(entry, "{"+key+",", fmt.Sprintf("{%s-%d,", key, n), 1)
		}
		entries = append(entries, entry)
	}
	return strings.Join(entries, "\n")
}

// CiteKey generates a citation key from paper metadata.
// Format: LastName + Year + 2-letter title suffix (e.g., "Vaswani2017-ai").
func CiteKey(p reference.Paper) string {
	lastName := "Unknown"
	if authors := knownAuthors(p.Authors); len(authors) > 0 {
		fields := strings.Fields(authors[0])
		if len(fields) > 0 {
			if s := sanitizeForCiteKey(fields[len(fields)-1]); s != "" {
				lastName = s
			}
		}
	}

	year := "9999"
	if p.HasKnownYear() {
		year = string(p.Year)
	}

	return fmt.Sprintf("%s%s-%s", lastName, year, titleSuffix(p.Title))
}

func knownAuthors(a reference.Authors) []string {
	var out []string
	for _, name := range a {
		if name != "" && name != reference.UnknownAuthors {
			out = append(out, name)
		}
	}
	return out
}

// sanitizeForCiteKey removes non-alphanumeric characters.
func sanitizeForCiteKey(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// titleSuffix creates a 2-letter suffix from the first significant title words.
func titleSuffix(title string) string {
	words := strings.Fields(strings.ToLower(title))
	stopWords := map[string]bool{"a": true, "an": true, "the": true, "of": true, "and": true, "in": true, "on": true, "for": true, "to": true, "with": true}

	var suffix strings.Builder
	for _, word := range words {
		r := []rune(sanitizeForCiteKey(word))
		if stopWords[word] || len(r) == 0 {
			continue
		}
		suffix.WriteRune(r[0])
		if suffix.Len() >= 2 {
			break
		}
	}

	// Pad if needed
	for suffix.Len() < 2 {
		suffix.WriteByte('x')
	}

	return suffix.String()
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
