package bibliography

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/matsen/litbot/internal/reference"
)

// DefaultRelated is the number of related papers shown when none is given.
const DefaultRelated = 5

// Similarity weights.
const (
	authorWeight   = 0.4
	titleWeight    = 0.3
	abstractWeight = 0.2
	yearWeight     = 0.1
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "onto": true, "that": true, "this": true, "these": true,
	"those": true, "are": true, "was": true, "were": true, "been": true,
	"being": true, "has": true, "have": true, "had": true, "its": true,
	"their": true, "our": true, "about": true, "over": true, "under": true,
	"between": true, "using": true, "via": true, "than": true, "but": true,
	"not": true, "can": true,
}

// Match is a paper scored against a target.
type Match struct {
	Entry
	Score       float64
	Explanation string
}

// Related scores every other cited paper against the paper at display index
// raw and returns the top limit with a positive score, best first. Papers with
// equal scores keep their display order.
func (s *Store) Related(ctx context.Context, conv, raw string, limit int) (Entry, []Match, error) {
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return Entry{}, nil, err
	}
	if len(papers) == 0 {
		return Entry{}, nil, ErrNoPapers
	}
	i, ok := parseIndex(raw, len(papers))
	if !ok {
		return Entry{}, nil, &IndexError{Raw: raw, Count: len(papers)}
	}
	if limit <= 0 {
		limit = DefaultRelated
	}

	target := papers[i-1]
	var matches []Match
	for j, p := range papers {
		if j == i-1 {
			continue
		}
		score := Score(target, p)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{
			Entry:       Entry{Index: j + 1, Key: p.Key(), Paper: p},
			Score:       score,
			Explanation: Explain(target, p),
		})
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return Entry{Index: i, Key: target.Key(), Paper: target}, matches, nil
}

// FindRelated renders Related for display.
func (s *Store) FindRelated(ctx context.Context, conv, raw string, limit int) (string, error) {
	target, matches, err := s.Related(ctx, conv, raw, limit)
	if err != nil {
		return "", err
	}
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return "", err
	}
	if len(papers) == 1 {
		return fmt.Sprintf("Only one paper has been cited, so there is nothing to compare %q with.", target.Paper.Label()), nil
	}
	if len(matches) == 0 {
		return fmt.Sprintf("No related papers found for %q.", target.Paper.Label()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Papers related to %q:\n\n", target.Paper.Label())
	for _, m := range matches {
		fmt.Fprintf(&b, "%d. %s (similarity: %.2f)\n", m.Index, m.Paper.Label(), m.Score)
		fmt.Fprintf(&b, "   %s\n\n", m.Explanation)
	}
	return b.String(), nil
}

// Score returns the weighted similarity of a and b in [0, 1].
func Score(a, b reference.Paper) float64 {
	score := authorWeight*authorOverlap(a, b) +
		titleWeight*jaccard(tokens(a.Title), tokens(b.Title)) +
		abstractWeight*jaccard(tokens(a.Abstract), tokens(b.Abstract))
	if sameYear(a, b) {
		score += yearWeight
	}
	if score > 1 {
		score = 1
	}
	return score
}

// Explain describes why a and b scored as similar.
func Explain(a, b reference.Paper) string {
	var parts []string
	if shared := sharedAuthors(a, b); len(shared) > 0 {
		parts = append(parts, "Shared authors: "+strings.Join(shared, ", "))
	}
	if kw := sharedKeywords(a.Title, b.Title, 3); len(kw) > 0 {
		parts = append(parts, "Common title keywords: "+strings.Join(kw, ", "))
	}
	if sameYear(a, b) {
		parts = append(parts, fmt.Sprintf("Published in the same year (%s)", a.Year))
	}
	if len(parts) == 0 {
		return "Related by overall topic similarity."
	}
	return strings.Join(parts, "; ") + "."
}

func sameYear(a, b reference.Paper) bool {
	return a.HasKnownYear() && b.HasKnownYear() && a.Year == b.Year
}

// authorSet lower-cases names and drops the unknown sentinel.
func authorSet(p reference.Paper) map[string]bool {
	set := make(map[string]bool, len(p.Authors))
	for _, name := range p.Authors {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || name == strings.ToLower(reference.UnknownAuthors) {
			continue
		}
		set[name] = true
	}
	return set
}

// authorOverlap is the number of shared authors over the larger author set.
func authorOverlap(a, b reference.Paper) float64 {
	sa, sb := authorSet(a), authorSet(b)
	larger := len(sa)
	if len(sb) > larger {
		larger = len(sb)
	}
	if larger == 0 {
		return 0
	}
	shared := 0
	for name := range sa {
		if sb[name] {
			shared++
		}
	}
	return float64(shared) / float64(larger)
}

// sharedAuthors lists a's authors that also appear in b, in a's order.
func sharedAuthors(a, b reference.Paper) []string {
	sb := authorSet(b)
	var out []string
	seen := make(map[string]bool)
	for _, name := range a.Authors {
		key := strings.ToLower(strings.TrimSpace(name))
		if sb[key] && !seen[key] {
			seen[key] = true
			out = append(out, strings.TrimSpace(name))
		}
	}
	return out
}

// tokenList splits text into lower-cased words of three or more characters
// that are not stop words, keeping repeats.
func tokenList(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 3 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func tokens(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenList(text) {
		set[t] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// sharedKeywords returns up to n title words present in both titles, most
// frequent across the two titles first, ties in order of appearance in a.
func sharedKeywords(a, b string, n int) []string {
	la, lb := tokenList(a), tokenList(b)
	inB := make(map[string]bool, len(lb))
	counts := make(map[string]int)
	for _, t := range lb {
		inB[t] = true
		counts[t]++
	}
	var order []string
	for _, t := range la {
		counts[t]++
		if inB[t] && !contains(order, t) {
			order = append(order, t)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
