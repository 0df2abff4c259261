// Package bibliography keeps the per-conversation list of cited papers.
//
// Papers are deduplicated by reference.Paper.Key and kept in insertion
// order; a paper's 1-based position is its display index, the only paper
// identifier users type.
package bibliography

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/litbot/internal/citation"
	"github.com/matsen/litbot/internal/reference"
	"github.com/matsen/litbot/internal/storage"
)

// EmptyMessage is shown for a conversation with no cited papers.
const EmptyMessage = "No papers have been cited in this conversation."

// ErrNoPapers is returned when an operation needs at least one cited paper.
var ErrNoPapers = errors.New("no papers have been cited in this conversation")

// IndexError reports a display index that does not name a cited paper.
type IndexError struct {
	Raw   string // Index as the user typed it
	Count int    // Number of cited papers
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("paper %s not found (have %d)", e.Raw, e.Count)
}

// Entry is a cited paper together with its display index and key.
type Entry struct {
	Index int
	Key   string
	Paper reference.Paper
}

// Store is the bibliography for every conversation.
type Store struct {
	docs      *storage.Partition[[]reference.Paper]
	formatter citation.Formatter
}

// Option configures a Store.
type Option func(*Store)

// WithFormatter sets the citation formatter (tests pin its clock).
func WithFormatter(f citation.Formatter) Option {
	return func(s *Store) {
		s.formatter = f
	}
}

// New creates a Store persisted in kv.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		docs:      storage.NewPartition[[]reference.Paper](kv),
		formatter: citation.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPaper records p for conv unless a paper with the same key is already
// present, and returns the key either way.
func (s *Store) AddPaper(ctx context.Context, conv string, p reference.Paper) (string, error) {
	key := p.Key()
	err := s.docs.Update(ctx, conv, func(papers *[]reference.Paper) error {
		for _, existing := range *papers {
			if existing.Key() == key {
				return storage.ErrUnchanged
			}
		}
		*papers = append(*papers, p)
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Papers returns the cited papers in display order.
func (s *Store) Papers(ctx context.Context, conv string) ([]reference.Paper, error) {
	return s.docs.View(ctx, conv)
}

// GetByIndex resolves a display index as typed by the user. Non-numeric or
// out-of-range input reports ok=false.
func (s *Store) GetByIndex(ctx context.Context, conv, raw string) (Entry, bool, error) {
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return Entry{}, false, err
	}
	i, ok := parseIndex(raw, len(papers))
	if !ok {
		return Entry{}, false, nil
	}
	p := papers[i-1]
	return Entry{Index: i, Key: p.Key(), Paper: p}, true, nil
}

// TitleLabel returns "title (year)" for key.
func (s *Store) TitleLabel(ctx context.Context, conv, key string) (string, bool, error) {
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return "", false, err
	}
	for _, p := range papers {
		if p.Key() == key {
			return p.Label(), true, nil
		}
	}
	return "", false, nil
}

// Titles maps every cited paper key to its "title (year)" label.
func (s *Store) Titles(ctx context.Context, conv string) (map[string]string, error) {
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(papers))
	for _, p := range papers {
		titles[p.Key()] = p.Label()
	}
	return titles, nil
}

// FormatBibliography renders every cited paper in the given style.
func (s *Store) FormatBibliography(ctx context.Context, conv, style string) (string, error) {
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return EmptyMessage, nil
	}

	style = citation.Normalize(style)
	var b strings.Builder
	fmt.Fprintf(&b, "Bibliography (%s):\n\n", strings.ToUpper(style))
	for i, p := range papers {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, s.formatter.Format(p, style))
	}
	return b.String(), nil
}

// FormatPaperList renders numbered "title (year)" lines.
func (s *Store) FormatPaperList(ctx context.Context, conv string) (string, error) {
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return EmptyMessage, nil
	}

	var b strings.Builder
	b.WriteString("Cited Papers:\n\n")
	for i, p := range papers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Label())
	}
	return b.String(), nil
}

// Citation formats the paper at display index raw.
func (s *Store) Citation(ctx context.Context, conv, raw, style string) (string, error) {
	papers, err := s.Papers(ctx, conv)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return "", ErrNoPapers
	}
	i, ok := parseIndex(raw, len(papers))
	if !ok {
		return "", &IndexError{Raw: raw, Count: len(papers)}
	}
	return s.formatter.Format(papers[i-1], style), nil
}

// parseIndex converts a 1-based display index, checking it against n.
func parseIndex(raw string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i, true
}
