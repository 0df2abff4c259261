// Package notes stores timestamped research notes attached to cited papers,
// partitioned by conversation.
package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matsen/litbot/internal/storage"
)

// TimestampFormat is the layout of Note.Timestamp.
const TimestampFormat = "2006-01-02 15:04:05"

// Display sentinels.
const (
	EmptyMessage = "No notes found."
	UnknownPaper = "Unknown Paper"
)

var (
	// ErrEmptyNote is returned when the note text is blank.
	ErrEmptyNote = errors.New("note text is empty")
	// ErrNoteNotFound is returned when a note position does not exist.
	ErrNoteNotFound = errors.New("note not found")
	// ErrNoNotes is returned when there is nothing to clear.
	ErrNoNotes = errors.New("no notes to clear")
)

// Note is one timestamped annotation.
type Note struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// document is one conversation's notes: paper key -> notes in the order
// they were added.
type document map[string][]Note

// Store holds the notes of every conversation.
type Store struct {
	docs *storage.Partition[document]
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store persisted in kv.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{docs: storage.NewPartition[document](kv), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddNote appends text to the notes of paper key.
func (s *Store) AddNote(ctx context.Context, conv, key, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyNote
	}
	note := Note{Timestamp: s.now().Format(TimestampFormat), Text: text}
	return s.docs.Update(ctx, conv, func(doc *document) error {
		if *doc == nil {
			*doc = make(document)
		}
		(*doc)[key] = append((*doc)[key], note)
		return nil
	})
}

// Notes returns the notes of one paper, or of every paper when key is
// empty. Asking for a single paper always yields an entry for it, possibly
// with no notes.
func (s *Store) Notes(ctx context.Context, conv, key string) (map[string][]Note, error) {
	doc, err := s.docs.View(ctx, conv)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if doc == nil {
			return map[string][]Note{key: nil}, nil
		}
		return map[string][]Note{key: doc[key]}, nil
	}
	return doc, nil
}

// DeleteNote removes the note at zero-based position i.
func (s *Store) DeleteNote(ctx context.Context, conv, key string, i int) error {
	return s.docs.Update(ctx, conv, func(doc *document) error {
		list := (*doc)[key]
		if i < 0 || i >= len(list) {
			return ErrNoteNotFound
		}
		(*doc)[key] = append(list[:i:i], list[i+1:]...)
		return nil
	})
}

// ClearNotes removes all notes of paper key, or of the whole conversation
// when key is empty.
func (s *Store) ClearNotes(ctx context.Context, conv, key string) error {
	return s.docs.Update(ctx, conv, func(doc *document) error {
		if *doc == nil {
			return ErrNoNotes
		}
		if key == "" {
			*doc = make(document)
			return nil
		}
		if _, ok := (*doc)[key]; !ok {
			return ErrNoNotes
		}
		(*doc)[key] = []Note{}
		return nil
	})
}

// FormatNotes renders the notes of one paper or of every paper. titles maps
// paper keys to display labels; unresolved keys show as UnknownPaper.
func (s *Store) FormatNotes(ctx context.Context, conv, key string, titles map[string]string) (string, error) {
	byPaper, err := s.Notes(ctx, conv, key)
	if err != nil {
		return "", err
	}
	if len(byPaper) == 0 {
		return EmptyMessage, nil
	}

	keys := make([]string, 0, len(byPaper))
	for k := range byPaper {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Research Notes:\n\n")
	for _, k := range keys {
		title, ok := titles[k]
		if !ok {
			title = UnknownPaper
		}
		fmt.Fprintf(&b, "Paper: %s\n", title)

		list := byPaper[k]
		if len(list) == 0 {
			b.WriteString("  No notes for this paper.\n\n")
			continue
		}
		for i, n := range list {
			fmt.Fprintf(&b, "  Note %d [%s]:\n", i+1, n.Timestamp)
			fmt.Fprintf(&b, "  %s\n\n", n.Text)
		}
	}
	return b.String(), nil
}
