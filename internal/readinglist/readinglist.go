// Package readinglist stores named, ordered reading lists of paper keys,
// partitioned by conversation.
package readinglist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/litbot/internal/storage"
)

// EmptyMessage is shown when a conversation has no reading lists.
const EmptyMessage = "No reading lists found."

var (
	ErrInvalidName  = errors.New("reading list name is empty")
	ErrListExists   = errors.New("reading list already exists")
	ErrListNotFound = errors.New("reading list not found")
	ErrNotInList    = errors.New("paper is not in the reading list")
)

// document is one conversation's lists: name -> paper keys.
type document map[string][]string

// Store holds the reading lists of every conversation.
type Store struct {
	docs *storage.Partition[document]
}

// New creates a Store persisted in kv.
func New(kv storage.KV) *Store {
	return &Store{docs: storage.NewPartition[document](kv)}
}

// CreateList adds an empty list called name.
func (s *Store) CreateList(ctx context.Context, conv, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return s.docs.Update(ctx, conv, func(doc *document) error {
		if *doc == nil {
			*doc = make(document)
		}
		if _, ok := (*doc)[name]; ok {
			return ErrListExists
		}
		(*doc)[name] = []string{}
		return nil
	})
}

// AddPaper appends key to the list. Adding a paper that is already a
// member succeeds without changing the list.
func (s *Store) AddPaper(ctx context.Context, conv, name, key string) error {
	return s.docs.Update(ctx, conv, func(doc *document) error {
		list, ok := (*doc)[name]
		if !ok {
			return ErrListNotFound
		}
		for _, k := range list {
			if k == key {
				return storage.ErrUnchanged
			}
		}
		(*doc)[name] = append(list, key)
		return nil
	})
}

// RemovePaper drops key from the list.
func (s *Store) RemovePaper(ctx context.Context, conv, name, key string) error {
	return s.docs.Update(ctx, conv, func(doc *document) error {
		list, ok := (*doc)[name]
		if !ok {
			return ErrListNotFound
		}
		for i, k := range list {
			if k == key {
				(*doc)[name] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
		return ErrNotInList
	})
}

// DeleteList removes the list.
func (s *Store) DeleteList(ctx context.Context, conv, name string) error {
	return s.docs.Update(ctx, conv, func(doc *document) error {
		if _, ok := (*doc)[name]; !ok {
			return ErrListNotFound
		}
		delete(*doc, name)
		return nil
	})
}

// Lists returns every list of the conversation.
func (s *Store) Lists(ctx context.Context, conv string) (map[string][]string, error) {
	return s.docs.View(ctx, conv)
}

// List returns the paper keys of one list.
func (s *Store) List(ctx context.Context, conv, name string) ([]string, bool, error) {
	doc, err := s.docs.View(ctx, conv)
	if err != nil {
		return nil, false, err
	}
	keys, ok := doc[name]
	return keys, ok, nil
}

// FormatLists renders one list when name is set, otherwise an overview of
// all lists. titles maps paper keys to display labels.
func (s *Store) FormatLists(ctx context.Context, conv, name string, titles map[string]string) (string, error) {
	if name != "" {
		return s.formatList(ctx, conv, name, titles)
	}

	lists, err := s.Lists(ctx, conv)
	if err != nil {
		return "", err
	}
	if len(lists) == 0 {
		return EmptyMessage, nil
	}
	names := make([]string, 0, len(lists))
	for n := range lists {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Reading Lists:\n\n")
	for _, n := range names {
		fmt.Fprintf(&b, "📚 %s (%d papers)\n", n, len(lists[n]))
	}
	b.WriteString("\nUse '!reading_list view <list_name>' to see papers in a specific list.")
	return b.String(), nil
}

func (s *Store) formatList(ctx context.Context, conv, name string, titles map[string]string) (string, error) {
	keys, ok, err := s.List(ctx, conv, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Reading list '%s' not found.", name), nil
	}
	if len(keys) == 0 {
		return fmt.Sprintf("Reading list '%s' is empty.", name), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reading List: %s\n\n", name)
	for i, k := range keys {
		title, ok := titles[k]
		if !ok {
			title = "Unknown Paper"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	return b.String(), nil
}
