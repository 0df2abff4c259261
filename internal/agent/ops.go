package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/litbot/internal/bibliography"
	"github.com/matsen/litbot/internal/citation"
	"github.com/matsen/litbot/internal/export"
	"github.com/matsen/litbot/internal/notes"
	"github.com/matsen/litbot/internal/readinglist"
)

// Usage hints.
const (
	NoteUsage        = "Please include the note text, e.g. 'add note to paper 1: check the methodology'."
	ReadingListUsage = "Usage: reading_list <create|add|remove|view|delete> [list_name] [paper_index]\n" +
		"Examples:\n" +
		"  reading_list create ml\n" +
		"  reading_list add ml 1\n" +
		"  reading_list remove ml 1\n" +
		"  reading_list view ml\n" +
		"  reading_list delete ml"
)

// resolve looks up a paper by the display index the user typed.
func (a *Agent) resolve(ctx context.Context, conv, raw string) (bibliography.Entry, error) {
	e, ok, err := a.bib.GetByIndex(ctx, conv, raw)
	if err != nil {
		return e, err
	}
	if !ok {
		return e, paperNotFound(raw)
	}
	return e, nil
}

// AddNote attaches text to the paper at display index paper.
func (a *Agent) AddNote(ctx context.Context, conv, paper, text string) (string, error) {
	e, err := a.resolve(ctx, conv, paper)
	if err != nil {
		return "", err
	}
	if err := a.notes.AddNote(ctx, conv, e.Key, text); err != nil {
		if errors.Is(err, notes.ErrEmptyNote) {
			return "", &InputError{Message: NoteUsage}
		}
		return "", &ActionError{Message: "⚠ Failed to add note. Please try again.", Err: err}
	}
	return "✓ Note added to paper: " + e.Paper.Label(), nil
}

// ViewNotes shows the notes of one paper, or of all papers when paper is empty.
func (a *Agent) ViewNotes(ctx context.Context, conv, paper string) (string, error) {
	titles, err := a.bib.Titles(ctx, conv)
	if err != nil {
		return "", err
	}
	key := ""
	if paper != "" {
		e, err := a.resolve(ctx, conv, paper)
		if err != nil {
			return "", err
		}
		key = e.Key
	}
	return a.notes.FormatNotes(ctx, conv, key, titles)
}

// DeleteNote removes note number note (1-based) from a paper.
func (a *Agent) DeleteNote(ctx context.Context, conv, paper, note string) (string, error) {
	e, err := a.resolve(ctx, conv, paper)
	if err != nil {
		return "", err
	}
	notFound := inputErrorf("⚠ Note %s not found for paper %s.", note, paper)

	n, convErr := strconv.Atoi(strings.TrimSpace(note))
	if convErr != nil {
		return "", notFound
	}
	if err := a.notes.DeleteNote(ctx, conv, e.Key, n-1); err != nil {
		if errors.Is(err, notes.ErrNoteNotFound) {
			return "", notFound
		}
		return "", &ActionError{Message: "⚠ Failed to delete note. Please try again.", Err: err}
	}
	return fmt.Sprintf("✓ Note %s deleted from paper: %s", note, e.Paper.Label()), nil
}

// ClearNotes clears one paper's notes, or every note when paper is empty.
func (a *Agent) ClearNotes(ctx context.Context, conv, paper string) (string, error) {
	const failed = "⚠ Failed to clear notes. Please try again."

	if paper == "" {
		if err := a.notes.ClearNotes(ctx, conv, ""); err != nil {
			if errors.Is(err, notes.ErrNoNotes) {
				return "", &InputError{Message: notes.EmptyMessage}
			}
			return "", &ActionError{Message: failed, Err: err}
		}
		return "✓ All research notes have been cleared.", nil
	}

	e, err := a.resolve(ctx, conv, paper)
	if err != nil {
		return "", err
	}
	if err := a.notes.ClearNotes(ctx, conv, e.Key); err != nil {
		if errors.Is(err, notes.ErrNoNotes) {
			return "", inputErrorf("No notes found for paper: %s", e.Paper.Label())
		}
		return "", &ActionError{Message: failed, Err: err}
	}
	return "✓ All notes cleared for paper: " + e.Paper.Label(), nil
}

// CreateList creates an empty reading list.
func (a *Agent) CreateList(ctx context.Context, conv, name string) (string, error) {
	err := a.lists.CreateList(ctx, conv, name)
	switch {
	case err == nil:
		return fmt.Sprintf("✓ Created reading list '%s'.", strings.TrimSpace(name)), nil
	case errors.Is(err, readinglist.ErrListExists):
		return "", inputErrorf("⚠ Reading list '%s' already exists.", name)
	case errors.Is(err, readinglist.ErrInvalidName):
		return "", &InputError{Message: ReadingListUsage}
	}
	return "", &ActionError{Message: "⚠ Failed to create reading list. Please try again.", Err: err}
}

// AddToList adds the paper at display index paper to a list.
func (a *Agent) AddToList(ctx context.Context, conv, name, paper string) (string, error) {
	e, err := a.resolve(ctx, conv, paper)
	if err != nil {
		return "", err
	}
	err = a.lists.AddPaper(ctx, conv, name, e.Key)
	switch {
	case err == nil:
		return fmt.Sprintf("✓ Added to reading list '%s': %s", name, e.Paper.Label()), nil
	case errors.Is(err, readinglist.ErrListNotFound):
		return "", inputErrorf("Reading list '%s' not found.", name)
	}
	return "", &ActionError{Message: "⚠ Failed to add paper to reading list. Please try again.", Err: err}
}

// RemoveFromList removes the paper at display index paper from a list.
func (a *Agent) RemoveFromList(ctx context.Context, conv, name, paper string) (string, error) {
	e, err := a.resolve(ctx, conv, paper)
	if err != nil {
		return "", err
	}
	err = a.lists.RemovePaper(ctx, conv, name, e.Key)
	switch {
	case err == nil:
		return fmt.Sprintf("✓ Removed from reading list '%s': %s", name, e.Paper.Label()), nil
	case errors.Is(err, readinglist.ErrListNotFound):
		return "", inputErrorf("Reading list '%s' not found.", name)
	case errors.Is(err, readinglist.ErrNotInList):
		return "", inputErrorf("⚠ Paper %s is not in reading list '%s'.", paper, name)
	}
	return "", &ActionError{Message: "⚠ Failed to remove paper from reading list. Please try again.", Err: err}
}

// ViewLists shows one list, or an overview when name is empty.
func (a *Agent) ViewLists(ctx context.Context, conv, name string) (string, error) {
	titles, err := a.bib.Titles(ctx, conv)
	if err != nil {
		return "", err
	}
	return a.lists.FormatLists(ctx, conv, name, titles)
}

// DeleteList removes a reading list.
func (a *Agent) DeleteList(ctx context.Context, conv, name string) (string, error) {
	err := a.lists.DeleteList(ctx, conv, name)
	switch {
	case err == nil:
		return fmt.Sprintf("✓ Deleted reading list '%s'.", name), nil
	case errors.Is(err, readinglist.ErrListNotFound):
		return "", inputErrorf("Reading list '%s' not found.", name)
	}
	return "", &ActionError{Message: "⚠ Failed to delete reading list. Please try again.", Err: err}
}

// Related lists papers similar to the paper at display index paper.
func (a *Agent) Related(ctx context.Context, conv, paper string, limit int) (string, error) {
	return a.bib.FindRelated(ctx, conv, paper, limit)
}

// Cite formats one paper. An empty style means APA.
func (a *Agent) Cite(ctx context.Context, conv, paper, style string) (string, error) {
	return a.bib.Citation(ctx, conv, paper, citation.Normalize(style))
}

// Bibliography formats every cited paper.
func (a *Agent) Bibliography(ctx context.Context, conv, style string) (string, error) {
	return a.bib.FormatBibliography(ctx, conv, citation.Normalize(style))
}

// Papers lists cited papers by display index.
func (a *Agent) Papers(ctx context.Context, conv string) (string, error) {
	return a.bib.FormatPaperList(ctx, conv)
}

// BibTeX exports the bibliography as BibTeX entries.
func (a *Agent) BibTeX(ctx context.Context, conv string) (string, error) {
	papers, err := a.bib.Papers(ctx, conv)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return bibliography.EmptyMessage, nil
	}
	return export.ToBibTeXList(papers), nil
}

// Styles lists the supported citation styles.
func (a *Agent) Styles() string {
	names := make([]string, 0, len(citation.Styles()))
	for _, s := range citation.Styles() {
		names = append(names, strings.ToUpper(s))
	}
	return "Available citation styles: " + strings.Join(names, ", ")
}
