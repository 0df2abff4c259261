package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Match
	}{
		// Notes.
		{"add note to paper 1: check methodology", Match{Kind: NoteAdd, Paper: "1", Text: "check methodology"}},
		{"Add a note for paper 2:\nline one\nline two", Match{Kind: NoteAdd, Paper: "2", Text: "line one\nline two"}},
		{"add note to paper 1:", Match{Kind: NoteAdd, Paper: "1", Text: ""}},
		{"add note to paper x: hi", Match{Kind: NoteAdd, Paper: "x", Text: "hi"}},
		{"view notes for paper 3", Match{Kind: NoteView, Paper: "3"}},
		{"show notes on paper 3?", Match{Kind: NoteView, Paper: "3"}},
		{"view notes", Match{Kind: NoteViewAll}},
		{"show all my research notes", Match{Kind: NoteViewAll}},
		{"delete note 2 from paper 1", Match{Kind: NoteDelete, Note: "2", Paper: "1"}},
		{"clear notes for paper 4", Match{Kind: NoteClear, Paper: "4"}},
		{"clear all notes", Match{Kind: NoteClearAll}},

		// Reading lists.
		{"create reading list ml", Match{Kind: ListCreate, List: "ml"}},
		{"create a new reading list called 'deep learning'", Match{Kind: ListCreate, List: "deep learning"}},
		{"add paper 2 to reading list ml", Match{Kind: ListAdd, Paper: "2", List: "ml"}},
		{"add paper 2 to list related", Match{Kind: ListAdd, Paper: "2", List: "related"}},
		{"remove paper 2 from reading list ml", Match{Kind: ListRemove, Paper: "2", List: "ml"}},
		{"view reading list ml", Match{Kind: ListView, List: "ml"}},
		{"show my reading lists", Match{Kind: ListViewAll}},
		{"reading lists", Match{Kind: ListViewAll}},
		{"delete reading list ml", Match{Kind: ListDelete, List: "ml"}},
		{"reading_list create ml", Match{Kind: ListCreate, List: "ml"}},
		{"reading_list add ml 3", Match{Kind: ListAdd, List: "ml", Paper: "3"}},
		{"reading_list remove ml 3", Match{Kind: ListRemove, List: "ml", Paper: "3"}},
		{"reading_list view", Match{Kind: ListViewAll}},
		{"reading_list view ml", Match{Kind: ListView, List: "ml"}},
		{"reading_list delete ml", Match{Kind: ListDelete, List: "ml"}},
		{"reading_list add ml", Match{Kind: ListUsage}},
		{"reading_list frobnicate", Match{Kind: ListUsage}},
		{"reading_list", Match{Kind: ListUsage}},

		// Related, citation, bibliography.
		{"find papers related to paper 2", Match{Kind: Related, Paper: "2"}},
		{"anything similar to paper 3?", Match{Kind: Related, Paper: "3"}},
		{"cite paper 1 in MLA", Match{Kind: Cite, Paper: "1", Style: "mla"}},
		{"format paper 2 as the chicago style.", Match{Kind: Cite, Paper: "2", Style: "chicago"}},
		{"citation for paper 4", Match{Kind: Cite, Paper: "4"}},
		{"show bibliography", Match{Kind: Bibliography}},
		{"bibliography in IEEE", Match{Kind: Bibliography, Style: "ieee"}},
		{"show me the bibliography in harvard format", Match{Kind: Bibliography, Style: "harvard"}},
		{"list papers", Match{Kind: Papers}},
		{"show all cited papers", Match{Kind: Papers}},
		{"citation styles", Match{Kind: Styles}},
		{"what are the available citation styles?", Match{Kind: Styles}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassify_Fallback(t *testing.T) {
	for _, text := range []string{
		"What are the latest advances in protein folding?",
		"hello there",
		"list papers about transformers",
		"",
	} {
		got := Classify(text)
		assert.Equal(t, Fallback, got.Kind, text)
		assert.Equal(t, text, got.Text)
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Note commands win over everything that follows them in the table.
	got := Classify("add note to paper 1: cite paper 2 in apa, it is related to paper 3")
	assert.Equal(t, NoteAdd, got.Kind)

	// Reading-list commands win over related-paper requests.
	got = Classify("add paper 1 to reading list similar to paper 2")
	assert.Equal(t, ListAdd, got.Kind)

	// Related wins over cite when both fire.
	got = Classify("cite something related to paper 5")
	assert.Equal(t, Related, got.Kind)
}

func TestRules_Order(t *testing.T) {
	var kinds []Kind
	for _, r := range Rules() {
		kinds = append(kinds, r.Kind)
	}
	groups := []string{}
	for _, k := range kinds {
		g := k.Group()
		if len(groups) == 0 || groups[len(groups)-1] != g {
			groups = append(groups, g)
		}
	}
	assert.Equal(t, []string{"notes", "reading_list", "related", "cite", "bibliography", "papers", "styles"}, groups)
}
