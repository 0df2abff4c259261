package export

import (
	"strings"
	"testing"

	"github.com/matsen/litbot/internal/reference"
)

func TestToBibTeX_BasicPaper(t *testing.T) {
	p := reference.Paper{
		Title:    "Attention Is All You Need",
		Authors:  reference.Authors{"Ashish Vaswani", "Noam Shazeer"},
		Year:     "2017",
		URL:      "https://example.org/attention",
		Abstract: "We propose the Transformer",
	}

	got := ToBibTeX(p)

	if !strings.HasPrefix(got, "@misc{Vaswani2017-ai,") {
		t.Errorf("ToBibTeX() should start with @misc{Vaswani2017-ai, got:\n%s", got)
	}
	if !strings.Contains(got, `author = {Ashish Vaswani and Noam Shazeer}`) {
		t.Errorf("ToBibTeX() should contain joined authors, got:\n%s", got)
	}
	if !strings.Contains(got, `year = {2017}`) {
		t.Errorf("ToBibTeX() should contain year, got:\n%s", got)
	}
	if !strings.Contains(got, `url = {https://example.org/attention}`) {
		t.Errorf("ToBibTeX() should contain url, got:\n%s", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("ToBibTeX() should end with }\\n, got:\n%s", got)
	}
}

func TestToBibTeX_SentinelsOmitted(t *testing.T) {
	p := reference.Paper{}.WithDefaults()
	got := ToBibTeX(p)

	if strings.Contains(got, "author =") {
		t.Errorf("unknown authors should be omitted, got:\n%s", got)
	}
	if strings.Contains(got, "year =") {
		t.Errorf("unknown year should be omitted, got:\n%s", got)
	}
	if strings.Contains(got, "url =") {
		t.Errorf("missing url should be omitted, got:\n%s", got)
	}
	if !strings.HasPrefix(got, "@misc{Unknown9999-ut,") {
		t.Errorf("unexpected cite key, got:\n%s", got)
	}
}

func TestToBibTeX_EscapesLatex(t *testing.T) {
	p := reference.Paper{Title: "R&D at 100% of $cost", Year: "2020"}
	got := ToBibTeX(p)
	if !strings.Contains(got, `title = {R\&D at 100\% of \$cost}`) {
		t.Errorf("title not escaped, got:\n%s", got)
	}
}

func TestToBibTeXList_DedupesKeys(t *testing.T) {
	p := reference.Paper{Title: "Graph Neural Networks", Authors: reference.Authors{"Kipf"}, Year: "2017"}
	q := reference.Paper{Title: "Graph Networks Now", Authors: reference.Authors{"Kipf"}, Year: "2017"}

	got := ToBibTeXList([]reference.Paper{p, q})

	if !strings.Contains(got, "@misc{Kipf2017-gn,") {
		t.Errorf("missing first key, got:\n%s", got)
	}
	if !strings.Contains(got, "@misc{Kipf2017-gn-2,") {
		t.Errorf("missing deduplicated key, got:\n%s", got)
	}
}
