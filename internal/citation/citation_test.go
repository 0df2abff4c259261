package citation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/litbot/internal/reference"
)

var fixedClock = Formatter{Now: func() time.Time {
	return time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
}}

func samplePaper(authors ...string) reference.Paper {
	return reference.Paper{
		Title:   "Attention Is All You Need",
		Authors: authors,
		Year:    "2017",
		URL:     "https://example.org/attention",
	}
}

func TestFormat_Styles(t *testing.T) {
	p := samplePaper("Vaswani", "Shazeer", "Parmar")

	tests := []struct {
		style string
		want  string
	}{
		{APA, "Vaswani, Shazeer, & Parmar (2017). Attention Is All You Need. Retrieved from https://example.org/attention"},
		{MLA, `Vaswani et al. "Attention Is All You Need." 2017. Web. Accessed 07 Mar. 2025. https://example.org/attention`},
		{Chicago, `Vaswani, Shazeer, and Parmar. "Attention Is All You Need." 2017. https://example.org/attention.`},
		{Harvard, "Vaswani, Shazeer and Parmar (2017). Attention Is All You Need. Available at: https://example.org/attention (Accessed: 07 March 2025)."},
		{IEEE, `Vaswani, Shazeer, Parmar, "Attention Is All You Need," 2017. [Online]. Available: https://example.org/attention`},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			assert.Equal(t, tt.want, fixedClock.Format(p, tt.style))
		})
	}
}

func TestFormat_AuthorJoining(t *testing.T) {
	one := samplePaper("Solo")
	two := samplePaper("A", "B")
	four := samplePaper("A", "B", "C", "D")

	assert.True(t, strings.HasPrefix(fixedClock.Format(one, APA), "Solo (2017)"))
	assert.True(t, strings.HasPrefix(fixedClock.Format(two, APA), "A & B (2017)"))
	assert.True(t, strings.HasPrefix(fixedClock.Format(two, MLA), "A and B."))
	assert.True(t, strings.HasPrefix(fixedClock.Format(four, Harvard), "A et al. (2017)"))
	assert.True(t, strings.HasPrefix(fixedClock.Format(four, Chicago), "A, B, C, and D."))
	assert.True(t, strings.HasPrefix(fixedClock.Format(four, IEEE), "A, B, C, D,"))
}

func TestFormat_UnknownStyleFallsBackToAPA(t *testing.T) {
	p := samplePaper("A", "B")
	assert.Equal(t, fixedClock.Format(p, APA), fixedClock.Format(p, "vancouver"))
	assert.Equal(t, fixedClock.Format(p, APA), fixedClock.Format(p, ""))
	assert.Equal(t, fixedClock.Format(p, MLA), fixedClock.Format(p, "MLA"))
}

func TestFormat_DeterministicStylesContainFields(t *testing.T) {
	p := samplePaper("A")
	for _, style := range []string{APA, Chicago, IEEE} {
		first := Format(p, style)
		second := Format(p, style)
		require.Equal(t, first, second, "style %s should be deterministic", style)
		assert.Contains(t, first, p.Title)
		assert.Contains(t, first, string(p.Year))
		assert.Contains(t, first, p.URL)
	}
}

func TestFormat_NoAuthors(t *testing.T) {
	p := samplePaper()
	assert.True(t, strings.HasPrefix(fixedClock.Format(p, IEEE), reference.UnknownAuthors))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, MLA, Normalize(" Mla "))
	assert.Equal(t, APA, Normalize("unknown"))
	assert.True(t, IsStyle("IEEE"))
	assert.False(t, IsStyle("bibtex"))
	assert.Equal(t, []string{APA, MLA, Chicago, Harvard, IEEE}, Styles())
}
