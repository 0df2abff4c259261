package chunk

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

// reassemble checks that chunks are the original text with only the
// leading whitespace of each remainder removed.
func reassemble(t *testing.T, text string, chunks []string) {
	t.Helper()
	rest := text
	for i, c := range chunks {
		if i > 0 {
			rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		}
		if !strings.HasPrefix(rest, c) {
			t.Fatalf("chunk %d does not continue the text", i)
		}
		rest = rest[len(c):]
	}
	if strings.TrimSpace(rest) != "" {
		t.Fatalf("text left over after chunks: %q", rest)
	}
}

func TestSplit_Short(t *testing.T) {
	chunks := Split("hello", DefaultLimit)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("Split(short) = %q", chunks)
	}
	if got := Split("", DefaultLimit); len(got) != 1 || got[0] != "" {
		t.Errorf("Split(empty) = %q", got)
	}
}

func TestSplit_NewlineBeforeLimit(t *testing.T) {
	text := strings.Repeat("a", 1800) + "\n" + strings.Repeat("b", 699)
	if n := len(text); n != 2500 {
		t.Fatalf("setup: len = %d", n)
	}

	chunks := Split(text, DefaultLimit)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if len(chunks[0]) != 1800 {
		t.Errorf("first chunk = %d chars, want 1800", len(chunks[0]))
	}
	if chunks[1] != strings.Repeat("b", 699) {
		t.Errorf("second chunk = %q...", chunks[1][:10])
	}
	reassemble(t, text, chunks)
}

func TestSplit_HardCut(t *testing.T) {
	text := strings.Repeat("x", 4500)
	chunks := Split(text, DefaultLimit)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, want := range []int{2000, 2000, 500} {
		if len(chunks[i]) != want {
			t.Errorf("chunk %d = %d chars, want %d", i, len(chunks[i]), want)
		}
	}
	reassemble(t, text, chunks)
}

func TestSplit_CountsRunes(t *testing.T) {
	text := strings.Repeat("é", 2001)
	chunks := Split(text, DefaultLimit)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if n := utf8.RuneCountInString(chunks[0]); n != 2000 {
		t.Errorf("first chunk = %d runes, want 2000", n)
	}
}

func TestSplit_Properties(t *testing.T) {
	lines := []string{"Paper 1:", "Title: Something long", "", "  indented", strings.Repeat("w", 300)}
	var b strings.Builder
	for i := 0; b.Len() < 9000; i++ {
		b.WriteString(lines[i%len(lines)])
		b.WriteString("\n")
	}
	text := b.String()

	for _, limit := range []int{50, 333, DefaultLimit} {
		chunks := Split(text, limit)
		for i, c := range chunks {
			if n := utf8.RuneCountInString(c); n > limit {
				t.Errorf("limit %d: chunk %d has %d runes", limit, i, n)
			}
		}
		reassemble(t, text, chunks)
	}
}
