// Package chunk splits long replies into transport-sized pieces.
package chunk

import "unicode"

// DefaultLimit is the largest chunk, in characters, most chat transports accept.
const DefaultLimit = 2000

// Split breaks text into chunks of at most limit runes. Each cut is made
// after the last newline inside the window, or at exactly limit runes when
// the window has none. Whitespace at the start of the remainder is
// dropped. Text within the limit is returned as a single chunk.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		window := runes[:limit]
		cut := lastIndex(window, '\n')
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = trimLeftSpace(runes[cut:])
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastIndex(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

func trimLeftSpace(rs []rune) []rune {
	i := 0
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return rs[i:]
}
