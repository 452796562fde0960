// Package highlight projects speech boundary offsets onto the source document.
//
// Ranges are always absolute rune offsets into the full source text, so a
// renderer never needs to know how the text was chunked.
package highlight

import "github.com/dgallion1/readaloud/internal/chunker"

// Range marks the word currently being spoken as [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Project maps a chunk-relative boundary offset to the absolute range of the
// word starting there. It reports false when the boundary lands on a break
// character or falls outside the source.
func Project(source []rune, chunkStart, charIndex int) (Range, bool) {
	if chunkStart < 0 || charIndex < 0 {
		return Range{}, false
	}
	start := chunkStart + charIndex
	if start >= len(source) {
		return Range{}, false
	}

	end := start
	for end < len(source) && !chunker.IsBreak(source[end]) {
		end++
	}
	if end == start {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// Split cuts text around r for rendering. An invalid range leaves the whole
// text in before.
func Split(text string, r Range) (before, word, after string) {
	runes := []rune(text)
	if r.Start < 0 || r.Start >= len(runes) || r.End <= r.Start {
		return text, "", ""
	}
	end := min(r.End, len(runes))
	return string(runes[:r.Start]), string(runes[r.Start:end]), string(runes[end:])
}
