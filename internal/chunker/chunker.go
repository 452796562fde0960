package chunker

import (
	"strings"
	"unicode"
)

// Config controls chunking behavior.
type Config struct {
	MaxLength  int     // Maximum chunk length in characters (runes).
	BreakRatio float64 // A break point must lie past MaxLength*BreakRatio to be used.
}

// DefaultConfig returns sensible defaults for speech synthesizers.
func DefaultConfig() Config {
	return Config{
		MaxLength:  500,
		BreakRatio: 0.7,
	}
}

// Chunk is a bounded piece of source text sized for one utterance.
type Chunk struct {
	Text  string `json:"text"`               // Trimmed chunk text, never empty.
	Start int    `json:"global_start_index"` // Rune offset of Text[0] within the source.
	Index int    `json:"index"`              // Sequence number within the source.
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return len([]rune(c.Text))
}

// IsBreak reports whether r ends a word: whitespace or one of . , ! ? ; : ( ) [ ] { } < > " '
func IsBreak(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '(', ')', '[', ']', '{', '}', '<', '>', '"', '\'':
		return true
	}
	return false
}

// Split breaks text into chunks of at most cfg.MaxLength runes, preferring to cut
// at a break character in the last part of each window. Offsets are rune offsets.
func Split(text string, cfg Config) []Chunk {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 500
	}
	if cfg.BreakRatio <= 0 || cfg.BreakRatio >= 1 {
		cfg.BreakRatio = 0.7
	}

	runes := []rune(text)
	n := len(runes)
	minBreak := float64(cfg.MaxLength) * cfg.BreakRatio

	var chunks []Chunk
	cursor := skipSpace(runes, 0)

	for cursor < n {
		end := min(cursor+cfg.MaxLength, n)

		// Search backwards for the last clean break in the window.
		breakAt := -1
		for i := end - 1; i >= cursor; i-- {
			if IsBreak(runes[i]) {
				breakAt = i - cursor
				break
			}
		}

		cut := end
		if breakAt != -1 && float64(breakAt) > minBreak {
			cut = cursor + breakAt + 1
		}

		if piece := strings.TrimSpace(string(runes[cursor:cut])); piece != "" {
			chunks = append(chunks, Chunk{
				Text:  piece,
				Start: cursor,
				Index: len(chunks),
			})
		}

		cursor = skipSpace(runes, cut)
	}

	return chunks
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}
