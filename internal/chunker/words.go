package chunker

import (
	"strings"
	"time"
)

// WordsPerMinute is the reading pace used for estimates.
const WordsPerMinute = 200

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates how long text takes to read, rounded up to whole minutes.
// This is a display estimate, not a speech duration.
func ReadingTime(text string) time.Duration {
	words := WordCount(text)
	if words == 0 {
		return 0
	}
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	return time.Duration(minutes) * time.Minute
}
