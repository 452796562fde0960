// Package speech defines the contract between the reader and a text-to-speech engine.
package speech

import (
	"errors"

	"github.com/dgallion1/readaloud/internal/chunker"
)

var (
	ErrUnsupported = errors.New("speech engine is not supported on this system")
	ErrNoClient    = errors.New("no speech client is connected")
	ErrEmptyText   = errors.New("cannot speak empty text")
	ErrBusy        = errors.New("speech client is not accepting commands")
)

// Driver wraps a text-to-speech engine that speaks one utterance at a time.
//
// onEnd fires exactly once per Speak call unless the utterance is superseded
// by another Speak or by Stop, in which case neither callback fires again.
// onBoundary reports the rune offset, relative to text, of the word being
// spoken; engines may never call it. Callbacks are delivered from the
// driver's own goroutines, never from inside a Driver method call and never
// while the driver holds its own lock.
type Driver interface {
	Speak(text string, onEnd func(), onBoundary func(charIndex int)) error
	Pause()
	Resume()
	Stop()
	IsPlaying() bool
	IsPaused() bool

	// Supported is fixed when the driver is constructed.
	Supported() bool
}

// IdleNotifier is implemented by drivers that can tell when the engine stopped
// playing for a reason the caller did not request, such as a global stop control.
type IdleNotifier interface {
	SetIdleHandler(fn func())
}

// WordStarts returns the rune offsets at which words begin in text.
func WordStarts(text string) []int {
	var starts []int
	inWord := false
	i := 0
	for _, r := range text {
		brk := chunker.IsBreak(r)
		if !brk && !inWord {
			starts = append(starts, i)
		}
		inWord = !brk
		i++
	}
	return starts
}
