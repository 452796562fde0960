// Package mock provides a simulated speech engine that "speaks" one word per
// tick. It is used for dry runs and tests.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/readaloud/internal/speech"
)

// Driver simulates an engine with word-boundary events.
type Driver struct {
	wordDelay time.Duration

	mu       sync.Mutex
	token    uint64
	cancel   context.CancelFunc
	playing  bool
	paused   bool
	resumeCh chan struct{}
	idle     func()
	spoken   []string
}

// New creates a mock driver that advances one word every wordDelay.
func New(wordDelay time.Duration) *Driver {
	if wordDelay <= 0 {
		wordDelay = 10 * time.Millisecond
	}
	return &Driver{wordDelay: wordDelay}
}

func (d *Driver) Supported() bool { return true }

// Speak starts a simulated utterance, superseding any current one.
func (d *Driver) Speak(text string, onEnd func(), onBoundary func(int)) error {
	if strings.TrimSpace(text) == "" {
		return speech.ErrEmptyText
	}

	d.mu.Lock()
	d.stopLocked()
	d.token++
	tok := d.token
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.playing = true
	d.spoken = append(d.spoken, text)
	d.mu.Unlock()

	go d.run(ctx, tok, speech.WordStarts(text), onEnd, onBoundary)
	return nil
}

func (d *Driver) run(ctx context.Context, tok uint64, starts []int, onEnd func(), onBoundary func(int)) {
	for _, off := range starts {
		if !d.current(tok) {
			return
		}
		if onBoundary != nil {
			onBoundary(off)
		}
		if !d.wait(ctx) {
			return
		}
	}

	d.mu.Lock()
	if tok != d.token {
		d.mu.Unlock()
		return
	}
	d.playing = false
	d.cancel = nil
	d.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
}

// wait sleeps one word, then blocks while paused.
func (d *Driver) wait(ctx context.Context) bool {
	timer := time.NewTimer(d.wordDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return false
	}

	for {
		d.mu.Lock()
		paused, ch := d.paused, d.resumeCh
		d.mu.Unlock()
		if !paused {
			return true
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return false
		}
	}
}

func (d *Driver) current(tok uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return tok == d.token
}

func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing || d.paused {
		return
	}
	d.paused = true
	d.resumeCh = make(chan struct{})
}

func (d *Driver) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumeLocked()
}

func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Driver) resumeLocked() {
	if !d.paused {
		return
	}
	d.paused = false
	close(d.resumeCh)
}

func (d *Driver) stopLocked() {
	d.token++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.resumeLocked()
	d.playing = false
}

func (d *Driver) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

func (d *Driver) IsPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

func (d *Driver) SetIdleHandler(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idle = fn
}

// Interrupt simulates a global stop control: the engine goes quiet without
// the caller asking, and the idle handler fires.
func (d *Driver) Interrupt() {
	d.mu.Lock()
	d.stopLocked()
	idle := d.idle
	d.mu.Unlock()
	if idle != nil {
		go idle()
	}
}

// Spoken returns the texts passed to Speak so far.
func (d *Driver) Spoken() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.spoken))
	copy(out, d.spoken)
	return out
}
