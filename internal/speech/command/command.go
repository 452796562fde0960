// Package command drives a local text-to-speech program such as espeak-ng or
// say. Text is written to the program's stdin; word boundaries are estimated
// from a words-per-minute rate since command-line engines do not report them.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/readaloud/internal/speech"
)

// Config selects the speech program.
type Config struct {
	Binary         string
	Args           []string
	WordsPerMinute int
}

// DefaultConfig uses espeak-ng reading from stdin.
func DefaultConfig() Config {
	return Config{
		Binary:         "espeak-ng",
		Args:           []string{"--stdin"},
		WordsPerMinute: 175,
	}
}

// Driver runs one speech process per utterance. Pause kills the process and
// Resume starts a new one from the last reported word.
type Driver struct {
	cfg       Config
	log       *slog.Logger
	supported bool

	mu         sync.Mutex
	token      uint64
	cancel     context.CancelFunc
	playing    bool
	paused     bool
	text       []rune
	resumeAt   int
	onEnd      func()
	onBoundary func(int)
	idle       func()
}

// New resolves the program on PATH. A missing program leaves the driver
// unsupported.
func New(cfg Config, log *slog.Logger) *Driver {
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = DefaultConfig().WordsPerMinute
	}
	d := &Driver{cfg: cfg, log: log.With("component", "speech", "driver", "command")}
	if path, err := exec.LookPath(cfg.Binary); err == nil {
		d.cfg.Binary = path
		d.supported = true
	} else {
		d.log.Warn("speech program not found", "binary", cfg.Binary, "error", err)
	}
	return d
}

func (d *Driver) Supported() bool { return d.supported }

func (d *Driver) Speak(text string, onEnd func(), onBoundary func(int)) error {
	if !d.supported {
		return speech.ErrUnsupported
	}
	if strings.TrimSpace(text) == "" {
		return speech.ErrEmptyText
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.text = []rune(text)
	d.resumeAt = 0
	d.onEnd = onEnd
	d.onBoundary = onBoundary
	return d.startLocked(0)
}

// startLocked launches the program on the text from rune offset from.
func (d *Driver) startLocked(from int) error {
	part := string(d.text[from:])

	d.token++
	tok := d.token
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, d.cfg.Binary, d.cfg.Args...)
	cmd.Stdin = strings.NewReader(part)
	if err := cmd.Start(); err != nil {
		cancel()
		d.playing = false
		return fmt.Errorf("start %s: %w", d.cfg.Binary, err)
	}

	d.cancel = cancel
	d.playing = true
	d.paused = false

	go d.estimateBoundaries(ctx, tok, from, part)
	go d.wait(cmd, tok, cancel)
	return nil
}

func (d *Driver) wordDelay() time.Duration {
	return time.Minute / time.Duration(d.cfg.WordsPerMinute)
}

func (d *Driver) estimateBoundaries(ctx context.Context, tok uint64, from int, part string) {
	delay := d.wordDelay()
	for i, off := range speech.WordStarts(part) {
		if i > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		d.mu.Lock()
		if tok != d.token {
			d.mu.Unlock()
			return
		}
		d.resumeAt = from + off
		cb := d.onBoundary
		d.mu.Unlock()

		if cb != nil {
			cb(from + off)
		}
	}
}

func (d *Driver) wait(cmd *exec.Cmd, tok uint64, cancel context.CancelFunc) {
	err := cmd.Wait()
	cancel()

	d.mu.Lock()
	if tok != d.token {
		d.mu.Unlock()
		return
	}
	d.token++
	d.playing = false
	d.cancel = nil
	onEnd, idle := d.onEnd, d.idle
	d.onEnd, d.onBoundary = nil, nil
	d.mu.Unlock()

	if err != nil {
		// Killed from outside or crashed: report it as an external stop.
		d.log.Warn("speech program exited", "error", err)
		if idle != nil {
			idle()
		}
		return
	}
	if onEnd != nil {
		onEnd()
	}
}

func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing || d.paused {
		return
	}
	d.token++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.paused = true
}

func (d *Driver) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.paused {
		return
	}
	d.paused = false
	if err := d.startLocked(d.resumeAt); err != nil {
		d.log.Error("resume speech", "error", err)
		d.onEnd, d.onBoundary = nil, nil
		if idle := d.idle; idle != nil {
			go idle()
		}
	}
}

func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Driver) stopLocked() {
	d.token++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.playing = false
	d.paused = false
	d.onEnd, d.onBoundary = nil, nil
}

// IsPlaying reports true while an utterance is in progress, including while
// it is paused.
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
