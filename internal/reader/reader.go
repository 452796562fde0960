// Package reader drives continuous, highlight-synchronized reading of a text
// through a speech driver, one chunk per utterance.
package reader

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/readaloud/internal/chunker"
	"github.com/dgallion1/readaloud/internal/highlight"
	"github.com/dgallion1/readaloud/internal/speech"
)

// State is the reading state.
type State int

const (
	StateIdle State = iota
	StateReading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	default:
		return "unknown"
	}
}

// Reader is the continuous reading state machine. All transitions are
// serialized by mu; the driver callbacks re-enter through handleEnd and
// handleBoundary and are matched against the session generation and chunk
// index they were issued for.
type Reader struct {
	mu        sync.Mutex
	driver    speech.Driver
	chunkCfg  chunker.Config
	log       *slog.Logger
	hooks     []Hook
	supported bool

	state          State
	paused         bool
	pendingAdvance bool
	generation     uint64
	source         []rune
	chunks         []chunker.Chunk
	index          int
	highlight      highlight.Range
	hasHighlight   bool
}

// New creates an idle Reader. If the driver is not supported the reader is
// permanently disabled and Start is a no-op.
func New(driver speech.Driver, chunkCfg chunker.Config, log *slog.Logger) *Reader {
	r := &Reader{
		driver:    driver,
		chunkCfg:  chunkCfg,
		log:       log.With("component", "reader"),
		supported: driver.Supported(),
	}
	if !r.supported {
		r.log.Warn("speech engine unsupported, document reading disabled")
	}
	if n, ok := driver.(speech.IdleNotifier); ok {
		n.SetIdleHandler(r.CheckExternalStop)
	}
	return r
}

// AddHook registers an observer for reader events.
func (r *Reader) AddHook(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Supported reports whether the speech engine can be driven at all.
func (r *Reader) Supported() bool {
	return r.supported
}

// Start begins continuous reading of text. It reports false without side
// effects when reading is unsupported, the text is blank, or a session is
// already active.
func (r *Reader) Start(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.supported {
		r.log.Warn("start ignored, speech unsupported")
		return false
	}
	if strings.TrimSpace(text) == "" {
		r.log.Info("start ignored, no text to read")
		return false
	}
	if r.state != StateIdle {
		r.log.Info("start ignored, already reading", "session", r.generation)
		return false
	}

	r.driver.Stop()

	chunks := chunker.Split(text, r.chunkCfg)
	r.generation++
	r.state = StateReading
	r.paused = false
	r.pendingAdvance = false
	r.source = []rune(text)
	r.chunks = chunks
	r.index = 0
	r.hasHighlight = false

	r.log.Info("reading started", "session", r.generation, "chunks", len(chunks), "chars", len(r.source))
	r.emit(Event{Kind: EventSessionStart, ChunkCount: len(chunks)})
	r.driveLocked()
	return true
}

// Stop ends any active session and silences the engine. It is idempotent.
func (r *Reader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.driver.Stop()
	r.endLocked(ReasonStopped)
}

// Pause holds the session on its current chunk.
func (r *Reader) Pause() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReading || r.paused {
		return false
	}
	r.paused = true
	r.driver.Pause()
	r.log.Info("reading paused", "session", r.generation, "chunk", r.index)
	return true
}

// Resume continues a paused session. If the in-flight utterance finished
// while paused, reading advances to the next chunk.
func (r *Reader) Resume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReading || !r.paused {
		return false
	}
	r.paused = false
	r.driver.Resume()
	r.log.Info("reading resumed", "session", r.generation, "chunk", r.index)
	if r.pendingAdvance {
		r.pendingAdvance = false
		r.advanceLocked()
	}
	return true
}

// CheckExternalStop ends the session if the engine is no longer playing
// while the reader believes it is reading and not paused.
func (r *Reader) CheckExternalStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReading || r.paused || r.driver.IsPlaying() {
		return
	}
	r.log.Info("speech stopped externally", "session", r.generation)
	r.endLocked(ReasonExternalStop)
}

// IsReading reports whether a session is active, paused or not.
func (r *Reader) IsReading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateReading
}

// Highlight returns the absolute range of the word being spoken, if any.
func (r *Reader) Highlight() (highlight.Range, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.highlight, r.hasHighlight
}

// driveLocked submits the current chunk to the driver.
func (r *Reader) driveLocked() {
	if r.state != StateReading || r.paused {
		return
	}
	if r.index < 0 || r.index >= len(r.chunks) {
		r.driver.Stop()
		r.endLocked(ReasonCompleted)
		return
	}

	c := r.chunks[r.index]
	gen, idx := r.generation, r.index
	r.emit(Event{Kind: EventChunk, ChunkIndex: idx, ChunkCount: len(r.chunks), ChunkStart: c.Start})
	r.log.Debug("speaking chunk", "session", gen, "chunk", idx+1, "total", len(r.chunks), "start", c.Start)

	err := r.driver.Speak(c.Text,
		func() { r.handleEnd(gen, idx) },
		func(charIndex int) { r.handleBoundary(gen, idx, charIndex) },
	)
	if err != nil {
		r.log.Error("speak failed", "session", gen, "chunk", idx, "error", err)
		r.driver.Stop()
		r.endLocked(ReasonDriverError)
	}
}

func (r *Reader) handleEnd(gen uint64, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale(gen, idx) {
		r.log.Debug("stale utterance end dropped", "session", gen, "chunk", idx)
		return
	}
	if r.paused {
		r.pendingAdvance = true
		return
	}
	r.advanceLocked()
}

func (r *Reader) handleBoundary(gen uint64, idx, charIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale(gen, idx) {
		return
	}
	rng, ok := highlight.Project(r.source, r.chunks[idx].Start, charIndex)
	if !ok {
		r.clearHighlightLocked()
		return
	}
	if r.hasHighlight && r.highlight == rng {
		return
	}
	r.highlight = rng
	r.hasHighlight = true
	r.emit(Event{Kind: EventHighlight, ChunkIndex: idx, ChunkCount: len(r.chunks), Highlight: &rng})
}

func (r *Reader) stale(gen uint64, idx int) bool {
	return r.state != StateReading || gen != r.generation || idx != r.index
}

func (r *Reader) advanceLocked() {
	if r.index+1 < len(r.chunks) {
		r.index++
		r.clearHighlightLocked()
		r.driveLocked()
		return
	}
	r.log.Info("reading finished", "session", r.generation, "chunks", len(r.chunks))
	r.driver.Stop()
	r.endLocked(ReasonCompleted)
}

func (r *Reader) clearHighlightLocked() {
	if !r.hasHighlight {
		return
	}
	r.hasHighlight = false
	r.highlight = highlight.Range{}
	r.emit(Event{Kind: EventHighlight, ChunkIndex: r.index, ChunkCount: len(r.chunks)})
}

// endLocked tears the session down. Callbacks still in flight see StateIdle,
// or a newer generation once another session starts, and are dropped.
func (r *Reader) endLocked(reason EndReason) {
	if r.state == StateIdle {
		return
	}
	r.clearHighlightLocked()
	count := len(r.chunks)
	last := r.index

	r.state = StateIdle
	r.paused = false
	r.pendingAdvance = false
	r.source = nil
	r.chunks = nil
	r.index = 0

	if reason != ReasonCompleted {
		r.log.Info("reading ended", "session", r.generation, "reason", reason, "chunk", last)
	}
	r.emit(Event{Kind: EventSessionEnd, ChunkIndex: last, ChunkCount: count, Reason: reason})
}

func (r *Reader) emit(e Event) {
	e.Session = r.generation
	for _, h := range r.hooks {
		h(e)
	}
}
