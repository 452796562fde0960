// Package session owns the reading desk: the open document, its current
// page, and the reader that speaks it.
package session

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/readaloud/internal/chunker"
	"github.com/dgallion1/readaloud/internal/document"
	"github.com/dgallion1/readaloud/internal/highlight"
	"github.com/dgallion1/readaloud/internal/library"
	"github.com/dgallion1/readaloud/internal/reader"
	"github.com/dgallion1/readaloud/internal/speech"
)

var (
	ErrNoDocument  = errors.New("no document is open")
	ErrPageRange   = errors.New("page out of range")
	ErrNotStarted  = errors.New("reading did not start")
	ErrUnsupported = speech.ErrUnsupported
)

// Options configures a Desk.
type Options struct {
	Chunk           chunker.Config
	ReadAcrossPages bool
}

// Desk serializes document navigation and reading. Every page change stops
// the reader first, and ad hoc speech stops any reading session before it
// uses the shared driver.
type Desk struct {
	mu          sync.Mutex
	driver      speech.Driver
	reader      *reader.Reader
	log         *slog.Logger
	acrossPages bool

	nav         *document.Navigator
	readingPage int
}

func New(driver speech.Driver, opts Options, log *slog.Logger) *Desk {
	d := &Desk{
		driver:      driver,
		reader:      reader.New(driver, opts.Chunk, log),
		log:         log.With("component", "desk"),
		acrossPages: opts.ReadAcrossPages,
	}
	d.reader.AddHook(d.onReaderEvent)
	return d
}

// AddHook registers an observer for reader events.
func (d *Desk) AddHook(h reader.Hook) {
	d.reader.AddHook(h)
}

// Open makes doc the current document at page 1.
func (d *Desk) Open(doc *document.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reader.Stop()
	d.nav = document.NewNavigator(doc)
	d.readingPage = 0
	d.log.Info("document opened", "doc_id", doc.ID, "pages", doc.PageCount())
}

// Close stops reading and clears the desk.
func (d *Desk) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reader.Stop()
	d.nav = nil
	d.readingPage = 0
}

// CloseIfOpen closes the desk when docID is the open document.
func (d *Desk) CloseIfOpen(docID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.nav == nil || d.nav.Document().ID != docID {
		return false
	}
	d.reader.Stop()
	d.nav = nil
	d.readingPage = 0
	return true
}

// Document returns the open document, or nil.
func (d *Desk) Document() *document.Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.nav == nil {
		return nil
	}
	return d.nav.Document()
}

// GoToPage moves to 1-based page n. Out-of-range requests leave the page and
// any reading session untouched.
func (d *Desk) GoToPage(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.turnLocked(func(nav *document.Navigator) int { return n })
}

func (d *Desk) NextPage() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.turnLocked(func(nav *document.Navigator) int { return nav.CurrentPage() + 1 })
}

func (d *Desk) PrevPage() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.turnLocked(func(nav *document.Navigator) int { return nav.CurrentPage() - 1 })
}

func (d *Desk) turnLocked(target func(*document.Navigator) int) error {
	if d.nav == nil {
		return ErrNoDocument
	}
	n := target(d.nav)
	if n < 1 || n > d.nav.TotalPages() {
		return ErrPageRange
	}
	d.reader.Stop()
	d.nav.GoToPage(n)
	d.readingPage = 0
	return nil
}

// StartReading reads the current page aloud.
func (d *Desk) StartReading() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startLocked()
}

func (d *Desk) startLocked() error {
	if d.nav == nil {
		return ErrNoDocument
	}
	if !d.reader.Supported() {
		return ErrUnsupported
	}
	if !d.reader.Start(d.nav.Text()) {
		return ErrNotStarted
	}
	d.readingPage = d.nav.CurrentPage()
	return nil
}

func (d *Desk) StopReading() {
	d.reader.Stop()
}

func (d *Desk) Pause() bool {
	return d.reader.Pause()
}

func (d *Desk) Resume() bool {
	return d.reader.Resume()
}

// Speak reads ad hoc text once, without chunking or highlighting. Any
// reading session is stopped first.
func (d *Desk) Speak(text string) error {
	if strings.TrimSpace(text) == "" {
		return speech.ErrEmptyText
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.driver.Supported() {
		return ErrUnsupported
	}
	d.reader.Stop()
	return d.driver.Speak(text, nil, nil)
}

// onReaderEvent runs under the reader's lock, so page continuation happens
// on its own goroutine.
func (d *Desk) onReaderEvent(ev reader.Event) {
	if !d.acrossPages || ev.Kind != reader.EventSessionEnd || ev.Reason != reader.ReasonCompleted {
		return
	}
	go d.continueReading(ev.Session)
}

func (d *Desk) continueReading(session uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.nav == nil || d.readingPage != d.nav.CurrentPage() {
		return
	}
	if snap := d.reader.Snapshot(); snap.Reading || snap.Session != session {
		return
	}
	if !d.nav.NextPage() {
		d.log.Info("finished reading document", "doc_id", d.nav.Document().ID)
		d.readingPage = 0
		return
	}
	d.log.Info("continuing to next page", "page", d.nav.CurrentPage())
	if err := d.startLocked(); err != nil {
		d.log.Warn("continue reading failed", "page", d.nav.CurrentPage(), "error", err)
	}
}

// Status is a snapshot of the desk.
type Status struct {
	Document        *library.Summary `json:"document"`
	Page            int              `json:"page"`
	TotalPages      int              `json:"total_pages"`
	ReadAcrossPages bool             `json:"read_across_pages"`
	Reader          reader.Snapshot  `json:"reader"`
}

func (d *Desk) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status{
		ReadAcrossPages: d.acrossPages,
		Reader:          d.reader.Snapshot(),
	}
	if d.nav != nil {
		sum := library.Summarize(d.nav.Document())
		st.Document = &sum
		st.Page = d.nav.CurrentPage()
		st.TotalPages = d.nav.TotalPages()
	}
	return st
}

// PageView is the current page text split around the highlighted word.
type PageView struct {
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Text       string           `json:"text"`
	Highlight  *highlight.Range `json:"highlight"`
	Before     string           `json:"before"`
	Word       string           `json:"word"`
	After      string           `json:"after"`
}

// Page returns the current page with the highlight applied.
func (d *Desk) Page() (PageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.nav == nil {
		return PageView{}, ErrNoDocument
	}
	text := d.nav.Text()
	view := PageView{
		Page:       d.nav.CurrentPage(),
		TotalPages: d.nav.TotalPages(),
		Text:       text,
		Before:     text,
	}
	if rng, ok := d.reader.Highlight(); ok {
		view.Highlight = &rng
		view.Before, view.Word, view.After = highlight.Split(text, rng)
	}
	return view, nil
}
