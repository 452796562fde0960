package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/readaloud/internal/chunker"
	"github.com/dgallion1/readaloud/internal/document"
	"github.com/dgallion1/readaloud/internal/speech"
	"github.com/dgallion1/readaloud/internal/speech/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDoc() *document.Document {
	return &document.Document{
		ID:    "doc-1",
		Title: "Three Pages",
		Type:  document.TypeText,
		Pages: []string{"First page words.", "Second page words.", "Third page words."},
	}
}

func newDesk(delay time.Duration, across bool) (*Desk, *mock.Driver) {
	drv := mock.New(delay)
	d := New(drv, Options{Chunk: chunker.DefaultConfig(), ReadAcrossPages: across}, testLogger())
	return d, drv
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestDesk_NoDocument(t *testing.T) {
	d, _ := newDesk(time.Millisecond, false)

	if err := d.StartReading(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("StartReading: expected ErrNoDocument, got %v", err)
	}
	if err := d.NextPage(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("NextPage: expected ErrNoDocument, got %v", err)
	}
	if _, err := d.Page(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Page: expected ErrNoDocument, got %v", err)
	}
	if st := d.Status(); st.Document != nil || st.Page != 0 {
		t.Errorf("unexpected status without document: %+v", st)
	}
}

func TestDesk_ReadsCurrentPage(t *testing.T) {
	d, drv := newDesk(time.Second, false)
	d.Open(testDoc())
	if err := d.NextPage(); err != nil {
		t.Fatalf("NextPage: %v", err)
	}

	if err := d.StartReading(); err != nil {
		t.Fatalf("StartReading: %v", err)
	}
	spoken := drv.Spoken()
	if len(spoken) != 1 || spoken[0] != "Second page words." {
		t.Fatalf("expected page two spoken, got %q", spoken)
	}
	if err := d.StartReading(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("second start: expected ErrNotStarted, got %v", err)
	}

	st := d.Status()
	if !st.Reader.Reading || st.Page != 2 || st.TotalPages != 3 {
		t.Errorf("unexpected status: %+v", st)
	}
	if st.Document == nil || st.Document.ID != "doc-1" {
		t.Errorf("expected document summary, got %+v", st.Document)
	}
}

func TestDesk_PageChangeStopsReading(t *testing.T) {
	d, _ := newDesk(time.Second, false)
	d.Open(testDoc())
	d.StartReading()

	if err := d.GoToPage(3); err != nil {
		t.Fatalf("GoToPage: %v", err)
	}
	st := d.Status()
	if st.Reader.Reading {
		t.Error("expected reading stopped by page change")
	}
	if st.Page != 3 {
		t.Errorf("expected page 3, got %d", st.Page)
	}
}

func TestDesk_OutOfRangeLeavesSessionAlone(t *testing.T) {
	d, _ := newDesk(time.Second, false)
	d.Open(testDoc())
	d.StartReading()

	for _, n := range []int{0, 4, -2} {
		if err := d.GoToPage(n); !errors.Is(err, ErrPageRange) {
			t.Errorf("GoToPage(%d): expected ErrPageRange, got %v", n, err)
		}
	}
	if err := d.PrevPage(); !errors.Is(err, ErrPageRange) {
		t.Errorf("PrevPage on first page: expected ErrPageRange, got %v", err)
	}

	st := d.Status()
	if st.Page != 1 {
		t.Errorf("expected page 1, got %d", st.Page)
	}
	if !st.Reader.Reading {
		t.Error("rejected page change must not stop reading")
	}
}

func TestDesk_OpenStopsReading(t *testing.T) {
	d, _ := newDesk(time.Second, false)
	d.Open(testDoc())
	d.StartReading()

	other := testDoc()
	other.ID = "doc-2"
	d.Open(other)
	st := d.Status()
	if st.Reader.Reading || st.Page != 1 || st.Document.ID != "doc-2" {
		t.Errorf("unexpected status after reopen: %+v", st)
	}
}

func TestDesk_StaysOnPageByDefault(t *testing.T) {
	d, drv := newDesk(time.Millisecond, false)
	d.Open(testDoc())
	d.StartReading()

	waitFor(t, "reading to finish", func() bool { return !d.Status().Reader.Reading })
	time.Sleep(20 * time.Millisecond)

	if st := d.Status(); st.Page != 1 {
		t.Errorf("expected to stay on page 1, got %d", st.Page)
	}
	if n := len(drv.Spoken()); n != 1 {
		t.Errorf("expected one utterance, got %d", n)
	}
}

func TestDesk_ReadAcrossPages(t *testing.T) {
	d, drv := newDesk(time.Millisecond, true)
	d.Open(testDoc())
	d.StartReading()

	waitFor(t, "all pages read", func() bool {
		return len(drv.Spoken()) == 3 && !d.Status().Reader.Reading
	})
	time.Sleep(20 * time.Millisecond)

	spoken := drv.Spoken()
	want := testDoc().Pages
	if len(spoken) != len(want) {
		t.Fatalf("expected %d utterances, got %d", len(want), len(spoken))
	}
	for i := range want {
		if spoken[i] != want[i] {
			t.Errorf("utterance %d: expected %q, got %q", i, want[i], spoken[i])
		}
	}
	if st := d.Status(); st.Page != 3 || st.Reader.Reading {
		t.Errorf("expected idle on last page, got %+v", st)
	}
}

func TestDesk_ReadAcrossPagesStopsOnManualStop(t *testing.T) {
	d, _ := newDesk(50*time.Millisecond, true)
	d.Open(testDoc())
	d.StartReading()
	d.StopReading()
	time.Sleep(100 * time.Millisecond)

	if st := d.Status(); st.Page != 1 || st.Reader.Reading {
		t.Errorf("manual stop must not turn the page: %+v", st)
	}
}

func TestDesk_SpeakStopsSession(t *testing.T) {
	d, drv := newDesk(time.Second, false)
	d.Open(testDoc())
	d.StartReading()

	if err := d.Speak("Hello there"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if d.Status().Reader.Reading {
		t.Error("expected reading session stopped")
	}
	spoken := drv.Spoken()
	if spoken[len(spoken)-1] != "Hello there" {
		t.Errorf("expected ad hoc text spoken last, got %q", spoken)
	}
	if err := d.Speak("  "); !errors.Is(err, speech.ErrEmptyText) {
		t.Errorf("expected empty text error, got %v", err)
	}
}

func TestDesk_PageViewHighlight(t *testing.T) {
	d, _ := newDesk(time.Second, false)
	d.Open(testDoc())

	view, err := d.Page()
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if view.Highlight != nil || view.Before != "First page words." {
		t.Errorf("unexpected idle view: %+v", view)
	}

	d.StartReading()
	waitFor(t, "first highlight", func() bool {
		v, _ := d.Page()
		return v.Highlight != nil
	})
	view, _ = d.Page()
	if view.Before != "" || view.Word != "First" || view.After != " page words." {
		t.Errorf("unexpected split: %q|%q|%q", view.Before, view.Word, view.After)
	}
}

func TestDesk_CloseIfOpen(t *testing.T) {
	d, _ := newDesk(time.Second, false)
	d.Open(testDoc())

	if d.CloseIfOpen("other") {
		t.Error("should not close a different document")
	}
	if !d.CloseIfOpen("doc-1") {
		t.Error("expected open document to close")
	}
	if d.Document() != nil {
		t.Error("expected empty desk")
	}
}
