package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/readaloud/internal/config"
	"github.com/dgallion1/readaloud/internal/library"
	"github.com/dgallion1/readaloud/internal/parser"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker() (*Worker, *library.Library, *ExtractStats) {
	lib := library.New(time.Hour)
	stats := NewExtractStats(time.Hour)
	return NewWorker(lib, stats, testLogger(), parser.Options{}), lib, stats
}

func TestWorker_ProcessReady(t *testing.T) {
	w, lib, stats := newTestWorker()
	job := NewJob("story.txt", "A Story", []byte("Once upon a time.\f\nThe end."))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusReady {
		t.Fatalf("expected ready, got %s (%v)", snap.Status, snap.Result.Errors)
	}
	if snap.Result.Pages != 2 || snap.Result.Words != 6 {
		t.Errorf("unexpected result: %+v", snap.Result)
	}
	doc, ok := lib.Get(snap.DocID)
	if !ok {
		t.Fatalf("document %q not in library", snap.DocID)
	}
	if doc.Title != "A Story" {
		t.Errorf("expected title override, got %q", doc.Title)
	}
	if !doc.CreatedAt.Equal(job.CreatedAt) {
		t.Error("expected document creation time from job")
	}
	if job.FileData() != nil {
		t.Error("expected file data released")
	}
	if stats.Snapshot().Count != 1 {
		t.Error("expected one stats sample")
	}
}

func TestWorker_ProcessDuplicate(t *testing.T) {
	w, lib, _ := newTestWorker()
	first := NewJob("a.txt", "", []byte("Same words."))
	w.Process(context.Background(), first)

	second := NewJob("b.txt", "", []byte("Same words.\n"))
	w.Process(context.Background(), second)

	snap := second.Snapshot()
	if snap.Status != StatusDuplicate {
		t.Fatalf("expected duplicate, got %s", snap.Status)
	}
	if snap.DocID != first.Snapshot().DocID {
		t.Errorf("expected duplicate to point at %q, got %q", first.Snapshot().DocID, snap.DocID)
	}
	if lib.Len() != 1 {
		t.Errorf("expected 1 library document, got %d", lib.Len())
	}
}

func TestWorker_ProcessFailures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"empty text", "blank.txt", "   \n\n  "},
		{"unsupported", "image.png", "\x89PNG"},
		{"bad pdf", "broken.pdf", "not a pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, lib, stats := newTestWorker()
			job := NewJob(tt.filename, "", []byte(tt.data))
			w.Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status != StatusFailed {
				t.Fatalf("expected failed, got %s", snap.Status)
			}
			if len(snap.Result.Errors) == 0 {
				t.Error("expected an error message")
			}
			if lib.Len() != 0 {
				t.Error("failed job must not add a document")
			}
			if stats.Snapshot().Failed != 1 {
				t.Error("expected a failure sample")
			}
		})
	}
}

func TestWorker_CancelledContext(t *testing.T) {
	w, _, _ := newTestWorker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewJob("a.txt", "", []byte("text"))
	w.Process(ctx, job)
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed, got %s", job.Snapshot().Status)
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	lib := library.New(time.Hour)
	o := NewOrchestrator(cfg, lib, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("hello.md", "", []byte("# Hello\n\nWorld."))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatal("job never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job to be retrievable")
	}
	if job.Snapshot().Status != StatusReady {
		t.Errorf("expected ready, got %s", job.Snapshot().Status)
	}
	if o.Stats().Snapshot().Count != 1 {
		t.Error("expected stats sample from worker")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, library.New(time.Hour), testLogger())
	// Not started: nothing drains the queue.

	if err := o.Submit(NewJob("a.txt", "", []byte("a"))); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job := NewJob("b.txt", "", []byte("b"))
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed, got %s", job.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
