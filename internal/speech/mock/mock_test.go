package mock

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu         sync.Mutex
	boundaries []int
	ends       int
	done       chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 4)}
}

func (r *recorder) onEnd() {
	r.mu.Lock()
	r.ends++
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) onBoundary(i int) {
	r.mu.Lock()
	r.boundaries = append(r.boundaries, i)
	r.mu.Unlock()
}

func TestDriver_SpeaksWordsThenEnds(t *testing.T) {
	d := New(time.Millisecond)
	rec := newRecorder()

	if err := d.Speak("Hello world, again", rec.onEnd, rec.onBoundary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsPlaying() {
		t.Error("expected playing after Speak")
	}

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("utterance never ended")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []int{0, 6, 13}
	if len(rec.boundaries) != len(want) {
		t.Fatalf("expected boundaries %v, got %v", want, rec.boundaries)
	}
	for i := range want {
		if rec.boundaries[i] != want[i] {
			t.Errorf("boundary %d: expected %d, got %d", i, want[i], rec.boundaries[i])
		}
	}
	if rec.ends != 1 {
		t.Errorf("expected one end, got %d", rec.ends)
	}
	if d.IsPlaying() {
		t.Error("expected not playing after end")
	}
}

func TestDriver_StopSuppressesEnd(t *testing.T) {
	d := New(20 * time.Millisecond)
	rec := newRecorder()
	d.Speak("one two three four five", rec.onEnd, rec.onBoundary)
	d.Stop()

	select {
	case <-rec.done:
		t.Fatal("end fired after Stop")
	case <-time.After(200 * time.Millisecond):
	}
	if d.IsPlaying() {
		t.Error("expected not playing after Stop")
	}
}

func TestDriver_PauseHoldsUtterance(t *testing.T) {
	d := New(5 * time.Millisecond)
	rec := newRecorder()
	d.Speak("one two", rec.onEnd, rec.onBoundary)
	d.Pause()
	if !d.IsPaused() {
		t.Fatal("expected paused")
	}

	select {
	case <-rec.done:
		t.Fatal("utterance ended while paused")
	case <-time.After(100 * time.Millisecond):
	}

	d.Resume()
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("utterance never ended after resume")
	}
}

func TestDriver_EmptyTextRejected(t *testing.T) {
	d := New(time.Millisecond)
	if err := d.Speak("   ", nil, nil); err == nil {
		t.Error("expected error for blank text")
	}
}

func TestDriver_InterruptCallsIdleHandler(t *testing.T) {
	d := New(50 * time.Millisecond)
	idle := make(chan struct{}, 1)
	d.SetIdleHandler(func() { idle <- struct{}{} })
	d.Speak("one two three", nil, nil)

	d.Interrupt()
	select {
	case <-idle:
	case <-time.After(time.Second):
		t.Fatal("idle handler not called")
	}
	if d.IsPlaying() {
		t.Error("expected not playing after interrupt")
	}
}
