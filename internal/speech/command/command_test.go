package command

import (
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/dgallion1/readaloud/internal/speech"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestNew_MissingBinaryUnsupported(t *testing.T) {
	d := New(Config{Binary: "definitely-not-a-speech-program"}, testLogger())
	if d.Supported() {
		t.Fatal("expected unsupported driver")
	}
	err := d.Speak("hello", nil, nil)
	if !errors.Is(err, speech.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDriver_EndsWhenProgramExits(t *testing.T) {
	requireBinary(t, "cat")
	d := New(Config{Binary: "cat", WordsPerMinute: 6000}, testLogger())

	ended := make(chan struct{}, 1)
	boundaries := make(chan int, 8)
	err := d.Speak("one two three", func() { ended <- struct{}{} }, func(i int) { boundaries <- i })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("utterance never ended")
	}
	if d.IsPlaying() {
		t.Error("expected not playing after exit")
	}
}

func TestDriver_PauseAndResume(t *testing.T) {
	requireBinary(t, "sleep")
	d := New(Config{Binary: "sleep", Args: []string{"10"}, WordsPerMinute: 60}, testLogger())

	ended := make(chan struct{}, 1)
	if err := d.Speak("one two three", func() { ended <- struct{}{} }, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Pause()
	if !d.IsPaused() || !d.IsPlaying() {
		t.Fatalf("expected paused and playing, got paused=%v playing=%v", d.IsPaused(), d.IsPlaying())
	}

	select {
	case <-ended:
		t.Fatal("end fired for paused utterance")
	case <-time.After(100 * time.Millisecond):
	}

	d.Resume()
	if d.IsPaused() {
		t.Error("expected not paused after resume")
	}
	d.Stop()
	if d.IsPlaying() {
		t.Error("expected not playing after stop")
	}
}

func TestDriver_FailedProgramReportsIdle(t *testing.T) {
	requireBinary(t, "false")
	d := New(Config{Binary: "false"}, testLogger())

	idle := make(chan struct{}, 1)
	d.SetIdleHandler(func() { idle <- struct{}{} })
	ended := make(chan struct{}, 1)
	d.Speak("hello", func() { ended <- struct{}{} }, nil)

	select {
	case <-idle:
	case <-ended:
		t.Fatal("end fired for failed program")
	case <-time.After(5 * time.Second):
		t.Fatal("idle handler never called")
	}
}
