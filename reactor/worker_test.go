package reactor

import (
	"testing"
	"time"
)

func TestWorker_PostRunsOnLoop(t *testing.T) {
	w, err := NewWorker(0)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer w.Close()

	go w.Run(nil)
	defer w.Shutdown(time.Second)

	done := make(chan struct{})
	if !w.Post(func() { close(done) }) {
		t.Fatal("Post failed")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted closure never ran")
	}
}

func TestWorker_ShutdownStopsLoop(t *testing.T) {
	w, err := NewWorker(0)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer w.Close()

	go w.Run(nil)
	time.Sleep(10 * time.Millisecond)
	if err := w.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if w.Post(func() {}) {
		t.Error("Post succeeded after Shutdown")
	}
}
