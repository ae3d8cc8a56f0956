package render

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestFrameWriterWritesQueuedFrames(t *testing.T) {
	dir := t.TempDir()
	w := NewFrameWriter(New(100, 100), 8)

	for i := 0; i < 4; i++ {
		if !w.Submit(filepath.Join(dir, fmt.Sprintf("f%d.png", i)), dotSnapshot(false)) {
			t.Fatalf("Frame %d dropped with an empty queue", i)
		}
	}
	w.Stop()

	for i := 0; i < 4; i++ {
		if _, err := os.Stat(filepath.Join(dir, fmt.Sprintf("f%d.png", i))); err != nil {
			t.Errorf("Expected frame %d on disk: %v", i, err)
		}
	}

	stats := w.GetStats()
	if stats["framesWritten"] != uint64(4) {
		t.Errorf("Expected 4 frames written, got %v", stats["framesWritten"])
	}
}

func TestFrameWriterGivesUpAfterErrors(t *testing.T) {
	w := NewFrameWriter(New(10, 10), MaxConsecutiveErrors+5)

	missing := filepath.Join(t.TempDir(), "no", "such", "dir")
	for i := 0; i < MaxConsecutiveErrors; i++ {
		w.Submit(filepath.Join(missing, fmt.Sprintf("f%d.png", i)), dotSnapshot(false))
	}
	w.Stop()

	if !w.Failed() {
		t.Fatal("Expected writer to fail after repeated errors")
	}
	if w.Submit(filepath.Join(missing, "late.png"), dotSnapshot(false)) {
		t.Error("Expected submit to be rejected after failure")
	}
	if got := w.GetStats()["writeErrors"]; got != uint64(MaxConsecutiveErrors) {
		t.Errorf("Expected %d write errors, got %v", MaxConsecutiveErrors, got)
	}
}

func TestFrameWriterNilSnapshot(t *testing.T) {
	w := NewFrameWriter(New(10, 10), 1)
	defer w.Stop()

	if w.Submit("x.png", nil) {
		t.Error("Expected nil snapshot to be dropped")
	}
}

func TestFrameWriterEnqueueWaits(t *testing.T) {
	dir := t.TempDir()
	w := NewFrameWriter(New(50, 50), 1)

	for i := 0; i < 6; i++ {
		if !w.Enqueue(filepath.Join(dir, fmt.Sprintf("f%d.png", i)), dotSnapshot(true)) {
			t.Fatalf("Enqueue %d failed", i)
		}
	}
	w.Stop()

	stats := w.GetStats()
	if stats["framesWritten"] != uint64(6) || stats["framesDropped"] != uint64(0) {
		t.Errorf("Expected 6 written and 0 dropped, got %v", stats)
	}
}
