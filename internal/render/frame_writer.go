package render

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"emitter-arena/internal/game"
)

const (
	// MaxConsecutiveErrors before the writer gives up
	MaxConsecutiveErrors = 10
	// DefaultFrameQueue is the number of snapshots waiting to be encoded
	DefaultFrameQueue = 32
)

type frameJob struct {
	path string
	snap *game.GameSnapshot
}

// FrameWriter encodes snapshots to PNG files off the tick loop.
// Frames queued while the encoder is behind are dropped, never blocked on.
type FrameWriter struct {
	renderer *Renderer
	jobs     chan frameJob
	wg       sync.WaitGroup
	stopOnce sync.Once

	framesWritten     atomic.Uint64
	framesDropped     atomic.Uint64
	writeErrors       atomic.Uint64
	consecutiveErrors atomic.Int32
	failed            atomic.Bool
	avgWriteTimeNs    atomic.Int64
	maxWriteTimeNs    atomic.Int64
}

// NewFrameWriter starts the encoder goroutine. queue <= 0 uses DefaultFrameQueue.
func NewFrameWriter(renderer *Renderer, queue int) *FrameWriter {
	if queue <= 0 {
		queue = DefaultFrameQueue
	}
	w := &FrameWriter{
		renderer: renderer,
		jobs:     make(chan frameJob, queue),
	}

	w.wg.Add(1)
	go w.run()
	return w
}

// Submit queues a copy of snap for path. Returns false if the frame was dropped.
func (w *FrameWriter) Submit(path string, snap *game.GameSnapshot) bool {
	if snap == nil || w.failed.Load() {
		w.framesDropped.Add(1)
		return false
	}

	select {
	case w.jobs <- frameJob{path: path, snap: snap.Clone()}:
		return true
	default:
		w.framesDropped.Add(1)
		return false
	}
}

// Enqueue queues a copy of snap for path, waiting for room in the queue.
// Returns false once the writer has failed.
func (w *FrameWriter) Enqueue(path string, snap *game.GameSnapshot) bool {
	if snap == nil || w.failed.Load() {
		w.framesDropped.Add(1)
		return false
	}
	w.jobs <- frameJob{path: path, snap: snap.Clone()}
	return true
}

func (w *FrameWriter) run() {
	defer w.wg.Done()

	for job := range w.jobs {
		if w.failed.Load() {
			w.framesDropped.Add(1)
			continue
		}

		start := time.Now()
		err := w.renderer.SavePNG(job.path, job.snap)
		elapsed := time.Since(start)

		if err != nil {
			w.writeErrors.Add(1)
			n := w.consecutiveErrors.Add(1)
			if n <= 5 {
				log.Printf("❌ FrameWriter error (%d/%d): %v", n, MaxConsecutiveErrors, err)
			}
			if n >= MaxConsecutiveErrors && w.failed.CompareAndSwap(false, true) {
				log.Printf("🔴 FrameWriter stopped after %d consecutive errors", n)
			}
			continue
		}

		w.consecutiveErrors.Store(0)
		w.framesWritten.Add(1)

		// exponential moving average
		avg := w.avgWriteTimeNs.Load()
		w.avgWriteTimeNs.Store((avg*9 + elapsed.Nanoseconds()) / 10)
		if elapsed.Nanoseconds() > w.maxWriteTimeNs.Load() {
			w.maxWriteTimeNs.Store(elapsed.Nanoseconds())
		}
	}
}

// Stop encodes the queued frames and waits for the encoder to exit.
// Submit and Enqueue must not be called after Stop.
func (w *FrameWriter) Stop() {
	w.stopOnce.Do(func() {
		close(w.jobs)
	})
	w.wg.Wait()
}

// Failed reports whether the writer gave up after repeated errors
func (w *FrameWriter) Failed() bool {
	return w.failed.Load()
}

// GetStats returns writer statistics
func (w *FrameWriter) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"framesWritten":  w.framesWritten.Load(),
		"framesDropped":  w.framesDropped.Load(),
		"writeErrors":    w.writeErrors.Load(),
		"failed":         w.failed.Load(),
		"avgWriteTimeMs": float64(w.avgWriteTimeNs.Load()) / 1e6,
		"maxWriteTimeMs": float64(w.maxWriteTimeNs.Load()) / 1e6,
		"queued":         len(w.jobs),
	}
}
