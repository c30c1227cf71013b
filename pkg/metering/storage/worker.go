package storage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueCapacity bounds the persistence queue when no capacity is
// configured.
const DefaultQueueCapacity = 1000

// Worker is the single background consumer of the persistence queue.
//
// The accounting path hands it messages with a non-blocking Enqueue after
// the state store lock is released; the worker drains them strictly in
// enqueue order on its own storage handle. A full queue drops the message:
// persistence is best-effort under sustained overload and must never slow
// or block the accounting path. Write failures are logged and swallowed;
// a caller who already received a successful in-memory result never hears
// about them.
type Worker struct {
	backend Backend
	queue   chan Message
	logger  *slog.Logger

	closed  atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// NewWorker creates a worker over the given backend with a bounded queue.
// capacity <= 0 selects DefaultQueueCapacity.
func NewWorker(backend Backend, capacity int) *Worker {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Worker{
		backend: backend,
		queue:   make(chan Message, capacity),
		logger:  slog.Default().With("component", "metering.worker"),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the drain goroutine. Call once.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Enqueue offers a message to the queue without blocking. Returns false
// when the message was dropped (queue full or worker closed).
func (w *Worker) Enqueue(msg Message) bool {
	if w.closed.Load() {
		return false
	}
	select {
	case w.queue <- msg:
		queueDepth.Set(float64(len(w.queue)))
		return true
	default:
		w.dropped.Add(1)
		queueDropped.Inc()
		w.logger.Debug("persistence queue full, dropping snapshot",
			"account", msg.Account.ID,
			"dropped_total", w.dropped.Load(),
		)
		return false
	}
}

// Dropped returns the number of messages dropped since the worker started.
func (w *Worker) Dropped() int64 {
	return w.dropped.Load()
}

// Close stops accepting messages, drains whatever is already queued, and
// waits for the drain goroutine to exit. Idempotent callers should guard
// with their own once; the engine calls it exactly once at shutdown.
func (w *Worker) Close() {
	w.closed.Store(true)
	close(w.stopCh)
	w.wg.Wait()
}

// run drains the queue until stopped. On stop it finishes the messages
// already buffered so a clean shutdown persists the final snapshot.
func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			for {
				select {
				case msg := <-w.queue:
					w.write(msg)
				default:
					return
				}
			}
		case msg := <-w.queue:
			w.write(msg)
			queueDepth.Set(float64(len(w.queue)))
		}
	}
}

// write persists one message, swallowing storage errors.
func (w *Worker) write(msg Message) {
	start := time.Now()
	err := w.backend.WriteSnapshot(context.Background(), msg)
	writeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		writeErrors.Inc()
		w.logger.Warn("snapshot write failed",
			"account", msg.Account.ID,
			"error", err,
		)
	}
}
