// Package storage provides durable persistence for the metering engine.
//
// The engine's accounting path never writes to storage directly. After a
// mutation commits in memory, it enqueues a snapshot message to the Worker,
// a single background goroutine that drains a bounded queue in FIFO order
// and writes each snapshot transactionally. Enqueue is non-blocking: when
// the queue is full the message is dropped, trading durability of
// intermediate snapshots for a never-stalling accounting path. Because the
// worker is the only consumer and the queue preserves order, durable state
// always converges to the last enqueued snapshot; drops lose history
// entries, never ordering.
//
// Two Backend implementations exist: SQLite (the durable default) and
// Memory (the in-memory mode, also used in tests). Storage errors on the
// write path are logged and swallowed; the engine's in-memory correctness
// never depends on persistence succeeding.
package storage
