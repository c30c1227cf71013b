// Package store holds the single authoritative in-memory account behind a
// reader/writer lock.
//
// The store is the only piece of shared mutable state in the engine. Every
// read hands out a deep-copied snapshot and every mutation runs a caller
// supplied function against a working copy under the exclusive lock,
// committing only on success. The critical section never performs I/O and
// never blocks on another subsystem; persistence and notification happen
// strictly after the lock is released, in the calling layer.
package store
