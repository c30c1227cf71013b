// Package metering implements the data-quota accounting engine for a
// single account.
//
// The Engine is the public surface: it coordinates the in-memory state
// store, the pure deduction logic, the write-behind persistence worker,
// and the live-update observer. Every mutation follows the same shape:
// take the store's exclusive lock, compute and commit the new state in
// memory, release the lock, then notify the observer and enqueue a
// snapshot for persistence. Nothing downstream of the lock can slow an
// accounting operation: the observer call is synchronous but runs after
// the lock is released, and the persistence enqueue never blocks.
//
// Errors on the accounting path (insufficient balance, inactive account,
// lock engaged) are returned synchronously to the caller. Errors on the
// persistence path are logged and swallowed by the worker; a caller who
// received a successful result never sees a durability failure.
package metering
