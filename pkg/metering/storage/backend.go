package storage

import (
	"context"
	"time"

	"datacap-hq/datacap/pkg/metering/account"
)

// Message is one unit of work for the persistence worker: the committed
// account snapshot and, for successful consumptions, the usage event that
// produced it.
type Message struct {
	// Account is the post-mutation snapshot to persist.
	Account account.Account

	// Usage is the consumption event, nil for non-consumption mutations
	// (allotments, lock changes, traffic updates).
	Usage *account.UsageRecord
}

// Backend defines the persistence interface for the metering engine.
// Implementations must be safe for concurrent use: the worker writes
// snapshots while the engine's read path runs history queries.
type Backend interface {
	// LoadAccount retrieves the stored state for an account ID. When no
	// row exists, or persisted rows fail to decode, implementations
	// return a default-initialized account rather than an error; an error
	// indicates the backend itself is unusable.
	LoadAccount(ctx context.Context, id string) (account.Account, error)

	// WriteSnapshot durably records one message: the usage event (if any)
	// is appended to the usage history, then the account row and its full
	// bucket set are replaced in a single transaction. A crash mid-write
	// leaves either the old or the new complete state, never a mix.
	WriteSnapshot(ctx context.Context, msg Message) error

	// UsageHistory returns the most recent usage events, newest first.
	UsageHistory(ctx context.Context, limit int) ([]account.UsageRecord, error)

	// UsageSince returns the total bytes consumed at or after the cutoff.
	UsageSince(ctx context.Context, cutoff time.Time) (uint64, error)

	// PruneUsageBefore deletes usage events older than the cutoff and
	// returns the number of rows removed. Account and bucket rows are
	// never pruned.
	PruneUsageBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
