package storage

import (
	"context"
	"sync"
	"time"

	"datacap-hq/datacap/pkg/metering/account"
)

// Memory implements Backend entirely in memory. It backs the engine's
// in-memory mode (no durability across restarts) and keeps tests off the
// filesystem. Snapshots and usage events survive only for the lifetime of
// the process.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
	usage    []account.UsageRecord
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]account.Account)}
}

// LoadAccount returns the stored account or a default-initialized one.
func (m *Memory) LoadAccount(_ context.Context, id string) (account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if acct, ok := m.accounts[id]; ok {
		return acct.Clone(), nil
	}
	return account.New(id), nil
}

// WriteSnapshot stores the snapshot and appends the usage event, if any.
func (m *Memory) WriteSnapshot(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[msg.Account.ID] = msg.Account.Clone()
	if msg.Usage != nil {
		m.usage = append(m.usage, *msg.Usage)
	}
	return nil
}

// UsageHistory returns the most recent usage events, newest first.
func (m *Memory) UsageHistory(_ context.Context, limit int) ([]account.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []account.UsageRecord
	for i := len(m.usage) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, m.usage[i])
	}
	return records, nil
}

// UsageSince returns the total bytes consumed at or after the cutoff.
func (m *Memory) UsageSince(_ context.Context, cutoff time.Time) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total uint64
	for _, r := range m.usage {
		if r.Timestamp >= cutoff.Unix() {
			total += r.Amount
		}
	}
	return total, nil
}

// PruneUsageBefore deletes usage events older than the cutoff.
func (m *Memory) PruneUsageBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.usage[:0]
	var deleted int64
	for _, r := range m.usage {
		if r.Timestamp < cutoff.Unix() {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.usage = kept
	return deleted, nil
}

// Close is a no-op for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}
