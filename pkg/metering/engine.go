package metering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"datacap-hq/datacap/pkg/metering/account"
	"datacap-hq/datacap/pkg/metering/store"
	"datacap-hq/datacap/pkg/metering/storage"
)

// Config configures an Engine.
type Config struct {
	// AccountID identifies the single account this engine instance owns.
	AccountID string

	// Backend is the persistence backend. Nil selects the in-memory
	// backend (no durability across restarts).
	Backend storage.Backend

	// QueueCapacity bounds the persistence queue. <= 0 selects
	// storage.DefaultQueueCapacity.
	QueueCapacity int
}

// Engine is the accounting engine for one metered account.
//
// All methods are safe for concurrent use. Mutations serialize on the
// state store's writer lock; reads proceed concurrently. See the package
// documentation for the mutation pipeline.
type Engine struct {
	accountID string
	store     *store.Store
	backend   storage.Backend
	worker    *storage.Worker
	logger    *slog.Logger

	obsMu    sync.RWMutex
	observer Observer

	closeOnce sync.Once

	// now is the clock; tests substitute it to control bucket expiry.
	now func() time.Time
}

// New constructs an engine: it loads the account from the backend (or
// default-initializes it), seeds the state store, and starts the
// persistence worker. A backend that cannot be opened is a construction
// error for the caller (storage.OpenSQLite); a backend that loads garbage
// is not, and the engine logs and starts from the default account.
func New(cfg Config) (*Engine, error) {
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}

	backend := cfg.Backend
	if backend == nil {
		backend = storage.NewMemory()
	}

	logger := slog.Default().With("component", "metering.engine", "account", cfg.AccountID)

	acct, err := backend.LoadAccount(context.Background(), cfg.AccountID)
	if err != nil {
		logger.Warn("account load failed, starting from defaults", "error", err)
		acct = account.New(cfg.AccountID)
	}

	worker := storage.NewWorker(backend, cfg.QueueCapacity)
	worker.Start()

	e := &Engine{
		accountID: cfg.AccountID,
		store:     store.New(acct),
		backend:   backend,
		worker:    worker,
		logger:    logger,
		now:       time.Now,
	}
	balanceBytes.Set(float64(acct.BalanceBytes))

	logger.Info("engine started",
		"balance_bytes", acct.BalanceBytes,
		"buckets", len(acct.Buckets),
		"locked", acct.Locked,
		"active", acct.IsActive,
	)
	return e, nil
}

// RegisterObserver installs the observer, replacing any previous one, and
// immediately delivers the current snapshot so a late registrant always
// has a baseline.
func (e *Engine) RegisterObserver(o Observer) {
	e.obsMu.Lock()
	e.observer = o
	e.obsMu.Unlock()

	if o != nil {
		o.OnAccountUpdated(e.store.Snapshot())
	}
}

// Consume deducts amount bytes under the given category. Returns
// account.ErrLocked, account.ErrAccountInactive, or
// account.ErrInsufficientBalance; on any error the account state is
// unchanged.
func (e *Engine) Consume(amount uint64, category account.Category) error {
	now := e.now()

	snap, err := e.store.Mutate(func(acct *account.Account) error {
		if acct.Locked {
			return account.ErrLocked
		}
		next, err := account.Consume(*acct, amount, category, now)
		if err != nil {
			return err
		}
		*acct = next
		return nil
	})
	if err != nil {
		consumeTotal.WithLabelValues(string(category), consumeResultLabel(err)).Inc()
		return err
	}

	consumeTotal.WithLabelValues(string(category), resultOK).Inc()
	consumedBytes.WithLabelValues(string(category)).Add(float64(amount))

	usage := &account.UsageRecord{Timestamp: now.Unix(), Amount: amount, Category: category}
	e.publish(snap, usage)
	return nil
}

// AddAllotment appends a new bucket for the category, expiring 30 days
// from now. Malformed input (zero amount, unknown category or unit) is
// rejected with account.ErrInvalidCommand before any mutation; duplicate
// allotments of the same category coexist as separate buckets.
func (e *Engine) AddAllotment(category account.Category, amount uint64, unit account.Unit) error {
	if amount == 0 {
		return fmt.Errorf("%w: amount must be positive", account.ErrInvalidCommand)
	}
	if _, ok := account.ParseCategory(string(category)); !ok {
		return fmt.Errorf("%w: unknown category %q", account.ErrInvalidCommand, category)
	}
	if _, ok := account.ParseUnit(string(unit)); !ok {
		return fmt.Errorf("%w: unknown unit %q", account.ErrInvalidCommand, unit)
	}

	topping := account.NewTopping(category, amount, unit, e.now())

	snap, err := e.store.Mutate(func(acct *account.Account) error {
		if acct.Locked {
			return account.ErrLocked
		}
		acct.Buckets = append(acct.Buckets, topping)
		acct.RecomputeBalance()
		return nil
	})
	if err != nil {
		return err
	}

	allotmentsTotal.WithLabelValues(string(category)).Inc()
	e.publish(snap, nil)
	return nil
}

// Unlock clears the lock flag unconditionally. It always succeeds, is
// idempotent, and notifies and persists even when the flag was already
// clear.
func (e *Engine) Unlock() {
	snap, _ := e.store.Mutate(func(acct *account.Account) error {
		acct.Locked = false
		return nil
	})
	e.publish(snap, nil)
}

// Lock engages the lock flag. Like Unlock it always succeeds; while the
// flag is set, every operation except Unlock is rejected.
func (e *Engine) Lock() {
	snap, _ := e.store.Mutate(func(acct *account.Account) error {
		acct.Locked = true
		return nil
	})
	e.publish(snap, nil)
}

// Snapshot returns a copy of the current account state, or
// account.ErrLocked while the lock is engaged.
func (e *Engine) Snapshot() (account.Account, error) {
	snap := e.store.Snapshot()
	if snap.Locked {
		return account.Account{}, account.ErrLocked
	}
	return snap, nil
}

// Locked reports whether the lock flag is currently set.
func (e *Engine) Locked() bool {
	return e.store.Locked()
}

// Balance returns the current balance in bytes regardless of lock state.
func (e *Engine) Balance() uint64 {
	return e.store.Snapshot().BalanceBytes
}

// RecordTraffic stores the latest raw interface byte counter reported by
// the network sensor. Rejected while locked.
func (e *Engine) RecordTraffic(counter uint64) error {
	snap, err := e.store.Mutate(func(acct *account.Account) error {
		if acct.Locked {
			return account.ErrLocked
		}
		acct.LastTrafficBytes = counter
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(snap, nil)
	return nil
}

// UsageHistory returns the most recent usage events, newest first. A
// missing or failing backend yields an empty result, never an error.
func (e *Engine) UsageHistory(limit int) []account.UsageRecord {
	records, err := e.backend.UsageHistory(context.Background(), limit)
	if err != nil {
		e.logger.Warn("usage history query failed", "error", err)
		return nil
	}
	return records
}

// DailyAverage returns the average bytes consumed per day over the last
// seven days. A missing or failing backend yields zero.
func (e *Engine) DailyAverage() uint64 {
	total, err := e.backend.UsageSince(context.Background(), e.now().Add(-7*24*time.Hour))
	if err != nil {
		e.logger.Warn("usage aggregation failed", "error", err)
		return 0
	}
	return total / 7
}

// Close stops the persistence worker (draining already-queued snapshots)
// and closes the backend. The engine must not be used afterwards.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.worker.Close()
		err = e.backend.Close()
	})
	return err
}

// publish fans a committed snapshot out to the observer and the
// persistence queue. Called strictly after the store lock is released.
func (e *Engine) publish(snap account.Account, usage *account.UsageRecord) {
	balanceBytes.Set(float64(snap.BalanceBytes))

	e.obsMu.RLock()
	observer := e.observer
	e.obsMu.RUnlock()
	if observer != nil {
		observer.OnAccountUpdated(snap)
	}

	e.worker.Enqueue(storage.Message{Account: snap, Usage: usage})
}

// consumeResultLabel maps a consume error to its metric label.
func consumeResultLabel(err error) string {
	switch {
	case errors.Is(err, account.ErrLocked):
		return resultLocked
	case errors.Is(err, account.ErrAccountInactive):
		return resultInactive
	case errors.Is(err, account.ErrInsufficientBalance):
		return resultInsufficient
	default:
		return "error"
	}
}
