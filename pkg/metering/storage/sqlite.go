package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"datacap-hq/datacap/pkg/metering/account"
)

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLite implements Backend using a SQLite database file.
//
// It holds two handles on the same file: one for the read path (load and
// history queries) and one reserved for the persistence worker's
// sequential snapshot writes, so slow queries and snapshot transactions
// never share a connection. Both run in WAL mode; the busy timeout covers
// the remaining contention between them.
type SQLite struct {
	db     *sql.DB // read path: load, history queries, pruning
	wdb    *sql.DB // write path: owned by the persistence worker
	path   string
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	is_active BOOLEAN NOT NULL,
	locked BOOLEAN NOT NULL,
	last_traffic INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS buckets (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	name TEXT NOT NULL,
	remaining_bytes INTEGER NOT NULL,
	category TEXT NOT NULL,
	expiry INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_buckets_account ON buckets(account_id);

CREATE TABLE IF NOT EXISTS usage_history (
	timestamp INTEGER NOT NULL,
	amount INTEGER NOT NULL,
	category TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_history(timestamp);
`

// OpenSQLite opens (or creates) the database at cfg.Path and initializes
// the schema. This is the only place a DatabaseError is fatal: once the
// backend is open, write failures are absorbed by the worker.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, NewDatabaseError("open", fmt.Errorf("db path cannot be empty"))
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	open := func() (*sql.DB, error) {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// SQLite only supports a single writer per connection; keep each
		// handle down to one connection so statement order is predictable.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return db, nil
	}

	db, err := open()
	if err != nil {
		return nil, NewDatabaseError("open", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, NewDatabaseError("schema", err)
	}

	wdb, err := open()
	if err != nil {
		db.Close()
		return nil, NewDatabaseError("open", err)
	}

	return &SQLite{
		db:     db,
		wdb:    wdb,
		path:   cfg.Path,
		logger: slog.Default().With("component", "metering.storage"),
	}, nil
}

// LoadAccount reads the persisted state for an account. A missing row
// yields a default account; rows that fail to decode are dropped with a
// warning rather than failing the load, so corrupt storage can never keep
// the engine from starting.
func (s *SQLite) LoadAccount(ctx context.Context, id string) (account.Account, error) {
	acct := account.New(id)

	var isActive, locked bool
	var lastTraffic int64
	err := s.db.QueryRowContext(ctx,
		`SELECT is_active, locked, last_traffic FROM accounts WHERE id = ?`, id,
	).Scan(&isActive, &locked, &lastTraffic)
	switch err {
	case nil:
		acct.IsActive = isActive
		acct.Locked = locked
		acct.LastTrafficBytes = uint64(lastTraffic)
	case sql.ErrNoRows:
		// Fresh database, default account.
	default:
		s.logger.Warn("account row unreadable, using defaults", "account", id, "error", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, remaining_bytes, category, expiry FROM buckets WHERE account_id = ?`, id)
	if err != nil {
		s.logger.Warn("bucket rows unreadable, starting empty", "account", id, "error", err)
		return acct, nil
	}
	defer rows.Close()

	for rows.Next() {
		var b account.Bucket
		var remaining, expiry int64
		var category string
		if err := rows.Scan(&b.ID, &b.Name, &remaining, &category, &expiry); err != nil {
			s.logger.Warn("skipping undecodable bucket row", "account", id, "error", err)
			continue
		}
		b.RemainingBytes = uint64(remaining)
		b.Category = account.CategoryOrGeneral(category)
		b.Expiry = expiry
		acct.Buckets = append(acct.Buckets, b)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("bucket iteration aborted", "account", id, "error", err)
	}

	acct.RecomputeBalance()
	return acct, nil
}

// WriteSnapshot persists one message on the worker's handle. The usage
// event is appended first; the account row and its bucket set are then
// replaced inside a single transaction.
func (s *SQLite) WriteSnapshot(ctx context.Context, msg Message) error {
	if msg.Usage != nil {
		_, err := s.wdb.ExecContext(ctx,
			`INSERT INTO usage_history (timestamp, amount, category) VALUES (?, ?, ?)`,
			msg.Usage.Timestamp, int64(msg.Usage.Amount), string(msg.Usage.Category))
		if err != nil {
			return fmt.Errorf("failed to append usage event: %w", err)
		}
	}

	tx, err := s.wdb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	acct := msg.Account
	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, is_active, locked, last_traffic) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			is_active = excluded.is_active,
			locked = excluded.locked,
			last_traffic = excluded.last_traffic`,
		acct.ID, acct.IsActive, acct.Locked, int64(acct.LastTrafficBytes))
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM buckets WHERE account_id = ?`, acct.ID); err != nil {
		return fmt.Errorf("failed to clear buckets: %w", err)
	}

	for _, b := range acct.Buckets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO buckets (id, account_id, name, remaining_bytes, category, expiry)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, acct.ID, b.Name, int64(b.RemainingBytes), string(b.Category), b.Expiry)
		if err != nil {
			return fmt.Errorf("failed to insert bucket: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// UsageHistory returns the most recent usage events, newest first.
func (s *SQLite) UsageHistory(ctx context.Context, limit int) ([]account.UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, amount, category FROM usage_history ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}
	defer rows.Close()

	var records []account.UsageRecord
	for rows.Next() {
		var r account.UsageRecord
		var amount int64
		var category string
		if err := rows.Scan(&r.Timestamp, &amount, &category); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		r.Amount = uint64(amount)
		r.Category = account.CategoryOrGeneral(category)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage rows: %w", err)
	}
	return records, nil
}

// UsageSince returns the total bytes consumed at or after the cutoff.
func (s *SQLite) UsageSince(ctx context.Context, cutoff time.Time) (uint64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM usage_history WHERE timestamp >= ?`, cutoff.Unix(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum usage: %w", err)
	}
	if !total.Valid || total.Int64 < 0 {
		return 0, nil
	}
	return uint64(total.Int64), nil
}

// PruneUsageBefore deletes usage events older than the cutoff.
func (s *SQLite) PruneUsageBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM usage_history WHERE timestamp < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage history: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Close closes both database handles.
func (s *SQLite) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	werr := s.wdb.Close()
	rerr := s.db.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
