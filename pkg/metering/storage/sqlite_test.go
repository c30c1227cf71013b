package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"datacap-hq/datacap/pkg/metering/account"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(SQLiteConfig{Path: filepath.Join(t.TempDir(), "datacap.db")})
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(SQLiteConfig{})
	if err == nil {
		t.Fatal("Expected error for empty path")
	}
	if _, ok := err.(*DatabaseError); !ok {
		t.Errorf("Expected *DatabaseError, got %T", err)
	}
}

func TestSQLite_LoadDefaultsWhenEmpty(t *testing.T) {
	s := openTestSQLite(t)

	acct, err := s.LoadAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("LoadAccount failed: %v", err)
	}
	if !acct.IsActive || acct.Locked {
		t.Errorf("Expected default active/unlocked account, got %+v", acct)
	}
	if len(acct.Buckets) != 0 || acct.BalanceBytes != 0 {
		t.Errorf("Expected empty account, got %+v", acct)
	}
	if acct.LatencyMS != account.DefaultLatencyMS {
		t.Errorf("Expected default latency, got %d", acct.LatencyMS)
	}
}

func TestSQLite_SnapshotRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour).Unix()

	acct := account.New("acct-1")
	acct.Locked = true
	acct.LastTrafficBytes = 12345
	acct.Buckets = []account.Bucket{
		{ID: "b1", Name: "2 GB Topping", RemainingBytes: 2048, Category: account.CategoryVideo, Expiry: expiry},
		{ID: "b2", Name: "1 GB Topping", RemainingBytes: 1024, Category: account.CategoryGeneral, Expiry: expiry},
	}
	acct.RecomputeBalance()

	usage := &account.UsageRecord{Timestamp: time.Now().Unix(), Amount: 512, Category: account.CategoryVideo}
	if err := s.WriteSnapshot(ctx, Message{Account: acct, Usage: usage}); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	loaded, err := s.LoadAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("LoadAccount failed: %v", err)
	}
	if !loaded.Locked || loaded.LastTrafficBytes != 12345 {
		t.Errorf("Account fields lost in round trip: %+v", loaded)
	}
	if len(loaded.Buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(loaded.Buckets))
	}
	if loaded.Buckets[0].Category != account.CategoryVideo || loaded.Buckets[0].RemainingBytes != 2048 {
		t.Errorf("Bucket lost in round trip: %+v", loaded.Buckets[0])
	}
	if loaded.BalanceBytes != 3072 {
		t.Errorf("Expected recomputed balance 3072, got %d", loaded.BalanceBytes)
	}
}

func TestSQLite_SnapshotReplacesBuckets(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour).Unix()

	acct := account.New("acct-1")
	acct.Buckets = []account.Bucket{
		{ID: "b1", Name: "old", RemainingBytes: 100, Category: account.CategoryGeneral, Expiry: expiry},
		{ID: "b2", Name: "old", RemainingBytes: 200, Category: account.CategorySocial, Expiry: expiry},
	}
	if err := s.WriteSnapshot(ctx, Message{Account: acct}); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	// The next snapshot has one bucket; stale rows must not survive.
	acct.Buckets = []account.Bucket{
		{ID: "b3", Name: "new", RemainingBytes: 50, Category: account.CategoryGeneral, Expiry: expiry},
	}
	if err := s.WriteSnapshot(ctx, Message{Account: acct}); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	loaded, err := s.LoadAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("LoadAccount failed: %v", err)
	}
	if len(loaded.Buckets) != 1 || loaded.Buckets[0].ID != "b3" {
		t.Errorf("Expected only the replacement bucket, got %+v", loaded.Buckets)
	}
}

func TestSQLite_UsageHistoryOrderAndLimit(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	acct := account.New("acct-1")

	base := time.Now().Unix()
	for i := 0; i < 5; i++ {
		usage := &account.UsageRecord{
			Timestamp: base + int64(i),
			Amount:    uint64(100 * (i + 1)),
			Category:  account.CategorySocial,
		}
		if err := s.WriteSnapshot(ctx, Message{Account: acct, Usage: usage}); err != nil {
			t.Fatalf("WriteSnapshot failed: %v", err)
		}
	}

	records, err := s.UsageHistory(ctx, 3)
	if err != nil {
		t.Fatalf("UsageHistory failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp > records[i-1].Timestamp {
			t.Errorf("Records not in descending time order: %+v", records)
		}
	}
	if records[0].Amount != 500 {
		t.Errorf("Expected newest record first (500), got %d", records[0].Amount)
	}
}

func TestSQLite_UsageSince(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	acct := account.New("acct-1")
	now := time.Now()

	old := &account.UsageRecord{Timestamp: now.Add(-10 * 24 * time.Hour).Unix(), Amount: 700, Category: account.CategoryGeneral}
	recent := &account.UsageRecord{Timestamp: now.Add(-time.Hour).Unix(), Amount: 300, Category: account.CategoryGeneral}
	for _, u := range []*account.UsageRecord{old, recent} {
		if err := s.WriteSnapshot(ctx, Message{Account: acct, Usage: u}); err != nil {
			t.Fatalf("WriteSnapshot failed: %v", err)
		}
	}

	total, err := s.UsageSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("UsageSince failed: %v", err)
	}
	if total != 300 {
		t.Errorf("Expected 300 bytes within window, got %d", total)
	}

	// Empty window sums to zero, not an error.
	total, err = s.UsageSince(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("UsageSince failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected zero for empty window, got %d", total)
	}
}

func TestSQLite_PruneUsageBefore(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	acct := account.New("acct-1")
	acct.Buckets = []account.Bucket{
		{ID: "b1", Name: "expired", RemainingBytes: 999, Category: account.CategoryVideo, Expiry: 1},
	}
	now := time.Now()

	for _, ts := range []int64{now.Add(-100 * 24 * time.Hour).Unix(), now.Unix()} {
		u := &account.UsageRecord{Timestamp: ts, Amount: 1, Category: account.CategoryGeneral}
		if err := s.WriteSnapshot(ctx, Message{Account: acct, Usage: u}); err != nil {
			t.Fatalf("WriteSnapshot failed: %v", err)
		}
	}

	deleted, err := s.PruneUsageBefore(ctx, now.Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("PruneUsageBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 pruned row, got %d", deleted)
	}

	records, err := s.UsageHistory(ctx, 10)
	if err != nil {
		t.Fatalf("UsageHistory failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 surviving record, got %d", len(records))
	}

	// Pruning never touches buckets, expired or not.
	loaded, err := s.LoadAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("LoadAccount failed: %v", err)
	}
	if len(loaded.Buckets) != 1 || loaded.Buckets[0].RemainingBytes != 999 {
		t.Errorf("Pruning touched bucket rows: %+v", loaded.Buckets)
	}
}

func TestSQLite_LoadToleratesBadCategory(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	// Write a bucket row with a category no current version emits.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO buckets (id, account_id, name, remaining_bytes, category, expiry)
		 VALUES ('b1', 'acct-1', 'legacy', 100, 'Gaming', ?)`,
		time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("Seeding bad row failed: %v", err)
	}

	loaded, err := s.LoadAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("LoadAccount failed: %v", err)
	}
	if len(loaded.Buckets) != 1 {
		t.Fatalf("Expected the row to load, got %d buckets", len(loaded.Buckets))
	}
	if loaded.Buckets[0].Category != account.CategoryGeneral {
		t.Errorf("Expected unknown category to fall back to General, got %q", loaded.Buckets[0].Category)
	}
}

func TestRetention_Prune(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	acct := account.New("acct-1")
	now := time.Now()

	for _, ts := range []int64{now.Add(-10 * 24 * time.Hour).Unix(), now.Unix()} {
		u := &account.UsageRecord{Timestamp: ts, Amount: 1, Category: account.CategoryGeneral}
		if err := s.WriteSnapshot(ctx, Message{Account: acct, Usage: u}); err != nil {
			t.Fatalf("WriteSnapshot failed: %v", err)
		}
	}

	r := NewRetention(s, RetentionConfig{Days: 7, Schedule: "0 3 * * *"})
	deleted, err := r.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted row, got %d", deleted)
	}
}

func TestRetention_DisabledWithoutPolicy(t *testing.T) {
	r := NewRetention(NewMemory(), RetentionConfig{})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start with disabled policy failed: %v", err)
	}
	r.Stop()
}

func TestRetention_InvalidSchedule(t *testing.T) {
	r := NewRetention(NewMemory(), RetentionConfig{Days: 7, Schedule: "not-a-cron"})
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Expected error for invalid cron expression")
	}
}
