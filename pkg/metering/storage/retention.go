package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig configures scheduled pruning of the usage history.
type RetentionConfig struct {
	// Days is how long usage events are retained. 0 disables pruning.
	Days int

	// Schedule is a cron expression for when pruning runs.
	// Example: "0 3 * * *" (daily at 3 AM).
	Schedule string
}

// DefaultRetentionConfig returns the default retention policy.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Days:     90,
		Schedule: "0 3 * * *",
	}
}

// Retention prunes old usage-history rows on a cron schedule.
//
// Only usage_history is ever pruned. Expired buckets keep their unusable
// remaining bytes forever; that is account behavior, not a retention
// concern.
type Retention struct {
	backend Backend
	config  RetentionConfig
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRetention creates a retention job over the given backend.
func NewRetention(backend Backend, config RetentionConfig) *Retention {
	return &Retention{
		backend: backend,
		config:  config,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "metering.retention"),
	}
}

// Start schedules pruning runs. A zero Days or empty Schedule disables the
// job. The scheduler stops when ctx is cancelled or Stop is called.
func (r *Retention) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.Days <= 0 || r.config.Schedule == "" {
		r.logger.Info("usage retention disabled")
		return nil
	}

	if _, err := cron.ParseStandard(r.config.Schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", r.config.Schedule, err)
	}

	if _, err := r.cron.AddFunc(r.config.Schedule, func() {
		r.runPrune(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule retention pruning: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("usage retention scheduled",
		"schedule", r.config.Schedule,
		"retention_days", r.config.Days,
	)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Stop halts the scheduler. Safe to call when not running.
func (r *Retention) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	r.cron.Stop()
	r.running = false
	r.logger.Info("usage retention stopped")
}

// Prune runs one pruning pass immediately, independent of the schedule.
func (r *Retention) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(r.config.Days) * 24 * time.Hour)
	deleted, err := r.backend.PruneUsageBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune failed: %w", err)
	}
	if deleted > 0 {
		pruneDeleted.Add(float64(deleted))
	}
	return deleted, nil
}

// runPrune executes a scheduled pruning cycle, logging the outcome.
func (r *Retention) runPrune(ctx context.Context) {
	deleted, err := r.Prune(ctx)
	if err != nil {
		r.logger.Error("scheduled usage pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		r.logger.Info("scheduled usage pruning completed", "deleted_rows", deleted)
	}
}
