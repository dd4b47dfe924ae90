package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/store"
)

// SweepConfig holds configuration for the sync sweep runner.
type SweepConfig struct {
	// Interval is how often the queue is swept.
	Interval time.Duration

	// MaxAttempts caps how many sweep attempts an entry gets before it is
	// left in failed state for good.
	MaxAttempts int

	// BatchLimit is the maximum number of entries processed per sweep.
	BatchLimit int

	// RetryBase is the base delay of the in-process exponential backoff
	// around each mirror call.
	RetryBase time.Duration

	// RetryMax is how many immediate in-process retries each mirror call
	// gets within one sweep, on top of the cross-sweep attempt counter.
	RetryMax uint64
}

// DefaultSweepConfig returns a SweepConfig with reasonable defaults.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Interval:    time.Minute,
		MaxAttempts: 8,
		BatchLimit:  50,
		RetryBase:   500 * time.Millisecond,
		RetryMax:    2,
	}
}

// SweepStats summarizes one pass over the queue.
type SweepStats struct {
	Listed    int
	Succeeded int
	Failed    int

	// Skipped counts entries left untouched because an earlier entry for the
	// same user failed this sweep. Each user's operations replay strictly in
	// order, so a failure parks the rest of that user's backlog until the
	// next sweep.
	Skipped int
}

// SweepRunner periodically replays queued mirror operations.
type SweepRunner struct {
	queue      store.SyncQueueStore
	mirror     remote.MirrorStore
	config     SweepConfig
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSweepRunner creates a sweep runner over the given queue and mirror.
// Zero config fields fall back to the defaults.
func NewSweepRunner(
	queue store.SyncQueueStore,
	mirror remote.MirrorStore,
	config SweepConfig,
	logger *slog.Logger,
) *SweepRunner {
	defaults := DefaultSweepConfig()
	if config.Interval == 0 {
		config.Interval = defaults.Interval
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.BatchLimit == 0 {
		config.BatchLimit = defaults.BatchLimit
	}
	if config.RetryBase == 0 {
		config.RetryBase = defaults.RetryBase
	}
	if config.RetryMax == 0 {
		config.RetryMax = defaults.RetryMax
	}

	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SweepRunner{
		queue:      queue,
		mirror:     mirror,
		config:     config,
		logger:     logger.With(slog.String("component", "sync_sweep")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start begins the periodic sweep loop.
func (r *SweepRunner) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (r *SweepRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

func (r *SweepRunner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			stats, err := r.Sweep(r.ctx)
			if err != nil {
				r.logger.Error("sync sweep failed", slog.String("error", err.Error()))
				continue
			}
			if stats.Listed > 0 {
				r.logger.Info("sync sweep finished",
					slog.Int("listed", stats.Listed),
					slog.Int("succeeded", stats.Succeeded),
					slog.Int("failed", stats.Failed),
					slog.Int("skipped", stats.Skipped))
			}
		}
	}
}

// Sweep runs one pass over the retryable queue entries. Exported so a sweep
// can also be triggered on demand, e.g. right after connectivity returns.
func (r *SweepRunner) Sweep(ctx context.Context) (SweepStats, error) {
	entries, err := r.queue.ListRetryable(ctx, r.config.MaxAttempts, r.config.BatchLimit)
	if err != nil {
		return SweepStats{}, fmt.Errorf("failed to list retryable entries: %w", err)
	}

	stats := SweepStats{Listed: len(entries)}
	blockedUsers := make(map[uuid.UUID]bool)

	for _, entry := range entries {
		if blockedUsers[entry.UserID] {
			stats.Skipped++
			continue
		}

		if err := r.processEntry(ctx, entry); err != nil {
			stats.Failed++
			blockedUsers[entry.UserID] = true

			r.logger.Warn("queue entry replay failed",
				slog.String("entry_id", entry.ID.String()),
				slog.String("operation", string(entry.Operation)),
				slog.Int("retry_count", entry.RetryCount+1),
				slog.String("error", err.Error()))

			if err := r.queue.RecordAttempt(ctx, entry.ID, domain.SyncStatusFailed); err != nil {
				r.logger.Error("failed to record sweep attempt",
					slog.String("entry_id", entry.ID.String()),
					slog.String("error", err.Error()))
			}
			continue
		}

		stats.Succeeded++
		if err := r.queue.UpdateStatus(ctx, entry.ID, domain.SyncStatusDone); err != nil {
			r.logger.Error("failed to mark queue entry done",
				slog.String("entry_id", entry.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	return stats, nil
}

// processEntry marks the entry as syncing and replays its mirror operation
// with a short in-process backoff.
func (r *SweepRunner) processEntry(ctx context.Context, entry *domain.SyncQueueEntry) error {
	if err := r.queue.UpdateStatus(ctx, entry.ID, domain.SyncStatusSyncing); err != nil {
		return fmt.Errorf("failed to mark entry syncing: %w", err)
	}

	backoff := retry.WithMaxRetries(r.config.RetryMax, retry.NewExponential(r.config.RetryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.replay(ctx, entry); err != nil {
			if isPermanent(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}

// replay decodes the entry's payload and performs the mirror call it stands
// for. Mirror operations are idempotent, so replaying an entry whose original
// call half-succeeded is safe.
func (r *SweepRunner) replay(ctx context.Context, entry *domain.SyncQueueEntry) error {
	payload, err := entry.DecodePayload()
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case domain.CreateVersePayload:
		return r.mirror.UpsertVerse(ctx, &p.Verse)
	case domain.UpsertCardPayload:
		return r.mirror.UpsertCard(ctx, &p.Card)
	case domain.CreateReviewLogPayload:
		return r.mirror.CreateReviewLog(ctx, &p.ReviewLog)
	default:
		return domain.ErrUnknownSyncOperation
	}
}

// isPermanent reports whether retrying within this sweep is pointless: a
// malformed payload or a client-side rejection will not get better in a few
// hundred milliseconds.
func isPermanent(err error) bool {
	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Transient()
	}
	return errors.Is(err, domain.ErrMalformedSyncPayload) ||
		errors.Is(err, domain.ErrUnknownSyncOperation)
}
