package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/netcheck"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/store"
)

// mirrorQueue pushes entities to the remote mirror and falls back to the
// durable sync queue when the push fails. Mirror failures never propagate to
// the caller; only a failure to enqueue the fallback entry does, because at
// that point the operation would be silently lost.
type mirrorQueue struct {
	mirror remote.MirrorStore
	queue  store.SyncQueueStore
	prober netcheck.Prober
	logger *slog.Logger
}

func newMirrorQueue(
	mirror remote.MirrorStore,
	queue store.SyncQueueStore,
	prober netcheck.Prober,
	logger *slog.Logger,
) *mirrorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &mirrorQueue{
		mirror: mirror,
		queue:  queue,
		prober: prober,
		logger: logger,
	}
}

// mirrorResult reports what happened to one best-effort mirror attempt.
type mirrorResult struct {
	// Queued is true when the mirror attempt failed and a retry entry was
	// enqueued instead.
	Queued bool

	// Hint is the user-facing message classifying the failure. Empty when
	// the mirror attempt succeeded.
	Hint string
}

// upsertVerse mirrors a verse, queueing a create_verse entry on failure.
func (m *mirrorQueue) upsertVerse(
	ctx context.Context,
	verse *domain.Verse,
	userID uuid.UUID,
	now time.Time,
) (mirrorResult, error) {
	err := m.mirror.UpsertVerse(ctx, verse)
	if err == nil {
		return mirrorResult{}, nil
	}

	return m.fallback(ctx, err, userID, domain.SyncOpCreateVerse, verse.ID,
		domain.CreateVersePayload{Verse: *verse}, now)
}

// upsertCard mirrors a card's scheduling state, queueing an upsert_card entry
// on failure.
func (m *mirrorQueue) upsertCard(
	ctx context.Context,
	card *domain.Card,
	now time.Time,
) (mirrorResult, error) {
	err := m.mirror.UpsertCard(ctx, card)
	if err == nil {
		return mirrorResult{}, nil
	}

	return m.fallback(ctx, err, card.UserID, domain.SyncOpUpsertCard, card.ID,
		domain.UpsertCardPayload{Card: *card}, now)
}

// createReviewLog mirrors a review log entry, queueing a create_review_log
// entry on failure.
func (m *mirrorQueue) createReviewLog(
	ctx context.Context,
	log *domain.ReviewLog,
	now time.Time,
) (mirrorResult, error) {
	err := m.mirror.CreateReviewLog(ctx, log)
	if err == nil {
		return mirrorResult{}, nil
	}

	return m.fallback(ctx, err, log.UserID, domain.SyncOpCreateReviewLog, log.ID,
		domain.CreateReviewLogPayload{ReviewLog: *log}, now)
}

// fallback classifies the mirror failure and enqueues a durable retry entry.
func (m *mirrorQueue) fallback(
	ctx context.Context,
	mirrorErr error,
	userID uuid.UUID,
	op domain.SyncOperation,
	originID uuid.UUID,
	payload any,
	now time.Time,
) (mirrorResult, error) {
	verdict := netcheck.Classify(mirrorErr, m.probe(ctx))

	m.logger.Warn("remote mirror failed, queueing for retry",
		slog.String("operation", string(op)),
		slog.String("origin_id", originID.String()),
		slog.Bool("connectivity_issue", verdict.IsConnectivityIssue),
		slog.String("error", mirrorErr.Error()))

	entry, err := domain.NewSyncQueueEntry(userID, op, originID, payload, now)
	if err != nil {
		return mirrorResult{}, fmt.Errorf("failed to build sync queue entry: %w", err)
	}

	if err := m.queue.Enqueue(ctx, entry); err != nil {
		return mirrorResult{}, fmt.Errorf("failed to enqueue sync entry: %w", err)
	}

	return mirrorResult{Queued: true, Hint: verdict.UserMessage}, nil
}

// probe runs the reachability probe when one is configured.
func (m *mirrorQueue) probe(ctx context.Context) netcheck.ProbeResult {
	if m.prober == nil {
		return netcheck.ProbeUnknown
	}
	return m.prober.Probe(ctx)
}
