package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/domain/schedule"
	"github.com/wellversed/memoryd/internal/netcheck"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/store"
)

// CommitResult summarizes what happened when a session's outcomes were
// committed. Local persistence is all-or-error per outcome; mirroring is
// best-effort and its failures show up as queued entries, not errors.
type CommitResult struct {
	// PersistedLocally is the number of outcomes whose card update and review
	// log were durably written to the local store.
	PersistedLocally int

	// MirroredRemotely is the number of outcomes fully replicated to the
	// remote mirror.
	MirroredRemotely int

	// QueuedForRetry is the number of sync queue entries created for failed
	// mirror operations.
	QueuedForRetry int

	// ConnectivityHint is a user-facing message explaining why mirroring
	// fell back to the queue. Empty when everything mirrored cleanly.
	ConnectivityHint string
}

// SyncEngine commits review outcomes: it runs the scheduling state machine
// over each outcome in session order, persists the results locally in one
// transaction per outcome, and mirrors them to the remote store best-effort.
type SyncEngine struct {
	db        *sql.DB
	cards     store.CardStore
	logs      store.ReviewLogStore
	scheduler schedule.Service
	mq        *mirrorQueue
	logger    *slog.Logger
}

// NewSyncEngine creates a commit engine over the given stores and clients.
// prober may be nil, in which case mirror failures are classified from the
// error alone. If logger is nil the default logger is used.
func NewSyncEngine(
	db *sql.DB,
	cards store.CardStore,
	logs store.ReviewLogStore,
	queue store.SyncQueueStore,
	mirror remote.MirrorStore,
	scheduler schedule.Service,
	prober netcheck.Prober,
	logger *slog.Logger,
) *SyncEngine {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "sync_engine"))

	return &SyncEngine{
		db:        db,
		cards:     cards,
		logs:      logs,
		scheduler: scheduler,
		mq:        newMirrorQueue(mirror, queue, prober, logger),
		logger:    logger,
	}
}

// CommitSession persists a session's outcomes in the order they were
// recorded.
//
// For each outcome: the card is re-read, the review is applied through the
// scheduling state machine, and the updated card plus an immutable review log
// entry are written in a single local transaction. A local write failure
// aborts the commit; outcomes already persisted stay persisted, and the
// partial result is returned alongside the error.
//
// An outcome counts toward phase progress only if the card had not already
// been reviewed on the same user-local calendar day. Extra repetitions are
// still logged but change neither phase nor progress nor streaks.
func (e *SyncEngine) CommitSession(
	ctx context.Context,
	userID uuid.UUID,
	outcomes []ReviewOutcome,
	now time.Time,
	tz string,
) (*CommitResult, error) {
	if len(outcomes) == 0 {
		return nil, NewServiceError("commit session", "no outcomes", ErrSessionEmpty)
	}

	day, err := schedule.NewDayContext(now, tz)
	if err != nil {
		return nil, NewServiceError("commit session", "invalid timezone", err)
	}

	result := &CommitResult{}

	for _, outcome := range outcomes {
		card, revLog, err := e.applyOutcome(ctx, userID, outcome, day, now, tz)
		if err != nil {
			return result, err
		}
		result.PersistedLocally++

		e.mirrorOutcome(ctx, card, revLog, now, result)
	}

	e.logger.Info("session committed",
		slog.String("user_id", userID.String()),
		slog.Int("persisted", result.PersistedLocally),
		slog.Int("mirrored", result.MirroredRemotely),
		slog.Int("queued", result.QueuedForRetry))

	return result, nil
}

// applyOutcome runs one outcome through the state machine and persists the
// card update plus the review log in a single transaction.
func (e *SyncEngine) applyOutcome(
	ctx context.Context,
	userID uuid.UUID,
	outcome ReviewOutcome,
	day schedule.DayContext,
	now time.Time,
	tz string,
) (*domain.Card, *domain.ReviewLog, error) {
	card, err := e.cards.GetByID(ctx, outcome.CardID)
	if err != nil {
		return nil, nil, NewServiceError("commit session", "failed to load card", err)
	}
	if card.UserID != userID {
		return nil, nil, NewServiceError("commit session", "card does not belong to user",
			store.ErrCardNotFound)
	}

	counts, err := countsTowardProgress(card, day, tz)
	if err != nil {
		return nil, nil, NewServiceError("commit session", "failed to compare review days", err)
	}

	revision, err := e.scheduler.ApplyReview(card, outcome.WasSuccessful, counts, day)
	if err != nil {
		return nil, nil, NewServiceError("commit session", "scheduling rejected card", err)
	}

	updated := card.Clone()
	updated.Phase = revision.Phase
	updated.PhaseProgress = revision.PhaseProgress
	updated.NextDueDate = revision.NextDueDate

	if revision.Advanced {
		if err := e.assignSlot(ctx, updated); err != nil {
			return nil, nil, err
		}
	}

	applyStreak(updated, outcome.WasSuccessful, counts)

	reviewedAt := outcome.RecordedAt.UTC()
	updated.LastReviewedAt = &reviewedAt
	updated.UpdatedAt = now.UTC()

	revLog, err := domain.NewReviewLog(userID, card.ID, outcome.WasSuccessful, counts, outcome.RecordedAt)
	if err != nil {
		return nil, nil, NewServiceError("commit session", "failed to build review log", err)
	}

	err = store.RunInTransaction(ctx, e.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := e.cards.WithTx(tx).Update(ctx, updated); err != nil {
			return fmt.Errorf("failed to update card: %w", err)
		}
		if err := e.logs.WithTx(tx).Create(ctx, revLog); err != nil {
			return fmt.Errorf("failed to create review log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, NewServiceError("commit session", "local write failed", err)
	}

	return updated, revLog, nil
}

// assignSlot gives a card that just advanced a fresh recurring slot in its
// new phase, picked by the load balancer from the user's current slot usage.
func (e *SyncEngine) assignSlot(ctx context.Context, card *domain.Card) error {
	loads, err := e.cards.SlotLoads(ctx, card.UserID)
	if err != nil {
		return NewServiceError("commit session", "failed to read slot loads", err)
	}

	assignment, err := e.scheduler.PickAssignment(card.Phase, loads)
	if err != nil {
		return NewServiceError("commit session", "failed to pick assignment", err)
	}

	card.ClearAssignment()
	card.AssignedDayOfWeek = assignment.DayOfWeek
	card.AssignedWeekParity = assignment.WeekParity
	card.AssignedDayOfMonth = assignment.DayOfMonth

	e.logger.Info("card advanced to new phase",
		slog.String("card_id", card.ID.String()),
		slog.String("phase", string(card.Phase)))

	return nil
}

// mirrorOutcome pushes the review log and the card's new state to the remote
// mirror, falling back to the sync queue. Enqueue failures are logged, not
// returned; the local commit already succeeded and must stand.
func (e *SyncEngine) mirrorOutcome(
	ctx context.Context,
	card *domain.Card,
	revLog *domain.ReviewLog,
	now time.Time,
	result *CommitResult,
) {
	queued := 0

	res, err := e.mq.createReviewLog(ctx, revLog, now)
	if err != nil {
		e.logger.Error("failed to queue review log mirror",
			slog.String("review_log_id", revLog.ID.String()),
			slog.String("error", err.Error()))
	} else if res.Queued {
		queued++
		result.ConnectivityHint = res.Hint
	}

	res, err = e.mq.upsertCard(ctx, card, now)
	if err != nil {
		e.logger.Error("failed to queue card mirror",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
	} else if res.Queued {
		queued++
		result.ConnectivityHint = res.Hint
	}

	if queued == 0 {
		result.MirroredRemotely++
	}
	result.QueuedForRetry += queued
}

// countsTowardProgress reports whether a review on the given day is the
// card's first counted review of that user-local day.
func countsTowardProgress(card *domain.Card, day schedule.DayContext, tz string) (bool, error) {
	if card.LastReviewedAt == nil {
		return true, nil
	}

	lastDay, err := schedule.LocalDate(*card.LastReviewedAt, tz)
	if err != nil {
		return false, err
	}

	return !lastDay.Equal(day.Date), nil
}

// applyStreak updates the card's streak counters for a counted outcome.
// Uncounted repetitions leave streaks alone in both directions.
func applyStreak(card *domain.Card, wasSuccessful, counted bool) {
	if !counted {
		return
	}

	if wasSuccessful {
		card.CurrentStreak++
		if card.CurrentStreak > card.BestStreak {
			card.BestStreak = card.CurrentStreak
		}
		return
	}

	card.CurrentStreak = 0
}
