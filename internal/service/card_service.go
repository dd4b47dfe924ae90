package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/domain/schedule"
	"github.com/wellversed/memoryd/internal/netcheck"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/store"
)

// CardService handles card queries and manual edits: the due list, phase and
// assignment overrides, archiving, and review history. Every read is served
// from the local store only; edits are persisted locally and mirrored
// best-effort like any other write.
type CardService struct {
	cards     store.CardStore
	logs      store.ReviewLogStore
	queue     store.SyncQueueStore
	scheduler schedule.Service
	mq        *mirrorQueue
	logger    *slog.Logger
}

// NewCardService creates a card service. prober may be nil; if logger is nil
// the default logger is used.
func NewCardService(
	cards store.CardStore,
	logs store.ReviewLogStore,
	queue store.SyncQueueStore,
	mirror remote.MirrorStore,
	scheduler schedule.Service,
	prober netcheck.Prober,
	logger *slog.Logger,
) *CardService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "card_service"))

	return &CardService{
		cards:     cards,
		logs:      logs,
		queue:     queue,
		scheduler: scheduler,
		mq:        newMirrorQueue(mirror, queue, prober, logger),
		logger:    logger,
	}
}

// DueCards returns the user's cards due for review on their current local
// calendar day, in creation order. Purely local; works fully offline.
func (s *CardService) DueCards(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	tz string,
) ([]*domain.Card, error) {
	day, err := schedule.NewDayContext(now, tz)
	if err != nil {
		return nil, NewServiceError("list due cards", "invalid timezone", err)
	}

	active, err := s.cards.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("list due cards", "failed to list cards", err)
	}

	due := make([]*domain.Card, 0, len(active))
	for _, card := range active {
		ok, err := s.scheduler.IsDue(card, day)
		if err != nil {
			return nil, NewServiceError("list due cards", "card failed validation", err)
		}
		if ok {
			due = append(due, card)
		}
	}

	return due, nil
}

// SetPhase manually moves a card into the given phase. Progress resets to
// zero, a fresh slot is assigned for the new phase (or cleared for daily),
// and the due date is recomputed from the user's current day. The change is
// mirrored best-effort.
func (s *CardService) SetPhase(
	ctx context.Context,
	userID, cardID uuid.UUID,
	phase domain.Phase,
	now time.Time,
	tz string,
) (*domain.Card, error) {
	const op = "set phase"

	day, err := schedule.NewDayContext(now, tz)
	if err != nil {
		return nil, NewServiceError(op, "invalid timezone", err)
	}

	card, err := s.ownedCard(ctx, op, userID, cardID)
	if err != nil {
		return nil, err
	}

	updated := card.Clone()
	updated.Phase = phase
	updated.PhaseProgress = 0
	updated.ClearAssignment()

	if phase != domain.PhaseDaily {
		loads, err := s.cards.SlotLoads(ctx, userID)
		if err != nil {
			return nil, NewServiceError(op, "failed to read slot loads", err)
		}
		assignment, err := s.scheduler.PickAssignment(phase, loads)
		if err != nil {
			return nil, NewServiceError(op, "failed to pick assignment", err)
		}
		updated.AssignedDayOfWeek = assignment.DayOfWeek
		updated.AssignedWeekParity = assignment.WeekParity
		updated.AssignedDayOfMonth = assignment.DayOfMonth
	}

	nextDue, err := s.scheduler.NextDue(phase, day)
	if err != nil {
		return nil, NewServiceError(op, "failed to compute due date", err)
	}
	updated.NextDueDate = nextDue
	updated.UpdatedAt = now.UTC()

	if err := s.saveAndMirror(ctx, op, updated, now); err != nil {
		return nil, err
	}

	return updated, nil
}

// SetAssignment manually pins a card to a specific recurring slot. The
// assignment must match the card's phase; an inconsistent combination is
// rejected with the store's validation error, never adjusted. The due date is
// recomputed from the user's current day.
func (s *CardService) SetAssignment(
	ctx context.Context,
	userID, cardID uuid.UUID,
	assignment schedule.Assignment,
	now time.Time,
	tz string,
) (*domain.Card, error) {
	const op = "set assignment"

	day, err := schedule.NewDayContext(now, tz)
	if err != nil {
		return nil, NewServiceError(op, "invalid timezone", err)
	}

	card, err := s.ownedCard(ctx, op, userID, cardID)
	if err != nil {
		return nil, err
	}

	updated := card.Clone()
	updated.ClearAssignment()
	updated.AssignedDayOfWeek = assignment.DayOfWeek
	updated.AssignedWeekParity = assignment.WeekParity
	updated.AssignedDayOfMonth = assignment.DayOfMonth

	if err := updated.Validate(); err != nil {
		return nil, NewServiceError(op, "assignment inconsistent with phase", err)
	}

	nextDue, err := s.scheduler.NextDue(updated.Phase, day)
	if err != nil {
		return nil, NewServiceError(op, "failed to compute due date", err)
	}
	updated.NextDueDate = nextDue
	updated.UpdatedAt = now.UTC()

	if err := s.saveAndMirror(ctx, op, updated, now); err != nil {
		return nil, err
	}

	return updated, nil
}

// Archive removes a card from scheduling without deleting its history.
// Archived cards are never due and never occupy an assignment slot in the
// balancer's counts.
func (s *CardService) Archive(
	ctx context.Context,
	userID, cardID uuid.UUID,
	now time.Time,
) (*domain.Card, error) {
	const op = "archive card"

	card, err := s.ownedCard(ctx, op, userID, cardID)
	if err != nil {
		return nil, err
	}

	updated := card.Clone()
	updated.Archived = true
	updated.UpdatedAt = now.UTC()

	if err := s.saveAndMirror(ctx, op, updated, now); err != nil {
		return nil, err
	}

	return updated, nil
}

// RecentReviews returns up to limit of the user's most recent review log
// entries, newest first.
func (s *CardService) RecentReviews(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.ReviewLog, error) {
	logs, err := s.logs.ListRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, NewServiceError("list recent reviews", "failed to list review logs", err)
	}
	return logs, nil
}

// PendingSync reports how many of the user's sync queue entries sit in each
// status. A non-zero pending or failed count is a warning state for the UI,
// never a blocker.
func (s *CardService) PendingSync(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.SyncStatus]int, error) {
	counts, err := s.queue.CountByStatus(ctx, userID)
	if err != nil {
		return nil, NewServiceError("pending sync", "failed to count queue entries", err)
	}
	return counts, nil
}

// ownedCard loads a card and checks ownership. A card belonging to another
// user reports ErrCardNotFound rather than revealing that it exists.
func (s *CardService) ownedCard(
	ctx context.Context,
	op string,
	userID, cardID uuid.UUID,
) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, NewServiceError(op, "failed to load card", err)
	}
	if card.UserID != userID {
		return nil, NewServiceError(op, "card does not belong to user", store.ErrCardNotFound)
	}
	return card, nil
}

// saveAndMirror persists the card locally, then mirrors it best-effort.
func (s *CardService) saveAndMirror(
	ctx context.Context,
	op string,
	card *domain.Card,
	now time.Time,
) error {
	if err := s.cards.Update(ctx, card); err != nil {
		return NewServiceError(op, "local write failed", err)
	}

	res, err := s.mq.upsertCard(ctx, card, now)
	if err != nil {
		s.logger.Error("failed to queue card mirror",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
	} else if res.Queued {
		s.logger.Warn("card edit queued for sync",
			slog.String("card_id", card.ID.String()),
			slog.String("hint", res.Hint))
	}

	return nil
}
