package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/netcheck"
	"github.com/wellversed/memoryd/internal/platform/remote"
	"github.com/wellversed/memoryd/internal/store"
)

// AddVerseResult is the outcome of adding a verse to a user's collection.
type AddVerseResult struct {
	Verse *domain.Verse
	Card  *domain.Card

	// VerseWasCached is true when the verse text was already stored locally
	// and only re-verified against the resolver.
	VerseWasCached bool

	// QueuedForRetry is the number of sync queue entries created because the
	// remote mirror was unreachable.
	QueuedForRetry int

	// ConnectivityHint is a user-facing message when mirroring fell back to
	// the queue. Empty when everything mirrored cleanly.
	ConnectivityHint string
}

// VerseService handles verse intake: resolving a raw reference, caching the
// immutable verse text, and creating the user's card for it.
//
// Resolution always goes to the resolver, even for cached verses. The cached
// text is compared against the resolver's answer; a mismatch is surfaced as
// ErrVerseVerificationFailed rather than silently repaired, because verse
// text is immutable by definition and a divergence means corrupted data.
type VerseService struct {
	db       *sql.DB
	verses   store.VerseStore
	cards    store.CardStore
	resolver remote.Resolver
	mq       *mirrorQueue
	logger   *slog.Logger
}

// NewVerseService creates a verse intake service. prober may be nil; if
// logger is nil the default logger is used.
func NewVerseService(
	db *sql.DB,
	verses store.VerseStore,
	cards store.CardStore,
	queue store.SyncQueueStore,
	resolver remote.Resolver,
	mirror remote.MirrorStore,
	prober netcheck.Prober,
	logger *slog.Logger,
) *VerseService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "verse_service"))

	return &VerseService{
		db:       db,
		verses:   verses,
		cards:    cards,
		resolver: resolver,
		mq:       newMirrorQueue(mirror, queue, prober, logger),
		logger:   logger,
	}
}

// AddVerse resolves rawReference, stores the verse text if it is new, and
// creates a daily card for the user.
//
// Unlike reviews, adding a verse requires the resolver to be reachable; there
// is no offline fallback because the authoritative text cannot be invented
// locally. Returns remote.ErrReferenceNotFound or remote.ErrInvalidReference
// from the resolver, store.ErrCardExists when the user already has a card
// for the verse, and ErrVerseVerificationFailed on a cached-text mismatch.
func (s *VerseService) AddVerse(
	ctx context.Context,
	userID uuid.UUID,
	rawReference string,
	now time.Time,
) (*AddVerseResult, error) {
	resolution, err := s.resolver.Resolve(ctx, rawReference)
	if err != nil {
		return nil, NewServiceError("add verse", "failed to resolve reference", err)
	}

	verse, cached, err := s.verseForResolution(ctx, resolution, now)
	if err != nil {
		return nil, err
	}

	card, err := domain.NewCard(userID, verse.ID, now)
	if err != nil {
		return nil, NewServiceError("add verse", "failed to build card", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if !cached {
			if err := s.verses.WithTx(tx).Create(ctx, verse); err != nil {
				return fmt.Errorf("failed to store verse: %w", err)
			}
		}
		if err := s.cards.WithTx(tx).Create(ctx, card); err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, NewServiceError("add verse", "local write failed", err)
	}

	result := &AddVerseResult{
		Verse:          verse,
		Card:           card,
		VerseWasCached: cached,
	}
	s.mirrorIntake(ctx, verse, cached, card, now, result)

	s.logger.Info("verse added",
		slog.String("user_id", userID.String()),
		slog.String("reference", verse.Reference),
		slog.Bool("cached", cached))

	return result, nil
}

// verseForResolution returns the locally cached verse for the resolution,
// verifying its text, or builds a new one.
func (s *VerseService) verseForResolution(
	ctx context.Context,
	resolution *remote.Resolution,
	now time.Time,
) (*domain.Verse, bool, error) {
	existing, err := s.verses.GetByReference(ctx, resolution.Reference, resolution.Translation)
	switch {
	case err == nil:
		if existing.Text != resolution.Text {
			s.logger.Error("cached verse text diverged from resolver",
				slog.String("reference", resolution.Reference),
				slog.String("translation", resolution.Translation))
			return nil, false, NewServiceError("add verse", "cached text mismatch",
				ErrVerseVerificationFailed)
		}
		return existing, true, nil

	case errors.Is(err, store.ErrVerseNotFound):
		verse, err := domain.NewVerse(resolution.Reference, resolution.Text, resolution.Translation, now)
		if err != nil {
			return nil, false, NewServiceError("add verse", "failed to build verse", err)
		}
		return verse, false, nil

	default:
		return nil, false, NewServiceError("add verse", "failed to look up verse", err)
	}
}

// mirrorIntake pushes the new verse and card to the remote mirror best-effort.
func (s *VerseService) mirrorIntake(
	ctx context.Context,
	verse *domain.Verse,
	cached bool,
	card *domain.Card,
	now time.Time,
	result *AddVerseResult,
) {
	if !cached {
		res, err := s.mq.upsertVerse(ctx, verse, card.UserID, now)
		if err != nil {
			s.logger.Error("failed to queue verse mirror",
				slog.String("verse_id", verse.ID.String()),
				slog.String("error", err.Error()))
		} else if res.Queued {
			result.QueuedForRetry++
			result.ConnectivityHint = res.Hint
		}
	}

	res, err := s.mq.upsertCard(ctx, card, now)
	if err != nil {
		s.logger.Error("failed to queue card mirror",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
	} else if res.Queued {
		result.QueuedForRetry++
		result.ConnectivityHint = res.Hint
	}
}
