package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wellversed/memoryd/internal/domain"
	"github.com/wellversed/memoryd/internal/domain/schedule"
	"github.com/wellversed/memoryd/internal/store"
)

// SQLiteCardStore implements the store.CardStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCardStore creates a new SQLite implementation of the CardStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller. If logger is nil, the default
// logger is used.
func NewCardStore(db store.DBTX, logger *slog.Logger) *SQLiteCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure SQLiteCardStore implements store.CardStore interface
var _ store.CardStore = (*SQLiteCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *SQLiteCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &SQLiteCardStore{db: tx, logger: s.logger}
}

const cardColumns = `id, user_id, verse_id, phase, phase_progress,
	assigned_day_of_week, assigned_week_parity, assigned_day_of_month,
	next_due_date, current_streak, best_streak, last_reviewed_at,
	archived, created_at, updated_at`

// Create implements store.CardStore.Create
func (s *SQLiteCardStore) Create(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verse_cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID.String(),
		card.UserID.String(),
		card.VerseID.String(),
		string(card.Phase),
		card.PhaseProgress,
		nullableInt(card.AssignedDayOfWeek),
		nullableInt(card.AssignedWeekParity),
		nullableInt(card.AssignedDayOfMonth),
		card.NextDueDate,
		card.CurrentStreak,
		card.BestStreak,
		nullableTime(card.LastReviewedAt),
		card.Archived,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrCardExists
		}
		return store.NewStoreError("card", "create", "failed to insert card", err)
	}

	return nil
}

// GetByID implements store.CardStore.GetByID
func (s *SQLiteCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM verse_cards WHERE id = ?
	`, id.String())

	card, err := scanCard(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, store.NewStoreError("card", "get", "failed to scan card", err)
	}

	return card, nil
}

// GetByUserAndVerse implements store.CardStore.GetByUserAndVerse
func (s *SQLiteCardStore) GetByUserAndVerse(
	ctx context.Context,
	userID, verseID uuid.UUID,
) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM verse_cards WHERE user_id = ? AND verse_id = ?
	`, userID.String(), verseID.String())

	card, err := scanCard(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, store.NewStoreError("card", "get_by_user_and_verse", "failed to scan card", err)
	}

	return card, nil
}

// Update implements store.CardStore.Update
func (s *SQLiteCardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE verse_cards
		SET phase = ?, phase_progress = ?,
			assigned_day_of_week = ?, assigned_week_parity = ?, assigned_day_of_month = ?,
			next_due_date = ?, current_streak = ?, best_streak = ?,
			last_reviewed_at = ?, archived = ?, updated_at = ?
		WHERE id = ?
	`,
		string(card.Phase),
		card.PhaseProgress,
		nullableInt(card.AssignedDayOfWeek),
		nullableInt(card.AssignedWeekParity),
		nullableInt(card.AssignedDayOfMonth),
		card.NextDueDate,
		card.CurrentStreak,
		card.BestStreak,
		nullableTime(card.LastReviewedAt),
		card.Archived,
		card.UpdatedAt,
		card.ID.String(),
	)
	if err != nil {
		return store.NewStoreError("card", "update", "failed to update card", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("card", "update", "failed to read rows affected", err)
	}
	if affected == 0 {
		return store.ErrCardNotFound
	}

	return nil
}

// ListActiveByUser implements store.CardStore.ListActiveByUser
func (s *SQLiteCardStore) ListActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM verse_cards
		WHERE user_id = ? AND archived = 0
		ORDER BY created_at, id
	`, userID.String())
	if err != nil {
		return nil, store.NewStoreError("card", "list_active", "failed to query cards", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, store.NewStoreError("card", "list_active", "failed to scan card", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card", "list_active", "failed to iterate cards", err)
	}

	return cards, nil
}

// SlotLoads implements store.CardStore.SlotLoads
func (s *SQLiteCardStore) SlotLoads(
	ctx context.Context,
	userID uuid.UUID,
) (schedule.SlotLoads, error) {
	loads := schedule.SlotLoads{
		Weekday:  make(map[int]int),
		Biweekly: make(map[schedule.BiweeklySlot]int),
		Monthly:  make(map[int]int),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT phase, assigned_day_of_week, assigned_week_parity, assigned_day_of_month, COUNT(*)
		FROM verse_cards
		WHERE user_id = ? AND archived = 0 AND phase != 'daily'
		GROUP BY phase, assigned_day_of_week, assigned_week_parity, assigned_day_of_month
	`, userID.String())
	if err != nil {
		return loads, store.NewStoreError("card", "slot_loads", "failed to query slot loads", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			phase  string
			dow    sql.NullInt64
			parity sql.NullInt64
			dom    sql.NullInt64
			count  int
		)
		if err := rows.Scan(&phase, &dow, &parity, &dom, &count); err != nil {
			return loads, store.NewStoreError("card", "slot_loads", "failed to scan slot load", err)
		}

		switch domain.Phase(phase) {
		case domain.PhaseWeekly:
			if dow.Valid {
				loads.Weekday[int(dow.Int64)] += count
			}
		case domain.PhaseBiweekly:
			if dow.Valid && parity.Valid {
				slot := schedule.BiweeklySlot{
					DayOfWeek:  int(dow.Int64),
					WeekParity: int(parity.Int64),
				}
				loads.Biweekly[slot] += count
			}
		case domain.PhaseMonthly:
			if dom.Valid {
				loads.Monthly[int(dom.Int64)] += count
			}
		}
	}
	if err := rows.Err(); err != nil {
		return loads, store.NewStoreError("card", "slot_loads", "failed to iterate slot loads", err)
	}

	return loads, nil
}

// scanCard reads one card row from either a *sql.Row or *sql.Rows scan
// function.
func scanCard(scan func(dest ...any) error) (*domain.Card, error) {
	var (
		card           domain.Card
		id, userID     string
		verseID, phase string
		dow            sql.NullInt64
		parity         sql.NullInt64
		dom            sql.NullInt64
		lastReviewed   sql.NullTime
		nextDue        time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := scan(
		&id, &userID, &verseID, &phase, &card.PhaseProgress,
		&dow, &parity, &dom,
		&nextDue, &card.CurrentStreak, &card.BestStreak, &lastReviewed,
		&card.Archived, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if card.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid card ID %q: %w", id, err)
	}
	if card.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid card user ID %q: %w", userID, err)
	}
	if card.VerseID, err = uuid.Parse(verseID); err != nil {
		return nil, fmt.Errorf("invalid card verse ID %q: %w", verseID, err)
	}

	card.Phase = domain.Phase(phase)
	card.AssignedDayOfWeek = intPtrFromNull(dow)
	card.AssignedWeekParity = intPtrFromNull(parity)
	card.AssignedDayOfMonth = intPtrFromNull(dom)
	card.NextDueDate = nextDue.UTC()
	card.CreatedAt = createdAt.UTC()
	card.UpdatedAt = updatedAt.UTC()
	if lastReviewed.Valid {
		t := lastReviewed.Time.UTC()
		card.LastReviewedAt = &t
	}

	return &card, nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtrFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
