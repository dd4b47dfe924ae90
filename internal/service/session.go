package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome is one answered card inside a session: which card, whether
// recall succeeded, and when the answer was given. Outcomes stay in memory
// until the session commits; nothing is persisted before then.
type ReviewOutcome struct {
	CardID        uuid.UUID
	WasSuccessful bool
	RecordedAt    time.Time
}

// SessionState is a point-in-time snapshot of a user's review session.
type SessionState struct {
	UserID    uuid.UUID
	StartedAt time.Time
	Queue     []uuid.UUID
	Position  int
	Revealed  bool
	Outcomes  []ReviewOutcome
}

// Complete reports whether every card in the queue has an outcome.
func (s *SessionState) Complete() bool {
	return s.Position >= len(s.Queue)
}

// CurrentCard returns the card awaiting an outcome, or uuid.Nil when the
// session is complete.
func (s *SessionState) CurrentCard() uuid.UUID {
	if s.Complete() {
		return uuid.Nil
	}
	return s.Queue[s.Position]
}

// session is the manager's internal mutable record.
type session struct {
	userID    uuid.UUID
	startedAt time.Time
	queue     []uuid.UUID
	position  int
	revealed  bool
	outcomes  []ReviewOutcome
}

// SessionManager holds in-flight review sessions, at most one per user.
// Sessions live purely in memory: a crash before commit loses the recorded
// outcomes, and the cards simply come up due again. Safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[uuid.UUID]*session),
	}
}

// Start opens a session over the given cards, presented in the given order.
// Returns ErrSessionActive if the user already has one and ErrSessionEmpty
// if there are no cards to review.
func (m *SessionManager) Start(
	userID uuid.UUID,
	cardIDs []uuid.UUID,
	now time.Time,
) (*SessionState, error) {
	if len(cardIDs) == 0 {
		return nil, ErrSessionEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; ok {
		return nil, ErrSessionActive
	}

	s := &session{
		userID:    userID,
		startedAt: now.UTC(),
		queue:     append([]uuid.UUID(nil), cardIDs...),
	}
	m.sessions[userID] = s

	return s.snapshot(), nil
}

// Snapshot returns a copy of the user's session state.
func (m *SessionManager) Snapshot(userID uuid.UUID) (*SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s.snapshot(), nil
}

// Reveal marks the current card's text as shown. An outcome can only be
// recorded after the reveal, so a user cannot grade a card they never saw.
func (m *SessionManager) Reveal(userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return ErrNoActiveSession
	}
	if s.position >= len(s.queue) {
		return ErrSessionComplete
	}

	s.revealed = true
	return nil
}

// RecordOutcome grades the current card and advances to the next one.
// Returns ErrOutcomeBeforeReveal if the card has not been revealed.
func (m *SessionManager) RecordOutcome(
	userID uuid.UUID,
	wasSuccessful bool,
	now time.Time,
) (*SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	if s.position >= len(s.queue) {
		return nil, ErrSessionComplete
	}
	if !s.revealed {
		return nil, ErrOutcomeBeforeReveal
	}

	s.outcomes = append(s.outcomes, ReviewOutcome{
		CardID:        s.queue[s.position],
		WasSuccessful: wasSuccessful,
		RecordedAt:    now.UTC(),
	})
	s.position++
	s.revealed = false

	return s.snapshot(), nil
}

// UndoLast removes the most recent outcome and steps back to its card. The
// card stays revealed; the user already saw the text. Returns the removed
// outcome.
func (m *SessionManager) UndoLast(userID uuid.UUID) (ReviewOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return ReviewOutcome{}, ErrNoActiveSession
	}
	if len(s.outcomes) == 0 {
		return ReviewOutcome{}, ErrNothingToUndo
	}

	last := s.outcomes[len(s.outcomes)-1]
	s.outcomes = s.outcomes[:len(s.outcomes)-1]
	s.position--
	s.revealed = true

	return last, nil
}

// Abandon discards the user's session and every recorded outcome. Nothing is
// persisted; the cards come up due again on the next session.
func (m *SessionManager) Abandon(userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; !ok {
		return ErrNoActiveSession
	}
	delete(m.sessions, userID)
	return nil
}

// Finish closes the user's session and hands back its outcomes in the order
// they were recorded, for the commit pipeline to persist. A session with no
// outcomes cannot be finished; use Abandon instead.
//
// The session is removed before the outcomes are persisted. If the commit
// fails the outcomes are lost, matching crash behavior: the local store never
// holds a half-committed session.
func (m *SessionManager) Finish(userID uuid.UUID) ([]ReviewOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	if len(s.outcomes) == 0 {
		return nil, ErrSessionEmpty
	}

	delete(m.sessions, userID)
	return append([]ReviewOutcome(nil), s.outcomes...), nil
}

func (s *session) snapshot() *SessionState {
	return &SessionState{
		UserID:    s.userID,
		StartedAt: s.startedAt,
		Queue:     append([]uuid.UUID(nil), s.queue...),
		Position:  s.position,
		Revealed:  s.revealed,
		Outcomes:  append([]ReviewOutcome(nil), s.outcomes...),
	}
}
