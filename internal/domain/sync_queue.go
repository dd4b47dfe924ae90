package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncOperation identifies the kind of remote mirror operation a queue entry
// will replay. Payloads are a tagged union keyed by this value; unknown
// operations are rejected rather than stored.
type SyncOperation string

// Known sync operations
const (
	SyncOpCreateVerse     SyncOperation = "create_verse"
	SyncOpUpsertCard      SyncOperation = "upsert_card"
	SyncOpCreateReviewLog SyncOperation = "create_review_log"
)

// SyncStatus tracks a queue entry through its lifecycle.
type SyncStatus string

// Possible sync entry statuses
const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusDone    SyncStatus = "done"
)

// Sync queue validation errors
var (
	// ErrSyncEntryIDEmpty is returned when a queue entry ID is empty or nil.
	ErrSyncEntryIDEmpty = errors.New("sync queue entry ID cannot be empty")

	// ErrSyncEntryUserIDEmpty is returned when a queue entry's user ID is empty or nil.
	ErrSyncEntryUserIDEmpty = errors.New("sync queue entry user ID cannot be empty")

	// ErrUnknownSyncOperation is returned when an operation kind is not part
	// of the known tagged union.
	ErrUnknownSyncOperation = errors.New("unknown sync operation")

	// ErrInvalidSyncStatus is returned when a status value is not recognized.
	ErrInvalidSyncStatus = errors.New("invalid sync status")

	// ErrMalformedSyncPayload is returned when a queue entry payload cannot be
	// decoded as the type its operation requires.
	ErrMalformedSyncPayload = errors.New("malformed sync payload")

	// ErrNegativeRetryCount is returned when a queue entry's retry count is negative.
	ErrNegativeRetryCount = errors.New("retry count cannot be negative")
)

// CreateVersePayload is the payload for SyncOpCreateVerse entries.
type CreateVersePayload struct {
	Verse Verse `json:"verse"`
}

// UpsertCardPayload is the payload for SyncOpUpsertCard entries.
type UpsertCardPayload struct {
	Card Card `json:"card"`
}

// CreateReviewLogPayload is the payload for SyncOpCreateReviewLog entries.
type CreateReviewLogPayload struct {
	ReviewLog ReviewLog `json:"review_log"`
}

// SyncQueueEntry is the durable record of a remote mirror attempt that
// failed and is awaiting retry. Entries never block local availability; the
// local store stays the source of truth while they wait.
type SyncQueueEntry struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Operation  SyncOperation   `json:"operation"`
	Payload    json.RawMessage `json:"payload"`
	OriginID   uuid.UUID       `json:"origin_id"` // ID of the entity being mirrored
	QueuedAt   time.Time       `json:"queued_at"`
	RetryCount int             `json:"retry_count"`
	Status     SyncStatus      `json:"status"`
}

// IsValid reports whether the operation is part of the known tagged union.
func (op SyncOperation) IsValid() bool {
	switch op {
	case SyncOpCreateVerse, SyncOpUpsertCard, SyncOpCreateReviewLog:
		return true
	default:
		return false
	}
}

// IsValid reports whether the status is a recognized lifecycle state.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSyncing, SyncStatusFailed, SyncStatusDone:
		return true
	default:
		return false
	}
}

// NewSyncQueueEntry creates a pending queue entry for a failed mirror
// attempt. The payload must be one of the typed payload structs matching the
// operation; anything else is rejected.
func NewSyncQueueEntry(
	userID uuid.UUID,
	op SyncOperation,
	originID uuid.UUID,
	payload any,
	now time.Time,
) (*SyncQueueEntry, error) {
	if !op.IsValid() {
		return nil, ErrUnknownSyncOperation
	}

	if err := checkPayloadType(op, payload); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSyncPayload, err)
	}

	entry := &SyncQueueEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Operation:  op,
		Payload:    raw,
		OriginID:   originID,
		QueuedAt:   now.UTC(),
		RetryCount: 0,
		Status:     SyncStatusPending,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// checkPayloadType rejects payload values that do not match the operation's
// slot in the tagged union.
func checkPayloadType(op SyncOperation, payload any) error {
	ok := false
	switch op {
	case SyncOpCreateVerse:
		_, ok = payload.(CreateVersePayload)
	case SyncOpUpsertCard:
		_, ok = payload.(UpsertCardPayload)
	case SyncOpCreateReviewLog:
		_, ok = payload.(CreateReviewLogPayload)
	}
	if !ok {
		return fmt.Errorf("%w: payload type %T does not match operation %q",
			ErrMalformedSyncPayload, payload, op)
	}
	return nil
}

// Validate checks if the SyncQueueEntry has valid data.
func (e *SyncQueueEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrSyncEntryIDEmpty
	}

	if e.UserID == uuid.Nil {
		return ErrSyncEntryUserIDEmpty
	}

	if !e.Operation.IsValid() {
		return ErrUnknownSyncOperation
	}

	if !e.Status.IsValid() {
		return ErrInvalidSyncStatus
	}

	if e.RetryCount < 0 {
		return ErrNegativeRetryCount
	}

	if len(e.Payload) == 0 {
		return ErrMalformedSyncPayload
	}

	return nil
}

// DecodePayload decodes the entry's payload into the typed struct for its
// operation. Returns ErrMalformedSyncPayload when decoding fails.
func (e *SyncQueueEntry) DecodePayload() (any, error) {
	switch e.Operation {
	case SyncOpCreateVerse:
		var p CreateVersePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSyncPayload, err)
		}
		return p, nil
	case SyncOpUpsertCard:
		var p UpsertCardPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSyncPayload, err)
		}
		return p, nil
	case SyncOpCreateReviewLog:
		var p CreateReviewLogPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSyncPayload, err)
		}
		return p, nil
	default:
		return nil, ErrUnknownSyncOperation
	}
}
