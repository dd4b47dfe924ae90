package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Verse-specific validation errors
var (
	// ErrVerseIDEmpty is returned when a verse ID is empty or nil.
	ErrVerseIDEmpty = errors.New("verse ID cannot be empty")

	// ErrVerseReferenceEmpty is returned when a verse's canonical reference is empty.
	ErrVerseReferenceEmpty = errors.New("verse reference cannot be empty")

	// ErrVerseTextEmpty is returned when a verse's text is empty.
	ErrVerseTextEmpty = errors.New("verse text cannot be empty")

	// ErrVerseTranslationEmpty is returned when a verse's translation is empty.
	ErrVerseTranslationEmpty = errors.New("verse translation cannot be empty")
)

// Verse holds the resolved, immutable text for a canonical scripture
// reference in a specific translation. Verse text is defined to be
// immutable: once stored, it is re-verified against the resolver rather
// than updated.
type Verse struct {
	ID          uuid.UUID `json:"id"`
	Reference   string    `json:"reference"` // canonical form, e.g. "John 3:16"
	Text        string    `json:"text"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewVerse creates a verse from a resolver result.
// Returns an error if validation fails.
func NewVerse(reference, text, translation string, now time.Time) (*Verse, error) {
	verse := &Verse{
		ID:          uuid.New(),
		Reference:   reference,
		Text:        text,
		Translation: translation,
		CreatedAt:   now.UTC(),
	}

	if err := verse.Validate(); err != nil {
		return nil, err
	}

	return verse, nil
}

// Validate checks if the Verse has valid data.
func (v *Verse) Validate() error {
	if v.ID == uuid.Nil {
		return ErrVerseIDEmpty
	}

	if v.Reference == "" {
		return ErrVerseReferenceEmpty
	}

	if v.Text == "" {
		return ErrVerseTextEmpty
	}

	if v.Translation == "" {
		return ErrVerseTranslationEmpty
	}

	return nil
}
