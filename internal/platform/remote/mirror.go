package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wellversed/memoryd/internal/domain"
)

// MirrorStore is the contract of the remote authoritative store that local
// state is replicated to. All operations are idempotent: replaying a queued
// entry after a partial failure must be safe.
type MirrorStore interface {
	// CreateReviewLog mirrors an immutable review log entry. Mirroring the
	// same entry twice is a no-op on the remote side.
	CreateReviewLog(ctx context.Context, log *domain.ReviewLog) error

	// UpsertCard mirrors the card's current scheduling state.
	UpsertCard(ctx context.Context, card *domain.Card) error

	// UpsertVerse mirrors a verse. Verse text is immutable; the remote side
	// treats a differing text for an existing verse as an error.
	UpsertVerse(ctx context.Context, verse *domain.Verse) error
}

// HTTPMirror is the HTTP implementation of MirrorStore.
type HTTPMirror struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Ensure HTTPMirror implements MirrorStore
var _ MirrorStore = (*HTTPMirror)(nil)

// NewHTTPMirror creates a mirror client for the given base URL. If client is
// nil a default client with the given timeout is used; if logger is nil the
// default logger is used.
func NewHTTPMirror(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPMirror {
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPMirror{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "mirror_client")),
	}
}

// CreateReviewLog implements MirrorStore.CreateReviewLog
func (m *HTTPMirror) CreateReviewLog(ctx context.Context, log *domain.ReviewLog) error {
	return m.putJSON(ctx, "/v1/review-logs/"+log.ID.String(), log)
}

// UpsertCard implements MirrorStore.UpsertCard
func (m *HTTPMirror) UpsertCard(ctx context.Context, card *domain.Card) error {
	return m.putJSON(ctx, "/v1/cards/"+card.ID.String(), card)
}

// UpsertVerse implements MirrorStore.UpsertVerse
func (m *HTTPMirror) UpsertVerse(ctx context.Context, verse *domain.Verse) error {
	return m.putJSON(ctx, "/v1/verses/"+verse.ID.String(), verse)
}

// putJSON PUTs the entity to the given path. PUT against the entity's own ID
// keeps every mirror operation idempotent.
func (m *HTTPMirror) putJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode mirror payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mirror request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mirror request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Cap the body read; error details only.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
}
