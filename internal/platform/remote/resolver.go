package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Resolution is the resolver's answer for a raw reference: the canonical
// form plus the immutable verse text in a specific translation.
type Resolution struct {
	Reference   string `json:"reference"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// Resolver is the contract of the reference-resolution collaborator. It
// parses a free-text citation, resolves it against the source-of-truth text
// provider, and returns the canonical reference with its verse text.
type Resolver interface {
	// Resolve resolves a raw reference.
	// Returns ErrReferenceNotFound when the reference does not exist and
	// ErrInvalidReference when it cannot be parsed.
	Resolve(ctx context.Context, rawReference string) (*Resolution, error)
}

// HTTPResolver is the HTTP implementation of Resolver.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Ensure HTTPResolver implements Resolver
var _ Resolver = (*HTTPResolver)(nil)

// NewHTTPResolver creates a resolver client for the given base URL. If
// logger is nil the default logger is used.
func NewHTTPResolver(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPResolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "resolver_client")),
	}
}

// Resolve implements Resolver.Resolve
func (r *HTTPResolver) Resolve(ctx context.Context, rawReference string) (*Resolution, error) {
	endpoint := r.baseURL + "/v1/resolve?q=" + url.QueryEscape(rawReference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolver request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrReferenceNotFound, rawReference)
	case resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, rawReference)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var resolution Resolution
	if err := json.NewDecoder(resp.Body).Decode(&resolution); err != nil {
		return nil, fmt.Errorf("failed to decode resolver response: %w", err)
	}

	return &resolution, nil
}
