// Package netcheck distinguishes "device offline" from "remote service
// degraded" so sync failures can be reported with the right user message.
// Classification never changes retry behavior; it only picks the message.
package netcheck

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"
)

// User-facing messages for the two failure families.
const (
	MsgCheckConnection    = "check your connection"
	MsgServiceUnavailable = "service temporarily unavailable"
)

// ProbeResult is the outcome of an independent reachability probe.
type ProbeResult int

// Probe outcomes
const (
	ProbeUnknown ProbeResult = iota
	ProbeOnline
	ProbeOffline
)

// Classification is the verdict for one remote failure.
type Classification struct {
	IsConnectivityIssue bool
	UserMessage         string
}

// statusCarrier is implemented by errors that carry an HTTP status from the
// remote service (e.g. remote.StatusError).
type statusCarrier interface {
	HTTPStatus() int
}

// Classify decides whether a remote failure looks like a local connectivity
// problem or a degraded remote service.
//
// The probe result wins outright: if an independent probe says the device
// has no internet reachability, the error text is irrelevant. Otherwise the
// error is pattern-matched; network-layer signatures (timeout, DNS failure,
// connection refused/reset) count as connectivity, service-layer signatures
// (5xx statuses) do not. Ambiguous errors default to "not connectivity" —
// telling the user to check their connection when the remote service is the
// problem is the worse mistake.
func Classify(err error, probe ProbeResult) Classification {
	if probe == ProbeOffline {
		return Classification{IsConnectivityIssue: true, UserMessage: MsgCheckConnection}
	}

	if err == nil {
		return Classification{IsConnectivityIssue: false, UserMessage: MsgServiceUnavailable}
	}

	// A carried HTTP status means the remote answered; the network is fine.
	var status statusCarrier
	if errors.As(err, &status) {
		return Classification{IsConnectivityIssue: false, UserMessage: MsgServiceUnavailable}
	}

	if isNetworkSignature(err) {
		return Classification{IsConnectivityIssue: true, UserMessage: MsgCheckConnection}
	}

	return Classification{IsConnectivityIssue: false, UserMessage: MsgServiceUnavailable}
}

// isNetworkSignature matches transport-level failure shapes.
func isNetworkSignature(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Prober reports general internet reachability, independent of whichever
// call just failed.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// HTTPProber checks reachability with a HEAD request against a well-known
// endpoint. Any HTTP response at all, including an error status, proves the
// network path works; only a transport failure means offline.
type HTTPProber struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// Ensure HTTPProber implements Prober
var _ Prober = (*HTTPProber)(nil)

// NewHTTPProber creates a prober against the given URL. If logger is nil the
// default logger is used.
func NewHTTPProber(url string, timeout time.Duration, logger *slog.Logger) *HTTPProber {
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPProber{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "net_prober")),
	}
}

// Probe implements Prober.Probe
func (p *HTTPProber) Probe(ctx context.Context) ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return ProbeUnknown
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("reachability probe failed", "error", err)
		return ProbeOffline
	}
	_ = resp.Body.Close()

	return ProbeOnline
}
