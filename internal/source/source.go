// Package source fetches raw vulnerability payloads from the upstream
// databases. Every client retries transient failures with exponential
// backoff and classifies what it cannot recover from, so callers can
// decide between falling back to another database and giving up.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/osv-scanner/pkg/models"

	"github.com/cvelens/cvelens/internal/logging"
	"github.com/cvelens/cvelens/internal/metrics"
)

var logger = logging.InitLogger()

// Kind identifies an upstream vulnerability database.
type Kind string

const (
	KindCVE   Kind = "cve"
	KindNVD   Kind = "nvd"
	KindOSV   Kind = "osv"
	KindChain Kind = "chain"
)

// FailureKind classifies why a lookup failed.
type FailureKind int

const (
	// FailureNotFound means the database answered and has no record.
	FailureNotFound FailureKind = iota
	// FailureTransient covers timeouts, rate limits and server errors
	// that a retry or another database may recover from.
	FailureTransient
	// FailureFatal covers rejections that no retry will fix, such as a
	// bad request or an invalid API key.
	FailureFatal
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureTransient:
		return "transient"
	case FailureFatal:
		return "fatal"
	}
	return "unknown"
}

// SourceError reports a failed lookup against one database.
type SourceError struct {
	Source Kind
	ID     string
	Kind   FailureKind
	Status int
	Err    error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s lookup for %s failed", e.Source, e.ID)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the database has no such record.
func IsNotFound(err error) bool {
	var srcErr *SourceError
	return errors.As(err, &srcErr) && srcErr.Kind == FailureNotFound
}

// IsTransient reports whether err may go away on retry.
func IsTransient(err error) bool {
	var srcErr *SourceError
	return errors.As(err, &srcErr) && srcErr.Kind == FailureTransient
}

// IsFatal reports whether err is a rejection that retrying cannot fix.
func IsFatal(err error) bool {
	var srcErr *SourceError
	return errors.As(err, &srcErr) && srcErr.Kind == FailureFatal
}

// Payload carries the raw decoded answer of one database. Exactly one of
// the variant fields is set, matching Source.
type Payload struct {
	Source Kind
	CVE    *CVERecord
	NVD    *NVDVulnerability
	OSV    *models.Vulnerability
}

// Client looks up one vulnerability identifier against a database.
type Client interface {
	Name() Kind
	Fetch(ctx context.Context, id string) (*Payload, error)
}

// Policy bounds how a client spends time on one identifier.
type Policy struct {
	// Timeout caps each individual attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of tries, the first one included.
	MaxAttempts int
	// InitialInterval and MaxInterval shape the backoff between tries.
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy returns the retry settings used in production.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:         10 * time.Second,
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// ForName builds the client selected by name. The chain consults the CVE
// database first and falls back to NVD for records it cannot resolve.
func ForName(name string, policy Policy, nvdAPIKey string) (Client, error) {
	switch name {
	case "cve":
		return NewCVEClient(policy), nil
	case "nvd":
		return NewNVDClient(policy, nvdAPIKey), nil
	case "osv":
		return NewOSVClient(policy), nil
	case "chain":
		return NewChain(NewCVEClient(policy), NewNVDClient(policy, nvdAPIKey)), nil
	}
	return nil, fmt.Errorf("unknown source %q", name)
}

// fetchWithRetry runs attempt under the policy, retrying transient
// failures with exponential backoff. Each attempt gets its own deadline
// carved out of ctx; cancelling ctx stops the retry loop.
func fetchWithRetry(ctx context.Context, policy Policy, name Kind, id string, attempt func(ctx context.Context) (*Payload, error)) (*Payload, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.InitialInterval
	expo.MaxInterval = policy.MaxInterval
	expo.MaxElapsedTime = 0

	// WithMaxRetries treats zero as unlimited, so a single attempt needs
	// the stop policy instead.
	var bo backoff.BackOff = &backoff.StopBackOff{}
	if policy.MaxAttempts > 1 {
		bo = backoff.WithMaxRetries(expo, uint64(policy.MaxAttempts-1))
	}

	var payload *Payload
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		defer cancel()

		start := time.Now()
		result, err := attempt(attemptCtx)
		metrics.Default.UpstreamDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())
		metrics.Default.UpstreamRequests.WithLabelValues(string(name), outcomeLabel(err)).Inc()

		if err != nil {
			if IsTransient(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		payload = result
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Sugar().Warnf("Lookup of %s against %s failed, retrying in %s: %v", id, name, wait, err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return payload, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Kind.String()
	}
	return "error"
}

// classifyStatus turns a non-200 answer into a SourceError. Rate limits
// and server errors are worth retrying, a missing record is not, and
// anything else means the request itself was rejected.
func classifyStatus(src Kind, id string, status int) *SourceError {
	kind := FailureFatal
	switch {
	case status == http.StatusNotFound:
		kind = FailureNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		kind = FailureTransient
	}
	return &SourceError{Source: src, ID: id, Kind: kind, Status: status}
}

// classifyTransport turns a failed round trip into a SourceError. A
// cancelled context must not be retried, everything else on the wire may
// recover.
func classifyTransport(src Kind, id string, err error) *SourceError {
	kind := FailureTransient
	if errors.Is(err, context.Canceled) {
		kind = FailureFatal
	}
	return &SourceError{Source: src, ID: id, Kind: kind, Err: err}
}
