// Package retry provides the bounded-retry executor wrapped around every
// blob-store call. Retry policy lives here once instead of at each call site.
package retry

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"wrh/nightaudit/internal/logging"
)

var log = logging.GetLogger()

// SetLogger allows setting a configured logger.
func SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	log = logger
}

// Classifier decides whether an error is worth retrying.
type Classifier func(error) bool

// Policy describes the backoff schedule: base × multiplier^attempt, capped
// at MaxDelay, for at most MaxAttempts total attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	Retryable   Classifier
}

// DefaultPolicy returns the policy used when configuration supplies nothing.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    5 * time.Second,
		Retryable:   IsTransient,
	}
}

// Do runs op, retrying per the policy. Non-retryable errors fail immediately
// without consuming retry budget. Context cancellation stops the loop.
func Do(ctx context.Context, p Policy, op string, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	classifier := p.Retryable
	if classifier == nil {
		classifier = IsTransient
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "%s: cancelled before attempt %d", op, attempt+1)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !classifier(lastErr) {
			return errors.Wrapf(lastErr, "%s: non-retryable", op)
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := backoff(p, attempt)
		log.WithError(lastErr).Warn("Transient error, backing off",
			logging.Field{Key: logging.FieldStep, Value: op},
			logging.Field{Key: logging.FieldAttempt, Value: attempt + 1},
			logging.Field{Key: logging.FieldDuration, Value: delay.Milliseconds()})

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "%s: cancelled during backoff", op)
		case <-time.After(delay):
		}
	}

	return errors.Wrapf(lastErr, "%s: retries exhausted after %d attempts", op, p.MaxAttempts)
}

func backoff(p Policy, attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// transientPatterns match the infrastructure failures worth retrying:
// network drops, timeouts, throttling, and 5xx storage responses.
var transientPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"broken pipe",
	"temporarily unavailable",
	"throttl",
	"rate limit",
	"too many requests",
	"internal error",
	"backend error",
	"service unavailable",
	"bad gateway",
	"eof",
	"500",
	"502",
	"503",
	"504",
}

// IsTransient classifies an error as retryable based on well-known
// network/timeout/throttle/5xx patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Host cancellation is terminal, not transient.
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
