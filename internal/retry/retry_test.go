package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 10 * time.Millisecond}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), "op", func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), "op", func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("connection reset by peer")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), "op", func() error {
		calls++
		return fmt.Errorf("503 service unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestDoNonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), "op", func() error {
		calls++
		return fmt.Errorf("object not found: daily-files/x")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "non-retryable")
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastPolicy(), "op", func() error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestBackoffSchedule(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, Multiplier: 2.0, MaxDelay: 500 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, backoff(p, 0))
	assert.Equal(t, 200*time.Millisecond, backoff(p, 1))
	assert.Equal(t, 400*time.Millisecond, backoff(p, 2))
	// Capped at MaxDelay from here on.
	assert.Equal(t, 500*time.Millisecond, backoff(p, 3))
	assert.Equal(t, 500*time.Millisecond, backoff(p, 10))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"timeout", fmt.Errorf("dial tcp: i/o timeout"), true},
		{"throttling", fmt.Errorf("googleapi: Error 429: rate limit exceeded"), true},
		{"server error", fmt.Errorf("googleapi: got HTTP response code 503"), true},
		{"bad gateway", fmt.Errorf("502 bad gateway"), true},
		{"unexpected eof", fmt.Errorf("unexpected EOF"), true},
		{"not found", fmt.Errorf("object not found"), false},
		{"context cancelled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsTransient(tc.err))
		})
	}
}
