package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.Equal(t, 5, cfg.MaxSameErrorType)
}

func TestLLMConfig(t *testing.T) {
	cfg := LLMConfig()
	assert.Greater(t, cfg.InitialDelay, DefaultConfig().InitialDelay)
	assert.Equal(t, 3, cfg.MaxSameErrorType)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	attempts := 0
	lastErr := errors.New("still failing")
	err := Do(context.Background(), fastConfig(2), func() error {
		attempts++
		return lastErr
	})

	assert.Equal(t, lastErr, err)
	assert.Equal(t, 3, attempts, "initial attempt plus 2 retries")
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult_KeepsLastResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(1), func() (int, error) {
		attempts++
		return attempts * 10, errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 20, result)
}

func TestDoWithResult_NilConfig(t *testing.T) {
	result, err := DoWithResult(context.Background(), nil, func() (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

type declaredError struct{ retryable bool }

func (e *declaredError) Error() string     { return "declared timeout" }
func (e *declaredError) IsRetryable() bool { return e.retryable }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"i/o timeout", errors.New("read tcp: i/o timeout"), true},
		{"rate limit", errors.New("Rate limit exceeded"), true},
		{"too many connections", errors.New("FATAL: sorry, too many connections"), true},
		{"syntax error", errors.New("syntax error at or near SELECT"), false},
		{"context canceled", fmt.Errorf("query: %w", context.Canceled), false},
		{"declared retryable", &declaredError{retryable: true}, true},
		{"declared permanent overrides pattern", fmt.Errorf("wrap: %w", &declaredError{retryable: false}), false},
		{"pg unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestClassifyErrorType(t *testing.T) {
	assert.Equal(t, "rate_limit", classifyErrorType(errors.New("HTTP 429 Too Many Requests")))
	assert.Equal(t, "connection", classifyErrorType(errors.New("connection reset by peer")))
	assert.Equal(t, "timeout", classifyErrorType(errors.New("context deadline exceeded")))
	assert.Equal(t, "503", classifyErrorType(errors.New("HTTP 503 Service Unavailable")))
	assert.Equal(t, "unknown", classifyErrorType(errors.New("boom")))
	assert.Equal(t, "nil", classifyErrorType(nil))
}

func TestDoIfRetryable_NonRetryableError(t *testing.T) {
	attempts := 0
	permanent := errors.New("permission denied")
	err := DoIfRetryable(context.Background(), fastConfig(3), func() error {
		attempts++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, attempts)
}

func TestDoIfRetryable_RetryableError(t *testing.T) {
	attempts := 0
	err := DoIfRetryable(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDoIfRetryable_EscalatesRepeatedErrorType(t *testing.T) {
	cfg := fastConfig(10)
	cfg.MaxSameErrorType = 3

	attempts := 0
	err := DoIfRetryable(context.Background(), cfg, func() error {
		attempts++
		return errors.New("HTTP 503 Service Unavailable")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeated error (3 times, type=503)")
	assert.Equal(t, 3, attempts)
}

func TestDoIfRetryable_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	err := DoIfRetryable(ctx, cfg, func() error {
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
