package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(gen Generator, threshold int) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(gen, CircuitBreakerConfig{Threshold: threshold, ResetAfter: 30 * time.Second})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func failingGenerator(err error) *MockGenerator {
	gen := NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
		return nil, err
	}
	return gen
}

func TestCircuitBreaker_PassesThroughWhenClosed(t *testing.T) {
	cb, _ := newTestBreaker(NewMockGenerator(), 3)

	result, err := cb.Generate(context.Background(), &GenerateRequest{Prompt: "hero section"})

	require.NoError(t, err)
	assert.Contains(t, result.Content, "hero section")
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, "mock-model", cb.GetModel())
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	gen := failingGenerator(NewError(ErrorTypeEndpoint, "server error", true, nil))
	cb, _ := newTestBreaker(gen, 3)

	for i := 0; i < 3; i++ {
		_, err := cb.Generate(context.Background(), &GenerateRequest{})
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	assert.Equal(t, CircuitOpen, cb.State())

	_, err := cb.Generate(context.Background(), &GenerateRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Len(t, gen.Requests(), 3, "open circuit must not call the provider")
}

func TestCircuitBreaker_NonRetryableErrorsDoNotTrip(t *testing.T) {
	gen := failingGenerator(NewError(ErrorTypeAuth, "authentication failed", false, nil))
	cb, _ := newTestBreaker(gen, 2)

	for i := 0; i < 5; i++ {
		_, _ = cb.Generate(context.Background(), &GenerateRequest{})
	}

	assert.Equal(t, CircuitClosed, cb.State())
	assert.Len(t, gen.Requests(), 5)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	fail := true
	gen := NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
		if fail {
			return nil, NewError(ErrorTypeRateLimited, "rate limited", true, nil)
		}
		return &GenerateResult{Content: "<p>ok</p>"}, nil
	}
	cb, now := newTestBreaker(gen, 1)

	_, err := cb.Generate(context.Background(), &GenerateRequest{})
	require.Error(t, err)
	require.Equal(t, CircuitOpen, cb.State())

	*now = now.Add(31 * time.Second)
	fail = false

	result, err := cb.Generate(context.Background(), &GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", result.Content)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	gen := failingGenerator(NewError(ErrorTypeEndpoint, "server error", true, nil))
	cb, now := newTestBreaker(gen, 1)

	_, _ = cb.Generate(context.Background(), &GenerateRequest{})
	*now = now.Add(31 * time.Second)
	_, err := cb.Generate(context.Background(), &GenerateRequest{})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCircuitOpen), "probe should reach the provider")
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}
