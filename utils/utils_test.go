package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("gateway")

	assert.Equal(t, "gateway", cb.name)
	assert.Equal(t, uint32(50), cb.maxRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 30*time.Second, cb.timeout)
	assert.Equal(t, 0.5, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.state)
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("gateway")
	ctx := context.Background()

	result, err := cb.Execute(ctx, func() (any, error) {
		return "checkout-url", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "checkout-url", result)
	assert.Equal(t, StateClosed, cb.state)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("gateway")
	ctx := context.Background()

	expectedError := errors.New("gateway unreachable")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, expectedError
	})

	assert.Error(t, err)
	assert.Equal(t, expectedError, err)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_TripsOpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("gateway")
	cb.maxRequests = 4
	cb.failureRatio = 0.5

	ctx := context.Background()

	for i := 0; i < 4; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
	}

	assert.Equal(t, StateOpen, cb.state)

	// Rejected without executing the request.
	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("must not execute while open")
		return nil, nil
	})
	assert.Error(t, err)
}

// Random code tests

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Equal(t, code, code[:8])

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

// Crypto tests

func TestHmac256_Deterministic(t *testing.T) {
	a := Hmac256([]byte("body"), []byte("key"))
	b := Hmac256([]byte("body"), []byte("key"))
	c := Hmac256([]byte("body"), []byte("other-key"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSecretHashing(t *testing.T) {
	hash, err := HashSecret("intent-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "intent-secret", hash)

	assert.True(t, CompareSecret(hash, "intent-secret"))
	assert.False(t, CompareSecret(hash, "wrong-secret"))
}
