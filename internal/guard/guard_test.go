package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "10.0.0.1")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "10.0.0.1")
	rl.Check(ctx, "10.0.0.1")
	result := rl.Check(ctx, "10.0.0.1")

	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	r1 := rl.Check(ctx, "10.0.0.1")
	r2 := rl.Check(ctx, "10.0.0.2")

	assert.True(t, r1.Allowed)
	assert.True(t, r2.Allowed)
}

func TestRateLimiter_SweepsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(5, 10*time.Millisecond)
	ctx := context.Background()

	rl.Check(ctx, "10.0.0.1")
	rl.Check(ctx, "10.0.0.2")
	assert.Equal(t, 2, rl.ActiveKeys())

	time.Sleep(15 * time.Millisecond)

	// A fresh request triggers the sweep; only the active key remains.
	rl.Check(ctx, "10.0.0.3")
	assert.Equal(t, 1, rl.ActiveKeys())
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "10.0.0.1").Allowed)
	assert.False(t, rl.Check(ctx, "10.0.0.1").Allowed)

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Check(ctx, "10.0.0.1").Allowed)
}
