package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLimiter(client).WithLimits(3, time.Minute, 30*time.Second), mr
}

func TestAllowIP(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		allowed, err := l.AllowIP(ctx, "10.0.0.1", "login")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := l.AllowIP(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.False(t, allowed)

	// other purposes and addresses keep their own counters
	allowed, err = l.AllowIP(ctx, "10.0.0.1", "register")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = l.AllowIP(ctx, "10.0.0.2", "login")
	require.NoError(t, err)
	assert.True(t, allowed)

	// the window starts with the first request and is not extended by later ones
	ttl := mr.TTL(ipKey("10.0.0.1", "login"))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %s", ttl)

	mr.FastForward(time.Minute + time.Second)
	allowed, err = l.AllowIP(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllowIP_ConcurrentBurst(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t)
	l.WithLimits(10, time.Minute, 30*time.Second)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.AllowIP(ctx, "10.0.0.1", "verify-otp")
			if assert.NoError(t, err) && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), allowed.Load())
}

func TestEmailCooldown(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)

	claimed, err := l.ClaimEmailCooldown(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = l.ClaimEmailCooldown(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, claimed)

	mr.FastForward(31 * time.Second)
	claimed, err = l.ClaimEmailCooldown(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, claimed)

	require.NoError(t, l.ReleaseEmailCooldown(ctx, "a@example.com"))
	claimed, err = l.ClaimEmailCooldown(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestEmailCooldown_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t)

	var (
		wg      sync.WaitGroup
		claimed atomic.Int64
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.ClaimEmailCooldown(ctx, "a@example.com")
			if assert.NoError(t, err) && ok {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), claimed.Load())
}

func TestRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.AllowIP(context.Background(), "10.0.0.1", "login")
	assert.Error(t, err)
	_, err = l.ClaimEmailCooldown(context.Background(), "a@example.com")
	assert.Error(t, err)
}
