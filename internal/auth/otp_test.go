package auth

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

func newRedisOTPStore(t *testing.T, maxAttempts int) (*RedisOTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisOTPStore(client, maxAttempts), mr
}

// otpStores runs each case against both implementations
func otpStores(t *testing.T, maxAttempts int) map[string]OTPStore {
	redisStore, _ := newRedisOTPStore(t, maxAttempts)
	return map[string]OTPStore{
		"memory": NewMemoryOTPStore(maxAttempts),
		"redis":  redisStore,
	}
}

func TestOTPStore_Consume(t *testing.T) {
	ctx := context.Background()
	const email = "ada@example.com"

	for name, store := range otpStores(t, 5) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			require.ErrorIs(t, store.Consume(ctx, email, "123456", now), ErrOTPNotFound)

			require.NoError(t, store.Put(ctx, email, OTPEntry{Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}))

			assert.ErrorIs(t, store.Consume(ctx, email, "654321", now), ErrOTPInvalid)
			assert.NoError(t, store.Consume(ctx, email, "123456", now))

			// single use
			assert.ErrorIs(t, store.Consume(ctx, email, "123456", now), ErrOTPNotFound)
		})
	}
}

func TestOTPStore_Expired(t *testing.T) {
	ctx := context.Background()
	const email = "ada@example.com"

	for name, store := range otpStores(t, 5) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			require.NoError(t, store.Put(ctx, email, OTPEntry{Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}))

			later := now.Add(5*time.Minute + time.Second)
			assert.ErrorIs(t, store.Consume(ctx, email, "123456", later), ErrOTPExpired)
			// the expired entry is gone
			assert.ErrorIs(t, store.Consume(ctx, email, "123456", now), ErrOTPNotFound)
		})
	}
}

func TestOTPStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	const email = "ada@example.com"

	for name, store := range otpStores(t, 5) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			require.NoError(t, store.Put(ctx, email, OTPEntry{Code: "111111", ExpiresAt: now.Add(time.Minute)}))
			require.NoError(t, store.Put(ctx, email, OTPEntry{Code: "222222", ExpiresAt: now.Add(time.Minute)}))

			assert.ErrorIs(t, store.Consume(ctx, email, "111111", now), ErrOTPInvalid)
			assert.NoError(t, store.Consume(ctx, email, "222222", now))
		})
	}
}

func TestOTPStore_MaxAttempts(t *testing.T) {
	ctx := context.Background()
	const email = "ada@example.com"

	for name, store := range otpStores(t, 3) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			require.NoError(t, store.Put(ctx, email, OTPEntry{Code: "123456", ExpiresAt: now.Add(time.Minute)}))

			for i := 0; i < 3; i++ {
				assert.ErrorIs(t, store.Consume(ctx, email, "000000", now), ErrOTPInvalid)
			}
			assert.ErrorIs(t, store.Consume(ctx, email, "123456", now), ErrOTPNotFound)
		})
	}
}

func TestOTPStore_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	const email = "ada@example.com"

	for name, store := range otpStores(t, 0) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			require.NoError(t, store.Put(ctx, email, OTPEntry{Code: "123456", ExpiresAt: now.Add(time.Minute)}))

			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if store.Consume(ctx, email, "123456", now) == nil {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestRedisOTPStore_KeyTTLAndHashing(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisOTPStore(t, 5)

	require.NoError(t, store.Put(ctx, "ada@example.com", OTPEntry{Code: "123456", ExpiresAt: time.Now().Add(5 * time.Minute)}))

	key := getOTPKey("ada@example.com")
	require.True(t, mr.Exists(key))
	assert.Equal(t, hashToken("123456"), mr.HGet(key, "code_hash"))
	assert.Greater(t, mr.TTL(key), 5*time.Minute)

	mr.FastForward(7 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestRedisOTPStore_PastExpiry(t *testing.T) {
	store, _ := newRedisOTPStore(t, 5)
	err := store.Put(context.Background(), "ada@example.com", OTPEntry{Code: "123456", ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
}

func TestMemoryOTPStore_EvictExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOTPStore(5)
	now := time.Now()

	require.NoError(t, store.Put(ctx, "old@example.com", OTPEntry{Code: "111111", ExpiresAt: now.Add(-2 * otpExpiryGrace)}))
	require.NoError(t, store.Put(ctx, "new@example.com", OTPEntry{Code: "222222", ExpiresAt: now.Add(time.Minute)}))

	assert.Equal(t, 1, store.evictExpired(now))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryOTPStore_RunStopsWithContext(t *testing.T) {
	store := NewMemoryOTPStore(5)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
	}
}
