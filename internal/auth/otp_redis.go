package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Expired entries linger this long so a late attempt reports "expired" rather than "not found".
const otpExpiryGrace = time.Minute

const (
	consumeNotFound = 0
	consumeOK       = 1
	consumeExpired  = 2
	consumeMismatch = 3
)

// KEYS[1] otp key; ARGV[1] code hash, ARGV[2] now (unix ms), ARGV[3] max attempts (0 = unlimited)
var consumeOTPScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'code_hash', 'expires_at')
if not v[1] then
	return 0
end
if tonumber(v[2]) < tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1])
	return 2
end
if v[1] ~= ARGV[1] then
	local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
	local max = tonumber(ARGV[3])
	if max > 0 and n >= max then
		redis.call('DEL', KEYS[1])
	end
	return 3
end
redis.call('DEL', KEYS[1])
return 1
`)

// RedisOTPStore keeps signup codes in Redis hashes with a TTL
type RedisOTPStore struct {
	client      *redis.Client
	maxAttempts int
}

func NewRedisOTPStore(client *redis.Client, maxAttempts int) *RedisOTPStore {
	return &RedisOTPStore{client: client, maxAttempts: maxAttempts}
}

// getOTPKey generates the Redis key for an email's pending code
func getOTPKey(email string) string {
	return fmt.Sprintf("otp:signup:%s", email)
}

// Put replaces any pending code for email
func (s *RedisOTPStore) Put(ctx context.Context, email string, entry OTPEntry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("otp expiration time is in the past")
	}

	key := getOTPKey(email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"code_hash":  hashToken(entry.Code),
			"expires_at": entry.ExpiresAt.UnixMilli(),
			"attempts":   0,
		})
		pipe.Expire(ctx, key, ttl+otpExpiryGrace)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	return nil
}

func (s *RedisOTPStore) Consume(ctx context.Context, email, code string, now time.Time) error {
	res, err := consumeOTPScript.Run(ctx, s.client,
		[]string{getOTPKey(email)},
		hashToken(code), now.UnixMilli(), s.maxAttempts,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}

	switch res {
	case consumeOK:
		return nil
	case consumeExpired:
		return ErrOTPExpired
	case consumeMismatch:
		return ErrOTPInvalid
	default:
		return ErrOTPNotFound
	}
}

func (s *RedisOTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, getOTPKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}
