package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultIPLimit       = 10
	DefaultIPWindow      = 15 * time.Minute
	DefaultEmailCooldown = 60 * time.Second
)

// Limiter keeps fixed-window request counters in Redis
type Limiter struct {
	client        *redis.Client
	ipLimit       int64
	ipWindow      time.Duration
	emailCooldown time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client:        client,
		ipLimit:       DefaultIPLimit,
		ipWindow:      DefaultIPWindow,
		emailCooldown: DefaultEmailCooldown,
	}
}

// WithLimits overrides the defaults; used by tests and tuned deployments
func (l *Limiter) WithLimits(ipLimit int, ipWindow, emailCooldown time.Duration) *Limiter {
	l.ipLimit = int64(ipLimit)
	l.ipWindow = ipWindow
	l.emailCooldown = emailCooldown
	return l
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func emailKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", email)
}

// countScript bumps the window counter and starts the window on the first hit
var countScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// AllowIP counts one request from ip for purpose and reports whether it fits the window.
// Counting and checking is a single Redis step, so concurrent requests cannot share a slot.
func (l *Limiter) AllowIP(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := countScript.Run(ctx, l.client, []string{ipKey(ip, purpose)}, l.ipWindow.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to count ip request: %w", err)
	}
	return count <= l.ipLimit, nil
}

// ClaimEmailCooldown starts the cooldown for email. It returns false when a
// cooldown is already running.
func (l *Limiter) ClaimEmailCooldown(ctx context.Context, email string) (bool, error) {
	ok, err := l.client.SetNX(ctx, emailKey(email), 1, l.emailCooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim email cooldown: %w", err)
	}
	return ok, nil
}

// ReleaseEmailCooldown ends a cooldown early, e.g. when the mail could not be sent
func (l *Limiter) ReleaseEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Del(ctx, emailKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to release email cooldown: %w", err)
	}
	return nil
}
