package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptsKeyPrefix = "login:attempts:"

// LoginAttempts counts consecutive failed logins per account in Redis
// and enforces the lockout window. The counter key carries the
// lockout TTL, so a lockout clears itself when the window elapses.
type LoginAttempts struct {
	client  *redis.Client
	max     int
	lockout time.Duration
}

// NewLoginAttempts builds the counter store.
func NewLoginAttempts(client *redis.Client, maxAttempts int, lockout time.Duration) *LoginAttempts {
	return &LoginAttempts{client: client, max: maxAttempts, lockout: lockout}
}

func attemptsKey(email string) string {
	return attemptsKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Fail records one failed attempt and returns how many attempts
// remain before lockout (zero means locked).
func (a *LoginAttempts) Fail(ctx context.Context, email string) (remaining int, err error) {
	key := attemptsKey(email)
	count, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment login attempts: %w", err)
	}
	// Each failure restarts the window.
	if err := a.client.Expire(ctx, key, a.lockout).Err(); err != nil {
		return 0, fmt.Errorf("expire login attempts: %w", err)
	}
	remaining = a.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Locked reports whether the account is currently locked out and, if
// so, for how much longer.
func (a *LoginAttempts) Locked(ctx context.Context, email string) (bool, time.Duration, error) {
	key := attemptsKey(email)
	count, err := a.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("get login attempts: %w", err)
	}
	if int(count) < a.max {
		return false, 0, nil
	}
	ttl, err := a.client.TTL(ctx, key).Result()
	if err != nil {
		return true, a.lockout, nil
	}
	if ttl < 0 {
		ttl = 0
	}
	return true, ttl, nil
}

// Reset clears the counter after a successful login.
func (a *LoginAttempts) Reset(ctx context.Context, email string) error {
	return a.client.Del(ctx, attemptsKey(email)).Err()
}
