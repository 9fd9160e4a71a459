package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const activityKeyPrefix = "session:activity:"

// activityEntry is the JSON payload kept per session id.
type activityEntry struct {
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// SessionActivityCache keeps a secondary last-activity record per
// session in Redis. It is the fallback the timeout checker uses when
// the durable session store cannot be reached. Entries carry a TTL so
// abandoned sessions vanish on their own.
type SessionActivityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionActivityCache builds the cache. ttl should comfortably
// exceed the session timeout so the fallback outlives the deadline it
// has to judge.
func NewSessionActivityCache(client *redis.Client, ttl time.Duration) *SessionActivityCache {
	return &SessionActivityCache{client: client, ttl: ttl}
}

// Touch upserts the activity entry for a session.
func (c *SessionActivityCache) Touch(ctx context.Context, id string, lastActivity, expiresAt time.Time) error {
	payload, err := json.Marshal(activityEntry{LastActivityAt: lastActivity, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("marshal activity entry: %w", err)
	}
	if err := c.client.Set(ctx, activityKeyPrefix+id, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set activity entry: %w", err)
	}
	return nil
}

// LastActivity returns the cached last-activity timestamp.
func (c *SessionActivityCache) LastActivity(ctx context.Context, id string) (time.Time, error) {
	data, err := c.client.Get(ctx, activityKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, fmt.Errorf("no activity entry for session %s", id)
		}
		return time.Time{}, fmt.Errorf("get activity entry: %w", err)
	}

	var entry activityEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal activity entry: %w", err)
	}
	return entry.LastActivityAt, nil
}

// Delete removes the activity entry, typically on session termination.
func (c *SessionActivityCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, activityKeyPrefix+id).Err()
}
