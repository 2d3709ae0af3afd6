package common

import (
	"context"
	"time"
)

// SeenTracker tracks set membership in Redis. Knows nothing about hooks or
// providers -- just operates on a key and member strings. Used to drop
// duplicate provider webhook deliveries.
type SeenTracker struct {
	rdb *RedisClient
}

func NewSeenTracker(rdb *RedisClient) *SeenTracker {
	return &SeenTracker{rdb: rdb}
}

// MarkSeen records member under key and reports whether it was new.
// The key expires after ttl so the set stays bounded. A nil tracker or
// redis failure reports new=true: dropping a real event is worse than
// executing a duplicate (the executor tolerates duplicate runs).
func (t *SeenTracker) MarkSeen(ctx context.Context, key, member string, ttl time.Duration) bool {
	if t == nil || t.rdb == nil {
		return true
	}
	added, err := t.rdb.SAdd(ctx, key, member).Result()
	if err != nil {
		return true
	}
	if ttl > 0 {
		t.rdb.Expire(ctx, key, ttl)
	}
	return added > 0
}
