package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "gate:cooldown:"

// RedisCooldowns shares cooldowns between processes. SET NX PX arms and
// decides in a single server-side step; expiry follows the Redis clock, so
// the now argument is only stored for inspection.
type RedisCooldowns struct {
	client redis.Cmdable
}

func NewRedisCooldowns(client redis.Cmdable) *RedisCooldowns {
	return &RedisCooldowns{client: client}
}

func (r *RedisCooldowns) key(producer string) string {
	return cooldownKeyPrefix + producer
}

func (r *RedisCooldowns) Active(ctx context.Context, producer string, _ time.Time) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(producer)).Result()
	if err != nil {
		return false, fmt.Errorf("check cooldown %s: %w", producer, err)
	}
	return n == 1, nil
}

func (r *RedisCooldowns) TryArm(ctx context.Context, producer string, now time.Time, cooldown time.Duration) (bool, error) {
	armed, err := r.client.SetNX(ctx, r.key(producer), now.UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("arm cooldown %s: %w", producer, err)
	}
	return armed, nil
}
