package orchestrator

import (
	"context"
	"time"

	"outdial-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisGuard implements Guard as a Redis lease with expiry, for deployments
// running more than one API instance. The TTL caps how long a crashed instance
// can block a campaign; it should exceed the orchestrator's wall-clock ceiling.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration

	// owner distinguishes this process's leases so a release cannot drop a
	// lease re-acquired by another instance after expiry.
	owner string
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl, owner: uuid.NewString()}
}

func (g *RedisGuard) key(campaignID string) string {
	return "orchestrator:run:" + campaignID
}

func (g *RedisGuard) TryAcquire(ctx context.Context, campaignID string) (bool, error) {
	return utils.AcquireLease(ctx, g.rdb, g.key(campaignID), g.owner, g.ttl)
}

func (g *RedisGuard) Release(ctx context.Context, campaignID string) error {
	return utils.ReleaseLease(ctx, g.rdb, g.key(campaignID), g.owner)
}
