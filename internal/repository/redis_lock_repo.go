package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// DefaultRedisLockKey is the hash holding the scheduler lock fields.
const DefaultRedisLockKey = "wishlist-watcher:scheduler_lock"

// The hash has no TTL: staleness is decided by heartbeat age exactly like
// the PostgreSQL row, so a takeover needs an explicit acquire attempt.
var (
	acquireScript = redis.NewScript(`
		local owner = redis.call("HGET", KEYS[1], "instance_id")
		local now = tonumber(ARGV[2])
		if owner == ARGV[1] then
			redis.call("HSET", KEYS[1], "heartbeat_at", ARGV[2])
			return 1
		end
		if owner then
			local hb = tonumber(redis.call("HGET", KEYS[1], "heartbeat_at"))
			if hb and now - hb <= tonumber(ARGV[3]) then
				return 0
			end
		end
		redis.call("HSET", KEYS[1], "instance_id", ARGV[1], "acquired_at", ARGV[2], "heartbeat_at", ARGV[2])
		return 1
	`)

	renewScript = redis.NewScript(`
		if redis.call("HGET", KEYS[1], "instance_id") == ARGV[1] then
			redis.call("HSET", KEYS[1], "heartbeat_at", ARGV[2])
			return 1
		end
		return 0
	`)

	releaseScript = redis.NewScript(`
		if redis.call("HGET", KEYS[1], "instance_id") == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)
)

type redisLockRepository struct {
	client     *redis.Client
	key        string
	staleAfter time.Duration
	now        func() time.Time
}

// NewRedisLockRepository returns a LockRepository stored in a Redis hash.
// Timestamps come from now, so instances must keep their clocks in sync;
// nil uses time.Now.
func NewRedisLockRepository(client *redis.Client, key string, staleAfter time.Duration, now func() time.Time) LockRepository {
	if key == "" {
		key = DefaultRedisLockKey
	}
	if now == nil {
		now = time.Now
	}
	return &redisLockRepository{client: client, key: key, staleAfter: staleAfter, now: now}
}

func (r *redisLockRepository) TryAcquire(ctx context.Context, instanceID string) (bool, error) {
	res, err := acquireScript.Run(ctx, r.client, []string{r.key},
		instanceID, r.now().UnixMilli(), r.staleAfter.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	return res == 1, nil
}

func (r *redisLockRepository) Renew(ctx context.Context, instanceID string) (bool, error) {
	res, err := renewScript.Run(ctx, r.client, []string{r.key},
		instanceID, r.now().UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("renew scheduler lock: %w", err)
	}
	return res == 1, nil
}

func (r *redisLockRepository) Release(ctx context.Context, instanceID string) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, instanceID).Err(); err != nil {
		return fmt.Errorf("release scheduler lock: %w", err)
	}
	return nil
}

func (r *redisLockRepository) Get(ctx context.Context) (*domain.SchedulerLock, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get scheduler lock: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.SchedulerLock{
		ID:          domain.SchedulerLockID,
		InstanceID:  fields["instance_id"],
		AcquiredAt:  parseMillis(fields["acquired_at"]),
		HeartbeatAt: parseMillis(fields["heartbeat_at"]),
	}, nil
}

func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
