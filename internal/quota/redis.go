package quota

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"cv-ingest/internal/shared/telemetry"
)

const redisKeyPrefix = "quota:uploads:"

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisService keeps a fixed-window counter per user. Each check counts as an
// upload attempt. Redis errors fail open.
type RedisService struct {
	client redisCounter
	limit  int
	window time.Duration
}

func NewRedisService(client redisCounter, limit int, window time.Duration) *RedisService {
	return &RedisService{client: client, limit: limit, window: window}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (s *RedisService) CheckUploadQuota(ctx context.Context, userID string) (Decision, error) {
	if s.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	count, err := incrWithTTL(ctx, s.client, redisKeyPrefix+userID, s.window)
	if err != nil {
		telemetry.Warn("quota.redis.unavailable", map[string]any{
			"user_id": userID,
			"err":     err,
		})
		return Decision{Allowed: true, Limit: s.limit}, nil
	}
	// count includes this attempt.
	return decide(int(count)-1, s.limit, s.window), nil
}

func incrWithTTL(ctx context.Context, client redisCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// A counter without a TTL would block the user for good.
		if err := client.Expire(ctx, key, ttl).Err(); err != nil {
			_ = client.Del(ctx, key).Err()
			return 0, err
		}
	}
	return count, nil
}
