package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

const statsKeyPrefix = "diagnosis-hub:dashboard:"

// CachedDashboard is the dashboard payload as stored in Redis.
type CachedDashboard struct {
	Stats          domain.DashboardStats   `json:"stats"`
	RecentActivity []domain.RecentActivity `json:"recent_activity"`
	CachedAt       time.Time               `json:"cached_at"`
}

// StatsCache caches dashboard statistics per user in Redis. A nil
// *StatsCache is valid and behaves as an always-missing cache.
type StatsCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStatsCache connects to Redis. It returns (nil, nil) when no Redis URL is
// configured.
func NewStatsCache(ctx context.Context, config domain.CacheConfig) (*StatsCache, error) {
	if config.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewStatsCacheWithClient(client, config.StatsTTL), nil
}

// NewStatsCacheWithClient wraps an existing Redis client.
func NewStatsCacheWithClient(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{redis: client, ttl: ttl}
}

// Get returns the cached dashboard for userKey. Corrupt entries are dropped
// and reported as a miss.
func (c *StatsCache) Get(ctx context.Context, userKey string) (*CachedDashboard, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	key := statsKey(userKey)
	val, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get dashboard cache: %w", err)
	}

	var cached CachedDashboard
	if err := json.Unmarshal(val, &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}
	return &cached, true, nil
}

// Set stores the dashboard for userKey with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, userKey string, stats domain.DashboardStats, recent []domain.RecentActivity) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(CachedDashboard{
		Stats:          stats,
		RecentActivity: recent,
		CachedAt:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard cache data: %w", err)
	}
	return c.redis.Set(ctx, statsKey(userKey), data, c.ttl).Err()
}

// Invalidate drops the cached dashboard for userKey.
func (c *StatsCache) Invalidate(ctx context.Context, userKey string) error {
	if c == nil {
		return nil
	}
	return c.redis.Del(ctx, statsKey(userKey)).Err()
}

// Ping checks the Redis connection. A disabled cache has nothing to check.
func (c *StatsCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (c *StatsCache) Close() error {
	if c == nil {
		return nil
	}
	return c.redis.Close()
}

// statsKey hashes the user key so tokens never appear in Redis key names.
func statsKey(userKey string) string {
	sum := sha256.Sum256([]byte(userKey))
	return statsKeyPrefix + hex.EncodeToString(sum[:16])
}
