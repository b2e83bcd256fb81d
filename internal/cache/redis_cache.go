package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"one-os/internal/logger"
	"one-os/internal/realtime"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
)

// Key prefixes for derived dashboard data.
const (
	KeyClient    = "clients:detail:"
	KeyScorecard = "eos:scorecard:"
)

// CacheManager is a two-level cache: an in-process go-cache in front of Redis.
// Without Redis it runs on the local level alone.
type CacheManager struct {
	redisClient *redis.Client
	localCache  *cache.Cache
	localTTL    time.Duration
	log         *logger.Logger
}

// NewCacheManager connects to redisURL (a redis:// URL or host:port). An empty
// URL or a failed ping leaves the manager in local-only mode.
func NewCacheManager(ctx context.Context, redisURL string, log *logger.Logger) *CacheManager {
	cm := &CacheManager{
		localCache: cache.New(5*time.Minute, 10*time.Minute),
		localTTL:   5 * time.Minute,
		log:        log.With("service", "CacheManager"),
	}
	if redisURL == "" {
		cm.log.Info("redis not configured, using local cache only")
		return cm
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		cm.log.Warn("redis connection failed, using local cache only", "error", err)
		_ = client.Close()
		return cm
	}

	cm.redisClient = client
	cm.log.Info("redis connection established")
	return cm
}

// Redis returns the shared client, or nil in local-only mode.
func (cm *CacheManager) Redis() *redis.Client {
	return cm.redisClient
}

func (cm *CacheManager) IsAvailable() bool {
	return cm.redisClient != nil
}

func (cm *CacheManager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	cm.localCache.Set(key, data, minTTL(ttl, cm.localTTL))

	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cm.redisClient.Set(ctx, key, data, ttl).Err()
	}
	return nil
}

// Get decodes the cached value for key into target and reports whether it was found.
func (cm *CacheManager) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	if val, found := cm.localCache.Get(key); found {
		data, ok := val.([]byte)
		if !ok {
			return false, nil
		}
		return true, json.Unmarshal(data, target)
	}

	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		data, err := cm.redisClient.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return false, nil
		} else if err != nil {
			return false, err
		}

		cm.localCache.Set(key, data, cm.localTTL)
		return true, json.Unmarshal(data, target)
	}

	return false, nil
}

func (cm *CacheManager) Delete(ctx context.Context, key string) error {
	cm.localCache.Delete(key)

	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cm.redisClient.Del(ctx, key).Err()
	}
	return nil
}

// DeletePrefix drops every key starting with prefix from both levels.
func (cm *CacheManager) DeletePrefix(ctx context.Context, prefix string) error {
	for key := range cm.localCache.Items() {
		if strings.HasPrefix(key, prefix) {
			cm.localCache.Delete(key)
		}
	}

	if cm.redisClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	iter := cm.redisClient.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return cm.redisClient.Del(ctx, keys...).Err()
}

// Increment adds value to the counter at key. A new counter expires after ttl.
func (cm *CacheManager) Increment(ctx context.Context, key string, value int64, ttl time.Duration) (int64, error) {
	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		count, err := cm.redisClient.IncrBy(ctx, key, value).Result()
		if err != nil {
			return 0, err
		}
		if count == value {
			cm.redisClient.Expire(ctx, key, ttl)
		}
		return count, nil
	}

	// Add is a no-op error when the counter exists, which is what we want.
	_ = cm.localCache.Add(key, int64(0), ttl)
	return cm.localCache.IncrementInt64(key, value)
}

// InvalidateOn drops derived dashboard keys whenever the bus reports a change
// to the data behind them.
func (cm *CacheManager) InvalidateOn(bus realtime.Bus) func() {
	return bus.Subscribe(realtime.EntityAll, func(ev realtime.ChangeEvent) {
		ctx := context.Background()
		for _, prefix := range prefixesFor(ev) {
			if err := cm.DeletePrefix(ctx, prefix); err != nil {
				cm.log.Warn("cache invalidation failed", "prefix", prefix, "error", err)
			}
		}
	})
}

func prefixesFor(ev realtime.ChangeEvent) []string {
	switch ev.Entity {
	case realtime.EntityClient:
		return []string{KeyClient + ev.ID}
	case realtime.EntityGrowthMetrics:
		return []string{KeyClient + ev.ClientID}
	case realtime.EntityKPI, realtime.EntityKPIValue:
		return []string{KeyScorecard}
	default:
		return nil
	}
}

func (cm *CacheManager) Close() error {
	if cm.redisClient != nil {
		return cm.redisClient.Close()
	}
	return nil
}

func minTTL(a, b time.Duration) time.Duration {
	if a > 0 && a < b {
		return a
	}
	return b
}
