package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/brift-backend/internal/logger"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL applies when no TTL is configured
	DefaultCacheTTL = 5 * time.Minute
)

// CacheService stores JSON values in Redis. A nil *CacheService or nil client is a cache
// that always misses.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewCacheService(client *redis.Client, ttl time.Duration, log *logger.Logger) *CacheService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CacheService{client: client, ttl: ttl, log: log.WithComponent(logger.ComponentCache)}
}

func (c *CacheService) enabled() bool {
	return c != nil && c.client != nil
}

// Get retrieves a value from cache
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	val, err := c.client.Get(ctx, CacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value with the service TTL
func (c *CacheService) Set(ctx context.Context, key string, value any) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKeyPrefix+key, data, c.ttl).Err()
}

// DeletePattern removes every key under prefix+pattern.
func (c *CacheService) DeletePattern(ctx context.Context, pattern string) error {
	if !c.enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, CacheKeyPrefix+pattern, 100).Iterator()
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
	return c.client.Del(ctx, keys...).Err()
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, parts ...string) string {
	key := resource
	for _, p := range parts {
		key = fmt.Sprintf("%s:%s", key, p)
	}
	return key
}

// SpendingGeneration reads the user's spending generation; a missing counter is 0.
func (c *CacheService) SpendingGeneration(ctx context.Context, userID string) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}
	gen, err := c.client.Get(ctx, CacheKeyPrefix+CacheKey("spending_gen", userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.log.WarnContext(ctx, "spending generation read failed", logger.FieldUserID, userID, logger.FieldError, err)
		return 0, false
	}
	return gen, true
}

func spendingKey(userID string, gen int64, tz, date string) string {
	return CacheKey("spending", userID, strconv.FormatInt(gen, 10), tz, date)
}

func (c *CacheService) GetSpending(ctx context.Context, userID string, gen int64, tz, date string) (*SpendingSummary, bool) {
	var s SpendingSummary
	ok, err := c.Get(ctx, spendingKey(userID, gen, tz, date), &s)
	if err != nil {
		c.log.WarnContext(ctx, "spending cache read failed", logger.FieldUserID, userID, logger.FieldError, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &s, true
}

func (c *CacheService) SetSpending(ctx context.Context, userID string, gen int64, tz, date string, s *SpendingSummary) {
	if err := c.Set(ctx, spendingKey(userID, gen, tz, date), s); err != nil {
		c.log.WarnContext(ctx, "spending cache write failed", logger.FieldUserID, userID, logger.FieldError, err)
	}
}

// InvalidateSpending bumps the user's generation, then drops the entries already written.
func (c *CacheService) InvalidateSpending(ctx context.Context, userID string) {
	if !c.enabled() {
		return
	}
	if err := c.client.Incr(ctx, CacheKeyPrefix+CacheKey("spending_gen", userID)).Err(); err != nil {
		c.log.WarnContext(ctx, "spending generation bump failed", logger.FieldUserID, userID, logger.FieldError, err)
	}
	if err := c.DeletePattern(ctx, CacheKey("spending", userID, "*")); err != nil {
		c.log.WarnContext(ctx, "spending cache invalidation failed", logger.FieldUserID, userID, logger.FieldError, err)
	}
}
