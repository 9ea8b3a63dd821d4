// Package cache provides a Redis-backed cache for analysis results so a
// re-uploaded document does not spend provider quota twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lexrelay/api/internal/analysis"
)

// AnalysisCache stores analysis results keyed by a hash of document text.
type AnalysisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis and returns a cache. The caller treats a nil cache
// as disabled.
func New(redisURL string, ttl time.Duration) (*AnalysisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &AnalysisCache{
		client: client,
		prefix: "analysis:",
		ttl:    ttl,
	}, nil
}

// Key derives the cache key from document text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for text, or ok=false on a miss. Only
// succeeded analyses are ever stored, so a hit is always a clean result.
func (c *AnalysisCache) Get(ctx context.Context, text string) (analysis.Result, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+Key(text)).Result()
	if err == redis.Nil {
		return analysis.Result{}, false, nil
	}
	if err != nil {
		return analysis.Result{}, false, fmt.Errorf("cache get: %w", err)
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return analysis.Result{}, false, fmt.Errorf("decode cached analysis: %w", err)
	}
	return result, true, nil
}

// Put stores a succeeded result. Degraded fallbacks are refused so a
// transient provider outage does not pin a useless record for the TTL.
func (c *AnalysisCache) Put(ctx context.Context, text string, result analysis.Result) error {
	if !result.Succeeded {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+Key(text), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *AnalysisCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *AnalysisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
