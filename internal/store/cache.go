package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"multivector-rag/internal/logger"

	"github.com/redis/go-redis/v9"
)

// SummaryKey derives the cache key for an element's content. Identical
// content always maps to the same key, so reloading a document reuses prior
// summaries instead of recomputing them.
func SummaryKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "summary:" + hex.EncodeToString(sum[:])
}

// RedisSummaryCache persists element summaries keyed by content hash. It is
// the idempotence guard for repeated loads: a hit skips the LLM call.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func (c *RedisSummaryCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		// Cache errors degrade to a miss, never fail the load
		logger.Warn("summary cache read failed", "error", err)
		return "", false
	}
	return val, true
}

func (c *RedisSummaryCache) Set(ctx context.Context, key, summary string) {
	if err := c.client.Set(ctx, key, summary, c.ttl).Err(); err != nil {
		logger.Warn("summary cache write failed", "error", err)
	}
}

// NoopSummaryCache disables summary reuse; every load recomputes.
type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(ctx context.Context, key string) (string, bool) { return "", false }

func (NoopSummaryCache) Set(ctx context.Context, key, summary string) {}
