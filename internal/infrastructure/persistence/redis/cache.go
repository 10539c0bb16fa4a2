package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var cacheTracer = otel.Tracer("redis.cache")

// TranslationCache 译文的 Redis 二级缓存，键为 {prefix}:{cacheKey}
type TranslationCache struct {
	client *Client
	prefix string
	ttl    time.Duration
}

// NewTranslationCache 创建译文缓存
func NewTranslationCache(client *Client, prefix string, ttl time.Duration) *TranslationCache {
	if prefix == "" {
		prefix = "translation"
	}
	return &TranslationCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *TranslationCache) key(k string) string {
	return c.prefix + ":" + k
}

// Get 获取译文，未命中时 ok 为 false
func (c *TranslationCache) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.Int("cache.key_len", len(key))))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, c.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return "", false, nil
		}
		span.RecordError(err)
		return "", false, fmt.Errorf("failed to get translation: %w", err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return val, true, nil
}

// Set 写入译文
func (c *TranslationCache) Set(ctx context.Context, key, value string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Set",
		trace.WithAttributes(attribute.Int64("cache.ttl_ms", c.ttl.Milliseconds())))
	defer span.End()

	if err := c.client.rdb.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set translation: %w", err)
	}
	return nil
}

// Clear 删除前缀下的全部译文
func (c *TranslationCache) Clear(ctx context.Context) (int, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.Clear",
		trace.WithAttributes(attribute.String("cache.prefix", c.prefix)))
	defer span.End()

	iter := c.client.rdb.Scan(ctx, 0, c.prefix+":*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to scan translations: %w", err)
	}

	if len(keys) == 0 {
		return 0, nil
	}
	span.SetAttributes(attribute.Int("cache.invalidated_count", len(keys)))
	if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to delete translations: %w", err)
	}
	return len(keys), nil
}
