// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResponseCache implements [ResponseCache] using Redis.
type RedisResponseCache struct {
	client *redis.Client
}

// NewRedisResponseCache creates a new Redis-backed [ResponseCache].
func NewRedisResponseCache(client *redis.Client) *RedisResponseCache {
	return &RedisResponseCache{client: client}
}

/*
Get retrieves a cached response body.

Returns:
  - []byte: The cached body
  - bool: false on a miss or expiry
  - error: Connectivity errors
*/
func (cache *RedisResponseCache) Get(context context.Context, key string) ([]byte, bool, error) {
	body, err := cache.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis_response_get_failed: %w", err)
	}

	return body, true, nil
}

/*
Set stores a response body with a TTL.

Returns:
  - error: Storage failures
*/
func (cache *RedisResponseCache) Set(context context.Context, key string, body []byte, ttl time.Duration) error {
	if err := cache.client.Set(context, key, body, ttl).Err(); err != nil {
		return fmt.Errorf("redis_response_set_failed: %w", err)
	}

	return nil
}
