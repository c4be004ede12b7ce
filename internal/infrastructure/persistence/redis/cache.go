package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "copysmith-ai-api/pkg/errors"
)

const resultKeyPrefix = "copysmith:generation:result:"

// ResultCache 生成结果缓存，按记录 ID 存储完整的生成记录
type ResultCache struct {
	client *Client
	ttl    time.Duration
}

// NewResultCache 创建结果缓存
func NewResultCache(client *Client) *ResultCache {
	ttl := client.config.ResultTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResultCache{
		client: client,
		ttl:    ttl,
	}
}

// Set 写入缓存，value 会被序列化为 JSON
func (c *ResultCache) Set(ctx context.Context, recordID string, value any) error {
	ctx, span := tracer.Start(ctx, "cache.Set")
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to marshal cache value")
	}

	key := resultKeyPrefix + recordID
	if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to set cache")
	}
	return nil
}

// Get 读取缓存并反序列化到 dest，未命中返回 (false, nil)
func (c *ResultCache) Get(ctx context.Context, recordID string, dest any) (bool, error) {
	ctx, span := tracer.Start(ctx, "cache.Get")
	defer span.End()

	key := resultKeyPrefix + recordID
	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to get cache")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeCacheError, fmt.Sprintf("failed to unmarshal cache value for key %s", key))
	}
	return true, nil
}

// Delete 删除缓存
func (c *ResultCache) Delete(ctx context.Context, recordID string) error {
	ctx, span := tracer.Start(ctx, "cache.Delete")
	defer span.End()

	if err := c.client.rdb.Del(ctx, resultKeyPrefix+recordID).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to delete cache")
	}
	return nil
}
