package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("缓存未命中")

// 穿透标记只关心是否存在，值固定
const missingMarker = "1"

// RedisCache 基于 go-redis 的 Cache 实现
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化缓存值失败: %w", err)
	}
	if err := r.client.Set(ctx, key, data, expiration).Err(); err != nil {
		logger.Error("RedisCache.Set: 写入缓存失败", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("写入 Redis 失败: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, target any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return fmt.Errorf("从 Redis 读取失败: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		// 结构变更后旧值无法解析，删掉按未命中处理
		logger.Warn("RedisCache.Get: 缓存值无法解析，已丢弃", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return ErrCacheMiss
	}
	return nil
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("从 Redis 删除键失败: %w", err)
	}
	return nil
}

func (r *RedisCache) MarkMissing(ctx context.Context, key string, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, missingMarker, expiration).Err(); err != nil {
		return fmt.Errorf("写入穿透标记失败: %w", err)
	}
	return nil
}

func (r *RedisCache) IsMissing(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("读取穿透标记失败: %w", err)
	}
	return n > 0, nil
}
