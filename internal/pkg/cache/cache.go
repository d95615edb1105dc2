package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// 录音元数据缓存时间，实际过期时间会加上随机抖动避免同时失效
const SnippetTTL = 10 * time.Minute

// 不存在的录音缓存一分钟，防止穿透
const NotFoundTTL = time.Minute

// Cache 录音元数据缓存，值以 JSON 保存
type Cache interface {
	// Set 写入 value，value 需要能被 JSON 序列化
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Get 读取到 target，key 不存在时返回 ErrCacheMiss
	Get(ctx context.Context, key string, target any) error
	Del(ctx context.Context, keys ...string) error

	// MarkMissing 记录 key 对应的数据在数据库中不存在，防止缓存穿透
	MarkMissing(ctx context.Context, key string, expiration time.Duration) error
	IsMissing(ctx context.Context, key string) (bool, error)
}

func GenerateSnippetKey(snippetID uint64) string {
	return fmt.Sprintf("snippet:metadata:%d", snippetID)
}

func GenerateSnippetMissKey(snippetID uint64) string {
	return fmt.Sprintf("snippet:missing:%d", snippetID)
}

// Jitter 在基础过期时间上加最多 5 分钟的随机抖动
func Jitter(base time.Duration) time.Duration {
	return base + time.Duration(rand.Intn(300))*time.Second
}
