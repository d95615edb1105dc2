package middlewares

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RateLimiter 按客户端 IP 的固定窗口限流，Redis 不可用时放行
func RateLimiter(client *redis.Client, cfg config.RateLimitConfig, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s:%s", scope, c.ClientIP())

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.Warn("RateLimiter: Redis 不可用，跳过限流", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		// 窗口内第一个请求，或上次设置过期时间失败
		reset := ttl.Val()
		if reset < 0 {
			if err := client.Expire(ctx, key, cfg.Window).Err(); err != nil {
				logger.Warn("RateLimiter: 设置限流窗口失败", zap.String("key", key), zap.Error(err))
			}
			reset = cfg.Window
		}

		count := int(incr.Val())
		remaining := cfg.Requests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		if count > cfg.Requests {
			c.Header("Retry-After", strconv.Itoa(int(reset.Seconds())))
			xerr.AbortWithError(c, http.StatusTooManyRequests, xerr.TooManyRequestsCode, "Too many requests")
			return
		}
		c.Next()
	}
}
