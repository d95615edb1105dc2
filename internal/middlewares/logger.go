package middlewares

import (
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger 访问日志，5xx 记为 Error，4xx 记为 Warn
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()),
			zap.Int("size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("RequestLogger: 请求处理失败", fields...)
		case status >= 400:
			logger.Warn("RequestLogger: 客户端请求错误", fields...)
		default:
			logger.Info("RequestLogger: 请求完成", fields...)
		}
	}
}
