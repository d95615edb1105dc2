package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// @Summary 存活检查
// @Tags 健康检查
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// @Summary 依赖检查
// @Description 检查 MySQL 和 Redis 的连通性
// @Tags 健康检查
// @Produce json
// @Success 200 {object} xerr.Response
// @Failure 503 {object} xerr.Response
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"mysql": "ok", "redis": "ok"}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status["mysql"] = "unavailable"
		healthy = false
	}
	if h.redis == nil {
		status["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		healthy = false
	}

	if !healthy {
		logger.Warn("Health: 依赖检查失败", zap.Any("status", status))
		xerr.JSONResponse(c, http.StatusServiceUnavailable, xerr.InternalServerErrorCode, "unhealthy", status)
		return
	}
	xerr.Success(c, http.StatusOK, "healthy", status)
}
