package middlewares

import (
	"net/http"
	"strings"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从请求头获取 Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Authorization header is required")
			return
		}

		// Token 格式通常是 "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Invalid Authorization header format")
			return
		}

		// 2. 解析和验证 Token
		claims, err := utils.ParseToken(parts[1], cfg.JWT.SecretKey)
		if err != nil {
			logger.Debug("AuthMiddleware: token 校验失败", zap.String("path", c.FullPath()), zap.Error(err))
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, "Not authorized, token failed")
			return
		}

		// 3. 将用户信息存储到 Gin Context 中，以便后续 Handler 使用
		c.Set(utils.ContextUserIDKey, claims.UserID)
		c.Set(utils.ContextRoleKey, claims.Role)
		c.Set("email", claims.Email)

		c.Next()
	}
}
