package router

import (
	"net/http"

	_ "github.com/3Eeeecho/securevoice/docs"
	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/handlers"
	"github.com/3Eeeecho/securevoice/internal/middlewares"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/services/admin"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	AuthService    admin.AuthService
	UserHandler    *handlers.UserHandler
	ShareHandler   *handlers.ShareHandler
	SnippetHandler *handlers.SnippetHandler
	HealthHandler  *handlers.HealthHandler
	RedisClient    *redis.Client // 限流使用，为 nil 时不限流
	Cfg            *config.Config
}

func InitRouter(rc *RouterConfig) *gin.Engine {
	switch rc.Cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(rc.Cfg.Server.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(), middlewares.CORS(rc.Cfg.CORS))

	// Health Check 路由
	router.GET("/ping", rc.HealthHandler.Ping)
	router.GET("/health", rc.HealthHandler.Health)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authRequired := middlewares.AuthMiddleware(rc.Cfg)

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由
		authGroup := v1.Group("/auth")
		authGroup.Use(middlewares.RateLimiter(rc.RedisClient, rc.Cfg.RateLimit, "auth"))
		{
			authGroup.POST("/register", handlers.Register(rc.AuthService))
			authGroup.POST("/login", handlers.Login(rc.AuthService))
			authGroup.POST("/guest", handlers.LoginGuest(rc.AuthService))
		}
		v1.GET("/auth/me", authRequired, rc.UserHandler.GetUserProfile)

		// 分享链接：访问和取音频无需登录，按 IP 限流
		shareGroup := v1.Group("/share")
		{
			public := middlewares.RateLimiter(rc.RedisClient, rc.Cfg.RateLimit, "share")
			shareGroup.GET("/:id", public, rc.ShareHandler.AccessShare)
			shareGroup.GET("/:id/audio", public, rc.ShareHandler.StreamSharedAudio)

			shareGroup.GET("", authRequired, rc.ShareHandler.ListShares)
			shareGroup.POST("/:id", authRequired, rc.ShareHandler.CreateShare)
			shareGroup.DELETE("/:id", authRequired, rc.ShareHandler.RevokeShare)
			shareGroup.GET("/:id/qr", authRequired, rc.ShareHandler.ShareQRCode)
		}

		// 录音相关路由
		snippetGroup := v1.Group("/snippets")
		snippetGroup.Use(authRequired)
		{
			snippetGroup.POST("", rc.SnippetHandler.UploadSnippet)
			snippetGroup.GET("", rc.SnippetHandler.ListSnippets)
			snippetGroup.GET("/search", rc.SnippetHandler.SearchSnippets)
			snippetGroup.GET("/:id", rc.SnippetHandler.GetSnippet)
			snippetGroup.GET("/:id/audio", rc.SnippetHandler.StreamSnippetAudio)
			snippetGroup.PATCH("/:id", rc.SnippetHandler.UpdateSnippet)
			snippetGroup.DELETE("/:id", rc.SnippetHandler.DeleteSnippet)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, http.StatusNotFound, "Route not found")
	})

	return router
}
