package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/handlers"
	"github.com/3Eeeecho/securevoice/internal/pkg/cache"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/repositories"
	"github.com/3Eeeecho/securevoice/internal/router"
	"github.com/3Eeeecho/securevoice/internal/services/admin"
	"github.com/3Eeeecho/securevoice/internal/services/share"
	"github.com/3Eeeecho/securevoice/internal/services/snippet"
	"github.com/3Eeeecho/securevoice/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	mysqlDB, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}

	// 初始化 Redis 连接
	redisClient, err := setup.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		setup.CloseMySQL(mysqlDB)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	closeAll := func() {
		setup.CloseRedis(redisClient)
		setup.CloseMySQL(mysqlDB)
	}

	ss, err := setup.InitStorage(cfg)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 初始化Elasticsearch，未启用时为 nil
	index, err := setup.InitSnippetIndex(&cfg.Elasticsearch)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize Elasticsearch: %w", err)
	}

	//  初始化 Repositories
	redisCache := cache.NewRedisCache(redisClient)
	userRepo := repositories.NewUserRepository(mysqlDB)
	snippetRepo := repositories.NewCachedSnippetRepository(repositories.NewSnippetRepository(mysqlDB), redisCache)
	shareRepo := repositories.NewShareRepository(mysqlDB)
	orphanRepo := repositories.NewOrphanBlobRepository(mysqlDB)
	tm := repositories.NewTransactionManager(mysqlDB)

	//  初始化 Services
	authService := admin.NewAuthService(userRepo, cfg)
	userService := admin.NewUserService(userRepo)
	snippetService := snippet.NewSnippetService(snippetRepo, shareRepo, orphanRepo, tm, ss, index, cfg)
	shareService := share.NewShareService(shareRepo, snippetRepo, ss, cfg)

	// 初始化 Gin 引擎和注册路由
	engine := router.InitRouter(&router.RouterConfig{
		AuthService:    authService,
		UserHandler:    handlers.NewUserHandler(userService),
		ShareHandler:   handlers.NewShareHandler(shareService, cfg),
		SnippetHandler: handlers.NewSnippetHandler(snippetService, cfg),
		HealthHandler:  handlers.NewHealthHandler(mysqlDB, redisClient),
		RedisClient:    redisClient,
		Cfg:            cfg,
	})

	// 只压缩 JSON 响应，音频流原样返回以保留 Range 语义
	gzipWrapper, err := gzhttp.NewWrapper(gzhttp.ContentTypes([]string{"application/json"}))
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to create gzip wrapper: %w", err)
	}

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           gzipWrapper(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		router:      engine,
		httpServer:  httpServer,
		db:          mysqlDB,
		redisClient: redisClient,
	}, nil
}

// Run 启动服务器并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// 确保在应用关闭时，所有连接都被释放
	defer setup.CloseMySQL(s.db)
	defer setup.CloseRedis(s.redisClient)

	// 启动 HTTP 服务器
	go func() {
		logger.Info("Server is running", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	select {
	case <-stopChan:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("Server exited gracefully")
}
