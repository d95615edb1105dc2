// janitor 重试删除删除录音时残留在对象存储里的音频，适合由 cron 定时执行
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/repositories"
	"github.com/3Eeeecho/securevoice/internal/services/snippet"
	"github.com/3Eeeecho/securevoice/internal/setup"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，为空时按默认路径查找")
	limit := flag.Int("limit", 100, "单次最多处理的孤儿对象数量")
	timeout := flag.Duration("timeout", 5*time.Minute, "整体超时")
	flag.Parse()

	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		logger.Fatal("加载配置出错", zap.Error(err))
	}

	if err = os.MkdirAll("logs", 0755); err != nil {
		logger.Fatal("初始化日志系统失败", zap.Error(err))
	}
	logger.InitLogger(cfg.Log)
	defer logger.Sync()

	// janitor 不负责建表
	cfg.MySQL.AutoMigrate = false
	db, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal("janitor: 连接数据库失败", zap.Error(err))
	}
	defer setup.CloseMySQL(db)

	store, err := setup.InitStorage(cfg)
	if err != nil {
		logger.Fatal("janitor: 初始化存储失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := snippet.SweepOrphans(ctx, repositories.NewOrphanBlobRepository(db), store, *limit)
	if err != nil {
		logger.Error("janitor: 清理中断", zap.Error(err))
	}
	logger.Info("janitor: 清理完成",
		zap.Int("scanned", result.Scanned),
		zap.Int("resolved", result.Resolved),
		zap.Int("failed", result.Failed))

	if err != nil || result.Failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}
