package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/3Eeeecho/securevoice/cmd/server"
	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title SecureVoice API
// @version 1.0
// @description 语音片段分享服务：上传录音，生成带有效期和播放次数限制的分享链接。
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// .env 只在本地开发时存在
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("读取 .env 失败", zap.Error(err))
	}

	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("加载配置出错", zap.Error(err))
	}

	//初始化日志系统
	if err = os.MkdirAll("logs", 0755); err != nil {
		logger.Fatal("初始化日志系统失败", zap.Error(err))
	}
	logger.InitLogger(cfg.Log)
	defer logger.Sync() // 确保在应用退出时刷新所有缓冲的日志条目

	logger.Info("启动语音分享服务...")

	// 创建并构建应用服务器实例
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("无法启动应用程序", zap.Error(err))
	}

	// 创建一个通道用于接收停止信号
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	srv.Run(context.Background(), stopChan)

	logger.Info("语音分享服务已退出。")
}
