package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/3Eeeecho/securevoice/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.Logger
	once sync.Once
)

// InitLogger 初始化 Zap 日志库
// OutputPath: 日志文件路径，例如 "logs/app.log"
// ErrorPath: zap 内部错误输出路径，例如 "logs/error.log"
// Level: 日志级别 (debug, info, warn, error, dpanic, panic, fatal)
func InitLogger(cfg config.LogConfig) {
	once.Do(func() {
		log = build(cfg)
		zap.ReplaceGlobals(log)
	})
}

func build(cfg config.LogConfig) *zap.Logger {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(cfg.Level)); err != nil {
		l = zap.InfoLevel // 默认 INFO 级别
		fmt.Fprintf(os.Stderr, "Failed to parse log level '%s', defaulting to info: %v\n", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(l)
	zcfg.OutputPaths = outputs(cfg.OutputPath, "stdout")
	zcfg.ErrorOutputPaths = outputs(cfg.ErrorPath, "stderr")
	zcfg.Encoding = "json"
	zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build zap logger: %v", err))
	}
	return logger
}

// 去掉空路径和重复的标准输出
func outputs(path, std string) []string {
	if path == "" || path == std {
		return []string{std}
	}
	return []string{path, std}
}

// 返回全局logger
func GetLogger() *zap.Logger {
	if log == nil {
		// 在 InitLogger 之前被调用时，退化为只输出到标准输出的 logger
		InitLogger(config.LogConfig{Level: "info"})
	}
	return log
}

// Sugar 返回 Zap 的 SugaredLogger
func Sugar() *zap.SugaredLogger {
	return GetLogger().Sugar()
}

// 刷新缓冲区,确保程序退出前使用
func Sync() {
	if log != nil {
		if err := log.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync zap logger: %v\n", err)
		}
	}
}

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}
