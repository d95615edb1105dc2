package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage"
	"go.uber.org/zap"
)

// InitStorage 按 storage.type 初始化对象存储并确保存储桶存在
func InitStorage(cfg *config.Config) (storage.StorageService, error) {
	svc, err := storage.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化存储服务失败 (type=%s): %w", cfg.Storage.Type, err)
	}
	logger.Info("存储服务已选择并初始化", zap.String("type", cfg.Storage.Type), zap.String("bucketName", svc.BucketName()))

	// 为外部调用使用带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}
