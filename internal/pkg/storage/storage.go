package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"go.uber.org/zap"
)

// StorageService 定义了录音二进制对象的存储操作，存储桶在构造时确定
type StorageService interface {
	// 上传对象，metadata 作为对象的用户元数据保存
	PutObject(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string, metadata map[string]string) (PutObjectResult, error)
	// 获取对象，返回的 Reader 需要调用方关闭
	GetObject(ctx context.Context, objectName string) (GetObjectResult, error)
	RemoveObject(ctx context.Context, objectName string) error
	// 检查存储桶是否存在
	IsBucketExist(ctx context.Context) (bool, error)
	// 创建存储桶
	MakeBucket(ctx context.Context) error
	BucketName() string
}

type PutObjectResult struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string // 对象哈希值
}

type GetObjectResult struct {
	// MinIO 返回的 Reader 同时实现了 io.Seeker，可以用来响应 Range 请求
	Reader       io.ReadCloser
	Size         int64
	MimeType     string
	LastModified time.Time
}

// NewStorageService 根据 storage.type 构造对应的实现
func NewStorageService(cfg *config.Config) (StorageService, error) {
	switch cfg.Storage.Type {
	case "minio":
		return NewMinIOStorageService(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSStorageService(&cfg.AliyunOSS)
	default:
		return nil, errors.New("invalid storageType")
	}
}

// EnsureBucket 存储桶不存在时创建
func EnsureBucket(ctx context.Context, s StorageService) error {
	exists, err := s.IsBucketExist(ctx)
	if err != nil {
		return fmt.Errorf("检查存储桶存在性失败: %w", err)
	}
	if exists {
		logger.Info("存储桶已存在", zap.String("bucketName", s.BucketName()))
		return nil
	}

	logger.Info("存储桶不存在，尝试创建...", zap.String("bucketName", s.BucketName()))
	if err := s.MakeBucket(ctx); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	return nil
}
