package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"
)

type AliyunOSSStorageService struct {
	client *oss.Client
	bucket string
}

var _ StorageService = (*AliyunOSSStorageService)(nil)

// NewAliyunOSSStorageService 创建并返回一个 AliyunOSSStorageService 实例
func NewAliyunOSSStorageService(cfg *config.AliyunOSSConfig) (*AliyunOSSStorageService, error) {
	// OSS Endpoint 应该包含 http:// 或 https:// 前缀
	ossClient, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化阿里云OSS客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化阿里云OSS客户端: %w", err)
	}
	logger.Info("阿里云OSS客户端初始化成功", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.BucketName))
	return &AliyunOSSStorageService{
		client: ossClient,
		bucket: cfg.BucketName,
	}, nil
}

func (s *AliyunOSSStorageService) BucketName() string {
	return s.bucket
}

func (s *AliyunOSSStorageService) PutObject(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string, metadata map[string]string) (PutObjectResult, error) {
	bucket, err := s.client.Bucket(s.bucket)
	if err != nil {
		return PutObjectResult{}, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}

	options := []oss.Option{
		oss.ContentType(contentType),
		oss.WithContext(ctx),
	}
	for k, v := range metadata {
		options = append(options, oss.Meta(k, v))
	}

	var respHeader http.Header
	options = append(options, oss.GetResponseHeader(&respHeader))
	if err := bucket.PutObject(objectName, reader, options...); err != nil {
		return PutObjectResult{}, fmt.Errorf("阿里云OSS上传对象失败: %w", err)
	}

	return PutObjectResult{
		Bucket: s.bucket,
		Key:    objectName,
		Size:   objectSize, // PutObject 不返回对象大小
		ETag:   respHeader.Get(oss.HTTPHeaderEtag),
	}, nil
}

func (s *AliyunOSSStorageService) GetObject(ctx context.Context, objectName string) (GetObjectResult, error) {
	bucket, err := s.client.Bucket(s.bucket)
	if err != nil {
		return GetObjectResult{}, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}

	props, err := bucket.GetObjectDetailedMeta(objectName, oss.WithContext(ctx))
	if err != nil {
		return GetObjectResult{}, fmt.Errorf("获取OSS对象元数据失败: %w", err)
	}

	reader, err := bucket.GetObject(objectName, oss.WithContext(ctx))
	if err != nil {
		return GetObjectResult{}, fmt.Errorf("阿里云OSS获取对象失败: %w", err)
	}

	size, _ := strconv.ParseInt(props.Get(oss.HTTPHeaderContentLength), 10, 64)
	lastModified, _ := http.ParseTime(props.Get(oss.HTTPHeaderLastModified))
	return GetObjectResult{
		Reader:       reader,
		Size:         size,
		MimeType:     props.Get(oss.HTTPHeaderContentType),
		LastModified: lastModified,
	}, nil
}

func (s *AliyunOSSStorageService) RemoveObject(ctx context.Context, objectName string) error {
	bucket, err := s.client.Bucket(s.bucket)
	if err != nil {
		return fmt.Errorf("获取OSS存储桶失败: %w", err)
	}
	if err := bucket.DeleteObject(objectName, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("阿里云OSS删除对象失败: %w", err)
	}
	return nil
}

func (s *AliyunOSSStorageService) IsBucketExist(ctx context.Context) (bool, error) {
	found, err := s.client.IsBucketExist(s.bucket)
	if err != nil {
		return false, fmt.Errorf("检查阿里云OSS存储桶存在性失败: %w", err)
	}
	return found, nil
}

func (s *AliyunOSSStorageService) MakeBucket(ctx context.Context) error {
	// 录音是私有数据，桶统一使用私有 ACL
	err := s.client.CreateBucket(s.bucket, oss.ACL(oss.ACLPrivate))
	if err != nil {
		var ossErr oss.ServiceError
		if errors.As(err, &ossErr) && (ossErr.Code == "BucketAlreadyExists" || ossErr.Code == "BucketAlreadyOwnedByYou") {
			logger.Info("阿里云OSS存储桶已存在，无需创建", zap.String("bucket", s.bucket))
			return nil
		}
		return fmt.Errorf("创建阿里云OSS存储桶失败: %w", err)
	}
	logger.Info("阿里云OSS存储桶创建成功", zap.String("bucket", s.bucket))
	return nil
}
