// Package storagetest 提供测试用的内存对象存储
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/storage"
)

var ErrObjectNotFound = errors.New("object not found")

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStorage 并发安全；RemoveErr / PutErr 非空时对应操作直接返回该错误
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string]object
	bucket  bool

	PutErr    error
	RemoveErr error
}

var _ storage.StorageService = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]object)}
}

func (m *MemoryStorage) PutObject(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string, metadata map[string]string) (storage.PutObjectResult, error) {
	if m.PutErr != nil {
		return storage.PutObjectResult{}, m.PutErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.PutObjectResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = object{data: data, contentType: contentType, modified: time.Now()}
	return storage.PutObjectResult{Bucket: m.BucketName(), Key: objectName, Size: int64(len(data))}, nil
}

func (m *MemoryStorage) GetObject(ctx context.Context, objectName string) (storage.GetObjectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objectName]
	if !ok {
		return storage.GetObjectResult{}, ErrObjectNotFound
	}
	return storage.GetObjectResult{
		Reader:       readSeekNopCloser{bytes.NewReader(obj.data)},
		Size:         int64(len(obj.data)),
		MimeType:     obj.contentType,
		LastModified: obj.modified,
	}, nil
}

func (m *MemoryStorage) RemoveObject(ctx context.Context, objectName string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectName)
	return nil
}

func (m *MemoryStorage) IsBucketExist(ctx context.Context) (bool, error) {
	return m.bucket, nil
}

func (m *MemoryStorage) MakeBucket(ctx context.Context) error {
	m.bucket = true
	return nil
}

func (m *MemoryStorage) BucketName() string { return "memory" }

// Has 对象是否存在
func (m *MemoryStorage) Has(objectName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectName]
	return ok
}

// Len 当前对象数量
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }
