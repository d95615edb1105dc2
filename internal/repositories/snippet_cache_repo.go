package repositories

import (
	"context"
	"errors"

	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/cache"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cachedSnippetRepository 在数据库仓库外包一层 Redis 元数据缓存
// 只缓存单条查询；列表和检索直接走数据库
type cachedSnippetRepository struct {
	next  SnippetRepository
	cache cache.Cache
}

var _ SnippetRepository = (*cachedSnippetRepository)(nil)

func NewCachedSnippetRepository(next SnippetRepository, c cache.Cache) SnippetRepository {
	return &cachedSnippetRepository{next: next, cache: c}
}

func (r *cachedSnippetRepository) Create(ctx context.Context, snippet *models.Snippet) error {
	if err := r.next.Create(ctx, snippet); err != nil {
		return err
	}
	// 可能存在同 ID 的穿透标记
	if err := r.cache.Del(ctx, cache.GenerateSnippetMissKey(snippet.ID)); err != nil {
		logger.Warn("Create: 清理录音缓存失败", zap.Uint64("snippetID", snippet.ID), zap.Error(err))
	}
	return nil
}

func (r *cachedSnippetRepository) FindByID(ctx context.Context, id uint64) (*models.Snippet, error) {
	key := cache.GenerateSnippetKey(id)

	var snippet models.Snippet
	err := r.cache.Get(ctx, key, &snippet)
	if err == nil {
		return &snippet, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("FindByID: 读取录音缓存失败，回源数据库", zap.Uint64("snippetID", id), zap.Error(err))
	}

	if missing, _ := r.cache.IsMissing(ctx, cache.GenerateSnippetMissKey(id)); missing {
		return nil, nil
	}

	found, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		if err := r.cache.MarkMissing(ctx, cache.GenerateSnippetMissKey(id), cache.NotFoundTTL); err != nil {
			logger.Warn("FindByID: 写入穿透标记失败", zap.Uint64("snippetID", id), zap.Error(err))
		}
		return nil, nil
	}

	if err := r.cache.Set(ctx, key, found, cache.Jitter(cache.SnippetTTL)); err != nil {
		logger.Warn("FindByID: 写入录音缓存失败", zap.Uint64("snippetID", id), zap.Error(err))
	}
	return found, nil
}

func (r *cachedSnippetRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Snippet, error) {
	return r.next.FindByIDs(ctx, ids)
}

func (r *cachedSnippetRepository) FindAllByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]models.Snippet, int64, error) {
	return r.next.FindAllByOwner(ctx, ownerID, page, pageSize)
}

func (r *cachedSnippetRepository) SearchByOwner(ctx context.Context, ownerID uint64, query string, page, pageSize int) ([]models.Snippet, int64, error) {
	return r.next.SearchByOwner(ctx, ownerID, query, page, pageSize)
}

func (r *cachedSnippetRepository) Update(ctx context.Context, id uint64, update SnippetUpdate) error {
	if err := r.next.Update(ctx, id, update); err != nil {
		return err
	}
	r.Invalidate(ctx, id)
	return nil
}

func (r *cachedSnippetRepository) Delete(tx *gorm.DB, id uint64) error {
	return r.next.Delete(tx, id)
}

func (r *cachedSnippetRepository) Invalidate(ctx context.Context, id uint64) {
	if err := r.cache.Del(ctx, cache.GenerateSnippetKey(id)); err != nil {
		logger.Error("Invalidate: 删除录音缓存失败", zap.Uint64("snippetID", id), zap.Error(err))
	}
}
