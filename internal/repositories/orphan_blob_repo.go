package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/securevoice/internal/models"
	"gorm.io/gorm"
)

// OrphanBlobRepository 记录删除失败的对象，供 janitor 重试
type OrphanBlobRepository interface {
	Record(ctx context.Context, orphan *models.OrphanBlob) error
	ListUnresolved(ctx context.Context, limit int) ([]models.OrphanBlob, error)
	MarkResolved(ctx context.Context, id uint64, at time.Time) error
	RecordAttempt(ctx context.Context, id uint64, reason string) error
}

type orphanBlobRepository struct {
	db *gorm.DB
}

var _ OrphanBlobRepository = (*orphanBlobRepository)(nil)

func NewOrphanBlobRepository(db *gorm.DB) OrphanBlobRepository {
	return &orphanBlobRepository{db: db}
}

func (r *orphanBlobRepository) Record(ctx context.Context, orphan *models.OrphanBlob) error {
	if err := r.db.WithContext(ctx).Create(orphan).Error; err != nil {
		return fmt.Errorf("记录孤儿对象失败: %w", err)
	}
	return nil
}

func (r *orphanBlobRepository) ListUnresolved(ctx context.Context, limit int) ([]models.OrphanBlob, error) {
	var orphans []models.OrphanBlob
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("id asc").
		Limit(limit).
		Find(&orphans).Error
	if err != nil {
		return nil, fmt.Errorf("查询孤儿对象失败: %w", err)
	}
	return orphans, nil
}

func (r *orphanBlobRepository) MarkResolved(ctx context.Context, id uint64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.OrphanBlob{}).Where("id = ?", id).
		Updates(map[string]any{
			"resolved_at": at,
			"attempts":    gorm.Expr("attempts + ?", 1),
		}).Error
	if err != nil {
		return fmt.Errorf("标记孤儿对象已清理失败: %w", err)
	}
	return nil
}

func (r *orphanBlobRepository) RecordAttempt(ctx context.Context, id uint64, reason string) error {
	err := r.db.WithContext(ctx).Model(&models.OrphanBlob{}).Where("id = ?", id).
		Updates(map[string]any{
			"reason":   reason,
			"attempts": gorm.Expr("attempts + ?", 1),
		}).Error
	if err != nil {
		return fmt.Errorf("更新孤儿对象失败: %w", err)
	}
	return nil
}
