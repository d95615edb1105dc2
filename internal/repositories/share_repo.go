package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/securevoice/internal/models"
	"gorm.io/gorm"
)

type ShareRepository interface {
	Create(ctx context.Context, link *models.ShareLink) error
	// FindByShareID 按公开 token 查找，不存在时返回 nil, nil
	FindByShareID(ctx context.Context, shareID string) (*models.ShareLink, error)
	FindByID(ctx context.Context, id uint64) (*models.ShareLink, error)
	FindAllByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.ShareLink, int64, error)
	// ConsumePlay 原子地校验可用性并把播放次数加一，返回是否成功
	ConsumePlay(ctx context.Context, id uint64, now time.Time) (bool, error)
	Deactivate(ctx context.Context, id uint64) error
	// DeleteBySnippetID 在事务中删除录音的全部分享链接
	DeleteBySnippetID(tx *gorm.DB, snippetID uint64) (int64, error)
}

type shareRepository struct {
	db *gorm.DB
}

var _ ShareRepository = (*shareRepository)(nil)

// NewShareRepository 创建新的shareRepository实例
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) Create(ctx context.Context, link *models.ShareLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("创建分享链接失败: %w", err)
	}
	return nil
}

func (r *shareRepository) FindByShareID(ctx context.Context, shareID string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).Where("share_id = ?", shareID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

func (r *shareRepository) FindByID(ctx context.Context, id uint64) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

// 查找特定用户创建的所有分享链接，预加载录音标题和时长
func (r *shareRepository) FindAllByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.ShareLink, int64, error) {
	var links []models.ShareLink
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ShareLink{}).Where("created_by = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计分享总数失败: %w", err)
	}

	err := query.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Preload("Snippet", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "duration")
		}).
		Find(&links).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询分享列表失败: %w", err)
	}
	return links, total, nil
}

// ConsumePlay 用一条条件 UPDATE 完成“检查 + 计数”，不会出现先读后写的竞争
func (r *shareRepository) ConsumePlay(ctx context.Context, id uint64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ShareLink{}).
		Where("id = ? AND is_active = ? AND expires_at > ? AND current_plays < max_plays", id, true, now).
		Updates(map[string]any{
			"current_plays": gorm.Expr("current_plays + ?", 1),
			"last_accessed": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("更新播放次数失败: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *shareRepository) Deactivate(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).
		Model(&models.ShareLink{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("撤销分享链接失败: %w", err)
	}
	return nil
}

func (r *shareRepository) DeleteBySnippetID(tx *gorm.DB, snippetID uint64) (int64, error) {
	res := tx.Where("snippet_id = ?", snippetID).Delete(&models.ShareLink{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除录音的分享链接失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}
