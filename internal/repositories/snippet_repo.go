package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3Eeeecho/securevoice/internal/models"
	"gorm.io/gorm"
)

// SnippetUpdate 允许修改的录音字段，nil 表示不修改
type SnippetUpdate struct {
	Title         *string
	Description   *string
	Transcription *string
	IsPrivate     *bool
}

func (u SnippetUpdate) columns() map[string]any {
	cols := make(map[string]any)
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Transcription != nil {
		cols["transcription"] = *u.Transcription
	}
	if u.IsPrivate != nil {
		cols["is_private"] = *u.IsPrivate
	}
	return cols
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *models.Snippet) error
	// FindByID 不存在时返回 nil, nil
	FindByID(ctx context.Context, id uint64) (*models.Snippet, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Snippet, error)
	FindAllByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]models.Snippet, int64, error)
	// SearchByOwner 检索服务未启用时使用的 LIKE 查询
	SearchByOwner(ctx context.Context, ownerID uint64, query string, page, pageSize int) ([]models.Snippet, int64, error)
	Update(ctx context.Context, id uint64, update SnippetUpdate) error
	Delete(tx *gorm.DB, id uint64) error
	// Invalidate 丢弃缓存，事务提交后调用
	Invalidate(ctx context.Context, id uint64)
}

type snippetRepository struct {
	db *gorm.DB
}

var _ SnippetRepository = (*snippetRepository)(nil)

func NewSnippetRepository(db *gorm.DB) SnippetRepository {
	return &snippetRepository{db: db}
}

func (r *snippetRepository) Create(ctx context.Context, snippet *models.Snippet) error {
	if err := r.db.WithContext(ctx).Create(snippet).Error; err != nil {
		return fmt.Errorf("创建录音记录失败: %w", err)
	}
	return nil
}

func (r *snippetRepository) FindByID(ctx context.Context, id uint64) (*models.Snippet, error) {
	var snippet models.Snippet
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&snippet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询录音失败: %w", err)
	}
	return &snippet, nil
}

// FindByIDs 结果顺序与 ids 一致，已删除的录音被跳过
func (r *snippetRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Snippet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Snippet
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("批量查询录音失败: %w", err)
	}

	byID := make(map[uint64]models.Snippet, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	ordered := make([]models.Snippet, 0, len(found))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

func (r *snippetRepository) FindAllByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]models.Snippet, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Snippet{}).Where("owner_id = ?", ownerID)
	return r.paginate(query, page, pageSize)
}

func (r *snippetRepository) SearchByOwner(ctx context.Context, ownerID uint64, q string, page, pageSize int) ([]models.Snippet, int64, error) {
	like := "%" + escapeLike(q) + "%"
	query := r.db.WithContext(ctx).Model(&models.Snippet{}).
		Where("owner_id = ?", ownerID).
		Where("title LIKE ? OR description LIKE ? OR transcription LIKE ?", like, like, like)
	return r.paginate(query, page, pageSize)
}

func (r *snippetRepository) paginate(query *gorm.DB, page, pageSize int) ([]models.Snippet, int64, error) {
	var snippets []models.Snippet
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计录音总数失败: %w", err)
	}
	err := query.Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&snippets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询录音列表失败: %w", err)
	}
	return snippets, total, nil
}

func (r *snippetRepository) Update(ctx context.Context, id uint64, update SnippetUpdate) error {
	cols := update.columns()
	if len(cols) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.Snippet{}).Where("id = ?", id).Updates(cols).Error
	if err != nil {
		return fmt.Errorf("更新录音失败: %w", err)
	}
	return nil
}

func (r *snippetRepository) Delete(tx *gorm.DB, id uint64) error {
	if err := tx.Where("id = ?", id).Delete(&models.Snippet{}).Error; err != nil {
		return fmt.Errorf("删除录音记录失败: %w", err)
	}
	return nil
}

func (r *snippetRepository) Invalidate(ctx context.Context, id uint64) {}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
