package snippet

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/audiocrypt"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/search"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage"
	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MinTitleLen       = 3
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

type SnippetService interface {
	Upload(ctx context.Context, userID uint64, in UploadInput) (*models.Snippet, error)
	List(ctx context.Context, userID uint64, page, pageSize int) ([]models.Snippet, int64, error)
	Get(ctx context.Context, userID, snippetID uint64) (*models.Snippet, error)
	OpenAudio(ctx context.Context, userID, snippetID uint64) (*AudioStream, error)
	Update(ctx context.Context, userID, snippetID uint64, in UpdateInput) (*models.Snippet, error)
	// Delete 删除录音及其全部分享链接，对象存储删除失败只记录不报错
	Delete(ctx context.Context, userID, snippetID uint64) error
	Search(ctx context.Context, userID uint64, query string, page, pageSize int) ([]models.Snippet, int64, error)
}

// UploadInput 上传录音的参数，Reader 由调用方负责关闭
type UploadInput struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	Size        int64

	Title         string
	Description   string
	Transcription *string
	Duration      int
	IsPrivate     *bool

	IsEncrypted         bool
	EncryptionAlgorithm string
	EncryptionIV        string
	EncryptionAuthTag   string
}

// UpdateInput nil 字段保持不变
type UpdateInput struct {
	Title         *string
	Description   *string
	Transcription *string
	IsPrivate     *bool
}

type AudioStream struct {
	Snippet *models.Snippet
	Object  storage.GetObjectResult
}

type snippetService struct {
	snippetRepo repositories.SnippetRepository
	shareRepo   repositories.ShareRepository
	orphanRepo  repositories.OrphanBlobRepository
	txManager   repositories.TransactionManager
	store       storage.StorageService
	index       search.SnippetIndex // 未启用检索时为 nil
	cfg         *config.Config
}

var _ SnippetService = (*snippetService)(nil)

// NewSnippetService 创建录音服务，index 可以为 nil
func NewSnippetService(
	snippetRepo repositories.SnippetRepository,
	shareRepo repositories.ShareRepository,
	orphanRepo repositories.OrphanBlobRepository,
	txManager repositories.TransactionManager,
	store storage.StorageService,
	index search.SnippetIndex,
	cfg *config.Config,
) SnippetService {
	return &snippetService{
		snippetRepo: snippetRepo,
		shareRepo:   shareRepo,
		orphanRepo:  orphanRepo,
		txManager:   txManager,
		store:       store,
		index:       index,
		cfg:         cfg,
	}
}

func validationError(code int, base error, format string, args ...any) error {
	return xerr.NewCodeError(code, fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...)))
}

func (s *snippetService) validateUpload(in *UploadInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if n := utf8.RuneCountInString(in.Title); n < MinTitleLen || n > MaxTitleLen {
		return validationError(xerr.ValidationFailedCode, xerr.ErrValidationFailed, "title must be between %d and %d characters", MinTitleLen, MaxTitleLen)
	}
	in.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLen {
		return validationError(xerr.ValidationFailedCode, xerr.ErrValidationFailed, "description must be at most %d characters", MaxDescriptionLen)
	}

	if in.Size <= 0 || in.Reader == nil {
		return validationError(xerr.ValidationFailedCode, xerr.ErrValidationFailed, "audio file is required")
	}
	if in.Size > s.cfg.Upload.MaxFileSize {
		return validationError(xerr.FileTooLargeCode, xerr.ErrFileTooLarge, "maximum size is %d bytes", s.cfg.Upload.MaxFileSize)
	}

	if in.Duration < 0 {
		return validationError(xerr.ValidationFailedCode, xerr.ErrValidationFailed, "duration must not be negative")
	}
	if in.Duration > s.cfg.Upload.MaxAudioDuration {
		return validationError(xerr.AudioTooLongCode, xerr.ErrAudioTooLong, "maximum duration is %d seconds", s.cfg.Upload.MaxAudioDuration)
	}

	mediaType, _, err := mime.ParseMediaType(in.ContentType)
	if err != nil {
		return validationError(xerr.UnsupportedMediaCode, xerr.ErrUnsupportedMedia, "invalid content type %q", in.ContentType)
	}
	// 加密后的音频以二进制流上传
	if !strings.HasPrefix(mediaType, "audio/") && !(in.IsEncrypted && mediaType == "application/octet-stream") {
		return validationError(xerr.UnsupportedMediaCode, xerr.ErrUnsupportedMedia, "content type %q", mediaType)
	}
	in.ContentType = mediaType

	if in.IsEncrypted {
		if err := audiocrypt.ValidateMetadata(in.EncryptionAlgorithm, in.EncryptionIV, in.EncryptionAuthTag); err != nil {
			return xerr.NewCodeError(xerr.InvalidEncryptionCode, fmt.Errorf("%w: %v", xerr.ErrInvalidEncryption, err))
		}
		in.EncryptionAlgorithm = audiocrypt.Algorithm
		in.EncryptionIV = strings.ToLower(in.EncryptionIV)
		in.EncryptionAuthTag = strings.ToLower(in.EncryptionAuthTag)
	} else {
		in.EncryptionAlgorithm, in.EncryptionIV, in.EncryptionAuthTag = "", "", ""
	}
	return nil
}

// objectName 形如 snippets/<userID>/<unix-ms>_<uuid>.<ext>
func objectName(userID uint64, fileName, contentType string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ".bin"
		}
	}
	return fmt.Sprintf("snippets/%d/%d_%s%s", userID, time.Now().UnixMilli(), uuid.NewString(), ext)
}

func (s *snippetService) Upload(ctx context.Context, userID uint64, in UploadInput) (*models.Snippet, error) {
	if err := s.validateUpload(&in); err != nil {
		return nil, err
	}

	// 1. 先写对象存储
	key := objectName(userID, in.FileName, in.ContentType)
	meta := map[string]string{
		"owner-id":  strconv.FormatUint(userID, 10),
		"encrypted": strconv.FormatBool(in.IsEncrypted),
	}
	put, err := s.store.PutObject(ctx, key, in.Reader, in.Size, in.ContentType, meta)
	if err != nil {
		logger.Error("Upload: 上传音频到对象存储失败", zap.Uint64("userID", userID), zap.String("objectName", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	isPrivate := true
	if in.IsPrivate != nil {
		isPrivate = *in.IsPrivate
	}
	snippet := &models.Snippet{
		OwnerID:             userID,
		BlobKey:             key,
		FileName:            filepath.Base(in.FileName),
		MimeType:            in.ContentType,
		Size:                put.Size,
		Duration:            in.Duration,
		Title:               in.Title,
		Description:         in.Description,
		Transcription:       in.Transcription,
		IsPrivate:           isPrivate,
		IsEncrypted:         in.IsEncrypted,
		EncryptionAlgorithm: in.EncryptionAlgorithm,
		EncryptionIV:        in.EncryptionIV,
		EncryptionAuthTag:   in.EncryptionAuthTag,
	}
	if snippet.Size <= 0 {
		snippet.Size = in.Size
	}

	// 2. 再写数据库，失败时回收刚上传的对象
	if err := s.snippetRepo.Create(ctx, snippet); err != nil {
		logger.Error("Upload: 创建录音记录失败，回收对象", zap.String("objectName", key), zap.Error(err))
		if rmErr := s.store.RemoveObject(ctx, key); rmErr != nil {
			logger.Error("Upload: 回收对象失败", zap.String("objectName", key), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
	}

	s.reindex(ctx, snippet)
	logger.Info("Upload: 录音上传成功",
		zap.Uint64("snippetID", snippet.ID),
		zap.Uint64("userID", userID),
		zap.Int64("size", snippet.Size),
		zap.Bool("encrypted", snippet.IsEncrypted))
	return snippet, nil
}

func (s *snippetService) List(ctx context.Context, userID uint64, page, pageSize int) ([]models.Snippet, int64, error) {
	page, pageSize = utils.NormalizePage(page, pageSize)
	return s.snippetRepo.FindAllByOwner(ctx, userID, page, pageSize)
}

// Get 私有录音只有所有者可见
func (s *snippetService) Get(ctx context.Context, userID, snippetID uint64) (*models.Snippet, error) {
	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if snippet == nil {
		return nil, xerr.ErrSnippetNotFound
	}
	if snippet.IsPrivate && snippet.OwnerID != userID {
		return nil, xerr.ErrPermissionDenied
	}
	return snippet, nil
}

func (s *snippetService) owned(ctx context.Context, userID, snippetID uint64) (*models.Snippet, error) {
	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if snippet == nil {
		return nil, xerr.ErrSnippetNotFound
	}
	if snippet.OwnerID != userID {
		logger.Warn("owned: 非所有者尝试修改录音", zap.Uint64("userID", userID), zap.Uint64("snippetID", snippetID))
		return nil, xerr.ErrPermissionDenied
	}
	return snippet, nil
}

func (s *snippetService) OpenAudio(ctx context.Context, userID, snippetID uint64) (*AudioStream, error) {
	snippet, err := s.Get(ctx, userID, snippetID)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.GetObject(ctx, snippet.BlobKey)
	if err != nil {
		logger.Error("OpenAudio: 读取音频对象失败", zap.Uint64("snippetID", snippetID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return &AudioStream{Snippet: snippet, Object: obj}, nil
}

func (s *snippetService) Update(ctx context.Context, userID, snippetID uint64, in UpdateInput) (*models.Snippet, error) {
	if _, err := s.owned(ctx, userID, snippetID); err != nil {
		return nil, err
	}

	update := repositories.SnippetUpdate{Transcription: in.Transcription, IsPrivate: in.IsPrivate}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if n := utf8.RuneCountInString(title); n < MinTitleLen || n > MaxTitleLen {
			return nil, validationError(xerr.ValidationFailedCode, xerr.ErrValidationFailed, "title must be between %d and %d characters", MinTitleLen, MaxTitleLen)
		}
		update.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(desc) > MaxDescriptionLen {
			return nil, validationError(xerr.ValidationFailedCode, xerr.ErrValidationFailed, "description must be at most %d characters", MaxDescriptionLen)
		}
		update.Description = &desc
	}

	if err := s.snippetRepo.Update(ctx, snippetID, update); err != nil {
		logger.Error("Update: 更新录音失败", zap.Uint64("snippetID", snippetID), zap.Error(err))
		return nil, err
	}
	s.snippetRepo.Invalidate(ctx, snippetID)

	updated, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, xerr.ErrSnippetNotFound
	}
	s.reindex(ctx, updated)
	return updated, nil
}

func (s *snippetService) Delete(ctx context.Context, userID, snippetID uint64) error {
	snippet, err := s.owned(ctx, userID, snippetID)
	if err != nil {
		return err
	}

	// 1. 分享链接和录音记录在同一个事务里删除
	var removedLinks int64
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		n, err := s.shareRepo.DeleteBySnippetID(tx, snippetID)
		if err != nil {
			return err
		}
		removedLinks = n
		return s.snippetRepo.Delete(tx, snippetID)
	})
	if err != nil {
		logger.Error("Delete: 删除录音事务失败", zap.Uint64("snippetID", snippetID), zap.Error(err))
		return fmt.Errorf("%w: %v", xerr.ErrDatabaseError, err)
	}

	// 2. 事务提交后清理缓存和索引
	s.snippetRepo.Invalidate(ctx, snippetID)
	if s.index != nil {
		if err := s.index.Delete(ctx, snippetID); err != nil {
			logger.Warn("Delete: 删除检索文档失败", zap.Uint64("snippetID", snippetID), zap.Error(err))
		}
	}

	// 3. 删除对象，失败不影响本次删除的结果
	if err := s.store.RemoveObject(ctx, snippet.BlobKey); err != nil {
		logger.Error("Delete: 删除音频对象失败，记录孤儿对象",
			zap.Uint64("snippetID", snippetID), zap.String("blobKey", snippet.BlobKey), zap.Error(err))
		s.recordOrphan(ctx, snippet, err)
	}

	logger.Info("Delete: 录音删除成功",
		zap.Uint64("snippetID", snippetID), zap.Uint64("userID", userID), zap.Int64("removedLinks", removedLinks))
	return nil
}

func (s *snippetService) recordOrphan(ctx context.Context, snippet *models.Snippet, cause error) {
	orphan := &models.OrphanBlob{
		BlobKey:   snippet.BlobKey,
		SnippetID: snippet.ID,
		Reason:    cause.Error(),
	}
	if err := s.orphanRepo.Record(ctx, orphan); err != nil {
		logger.Error("recordOrphan: 记录孤儿对象失败", zap.String("blobKey", snippet.BlobKey), zap.Error(err))
	}
}

func (s *snippetService) Search(ctx context.Context, userID uint64, query string, page, pageSize int) ([]models.Snippet, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, validationError(xerr.ValidationFailedCode, xerr.ErrValidationFailed, "search query is required")
	}
	page, pageSize = utils.NormalizePage(page, pageSize)

	if s.index != nil {
		ids, total, err := s.index.Search(ctx, userID, query, (page-1)*pageSize, pageSize)
		if err == nil {
			snippets, err := s.snippetRepo.FindByIDs(ctx, ids)
			if err != nil {
				return nil, 0, err
			}
			return snippets, total, nil
		}
		logger.Warn("Search: 检索服务查询失败，退回数据库查询", zap.Uint64("userID", userID), zap.Error(err))
	}
	return s.snippetRepo.SearchByOwner(ctx, userID, query, page, pageSize)
}

func (s *snippetService) reindex(ctx context.Context, snippet *models.Snippet) {
	if s.index == nil {
		return
	}
	doc := search.SnippetDocument{
		ID:          snippet.ID,
		OwnerID:     snippet.OwnerID,
		Title:       snippet.Title,
		Description: snippet.Description,
		IsPrivate:   snippet.IsPrivate,
		CreatedAt:   snippet.CreatedAt,
	}
	if snippet.Transcription != nil {
		doc.Transcription = *snippet.Transcription
	}
	if err := s.index.Index(ctx, doc); err != nil {
		logger.Warn("reindex: 写入检索文档失败", zap.Uint64("snippetID", snippet.ID), zap.Error(err))
	}
}
