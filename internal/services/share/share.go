package share

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage"
	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/repositories"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// 访问密钥长度限制
const (
	MinAccessKeyLen = 4
	MaxAccessKeyLen = 20
)

// ShareService 定义了录音分享服务需要实现的接口
type ShareService interface {
	// CreateShare 为自己的录音创建分享链接
	CreateShare(ctx context.Context, userID, snippetID uint64, opts CreateShareOptions) (*models.ShareLink, error)
	// AccessSharedSnippet 公开访问分享链接，成功时消耗一次播放次数
	AccessSharedSnippet(ctx context.Context, shareID, key string) (*SharedSnippet, error)
	// OpenSharedAudio 打开分享录音的音频流，凭有效播放票据时不再重复计数
	OpenSharedAudio(ctx context.Context, shareID, key, ticket string) (*SharedAudio, error)
	// ListUserShares 列出用户创建的分享链接（分页）
	ListUserShares(ctx context.Context, userID uint64, page, pageSize int) ([]ShareLinkSummary, int64, error)
	// RevokeShare 撤销分享链接，只把 is_active 置为 false
	RevokeShare(ctx context.Context, userID, linkID uint64) error
	// ShareQRCode 生成分享地址的二维码 PNG
	ShareQRCode(ctx context.Context, userID, linkID uint64, baseURL string) ([]byte, error)
}

// CreateShareOptions nil 表示使用默认值
type CreateShareOptions struct {
	MaxPlays   *int
	ExpiryDays *int
	AccessKey  *string
}

// SharedSnippet 访问成功后返回给访问者的内容
type SharedSnippet struct {
	Snippet        *models.Snippet
	PlaysRemaining int
	ExpiresAt      time.Time
	PlaybackTicket string
}

type SharedAudio struct {
	Snippet *models.Snippet
	Object  storage.GetObjectResult
}

type ShareLinkSummary struct {
	Link   models.ShareLink
	Usable bool // is_active 且未过期、未用完
}

type shareService struct {
	shareRepo   repositories.ShareRepository
	snippetRepo repositories.SnippetRepository
	store       storage.StorageService
	cfg         *config.Config
	now         func() time.Time
}

var _ ShareService = (*shareService)(nil)

// NewShareService 创建一个新的 ShareService 实例
func NewShareService(shareRepo repositories.ShareRepository, snippetRepo repositories.SnippetRepository, store storage.StorageService, cfg *config.Config) ShareService {
	return &shareService{
		shareRepo:   shareRepo,
		snippetRepo: snippetRepo,
		store:       store,
		cfg:         cfg,
		now:         time.Now,
	}
}

// BuildShareURL 拼接完整的分享地址
func BuildShareURL(baseURL, shareID string) string {
	return strings.TrimRight(baseURL, "/") + "/share/" + shareID
}

func (s *shareService) CreateShare(ctx context.Context, userID, snippetID uint64, opts CreateShareOptions) (*models.ShareLink, error) {
	maxPlays, expiryDays, err := s.resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	// 1. 验证录音是否存在，并且是否属于当前用户
	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		return nil, fmt.Errorf("查询录音失败: %w", err)
	}
	if snippet == nil {
		return nil, xerr.ErrSnippetNotFound
	}
	if snippet.OwnerID != userID {
		logger.Warn("CreateShare: 非所有者尝试分享录音", zap.Uint64("userID", userID), zap.Uint64("snippetID", snippetID))
		return nil, xerr.ErrPermissionDenied
	}

	token, err := utils.GenerateShareToken()
	if err != nil {
		return nil, fmt.Errorf("生成分享token失败: %w", err)
	}

	now := s.now()
	link := &models.ShareLink{
		ShareID:   token,
		SnippetID: snippetID,
		CreatedBy: userID,
		ExpiresAt: now.Add(time.Duration(expiryDays) * 24 * time.Hour),
		MaxPlays:  maxPlays,
		IsActive:  true,
	}

	// 2. 访问密钥只保存哈希
	if opts.AccessKey != nil && *opts.AccessKey != "" {
		hashed, err := utils.HashPassword(*opts.AccessKey)
		if err != nil {
			return nil, fmt.Errorf("访问密钥处理失败: %w", err)
		}
		link.AccessKeyHash = &hashed
	}

	if err := s.shareRepo.Create(ctx, link); err != nil {
		logger.Error("CreateShare: 创建分享链接记录失败", zap.Uint64("snippetID", snippetID), zap.Error(err))
		return nil, err
	}

	logger.Info("CreateShare: 分享链接创建成功",
		zap.Uint64("linkID", link.ID),
		zap.Uint64("snippetID", snippetID),
		zap.Int("maxPlays", maxPlays),
		zap.Time("expiresAt", link.ExpiresAt),
		zap.Bool("requiresKey", link.RequiresKey()))
	return link, nil
}

func (s *shareService) resolveOptions(opts CreateShareOptions) (int, int, error) {
	sc := s.cfg.Share
	maxPlays, expiryDays := sc.DefaultMaxPlays, sc.DefaultExpiryDays

	if opts.MaxPlays != nil {
		if *opts.MaxPlays < 1 || *opts.MaxPlays > sc.MaxMaxPlays {
			return 0, 0, invalidOption("maxPlays must be between 1 and %d", sc.MaxMaxPlays)
		}
		maxPlays = *opts.MaxPlays
	}
	if opts.ExpiryDays != nil {
		if *opts.ExpiryDays < 1 || *opts.ExpiryDays > sc.MaxExpiryDays {
			return 0, 0, invalidOption("expiryDays must be between 1 and %d", sc.MaxExpiryDays)
		}
		expiryDays = *opts.ExpiryDays
	}
	if opts.AccessKey != nil && *opts.AccessKey != "" {
		if n := utf8.RuneCountInString(*opts.AccessKey); n < MinAccessKeyLen || n > MaxAccessKeyLen {
			return 0, 0, invalidOption("accessKey must be between %d and %d characters", MinAccessKeyLen, MaxAccessKeyLen)
		}
	}
	return maxPlays, expiryDays, nil
}

func invalidOption(format string, args ...any) error {
	return xerr.NewCodeError(xerr.InvalidShareOptionCode,
		fmt.Errorf("%w: %s", xerr.ErrValidationFailed, fmt.Sprintf(format, args...)))
}

// checkUsable 可用性判断，顺序决定返回的原因：撤销 > 过期 > 次数用完
func checkUsable(link *models.ShareLink, now time.Time, quotaPaid bool) error {
	if link.UsableAt(now) {
		return nil
	}
	if !link.IsActive {
		return xerr.ErrShareRevoked
	}
	if !now.Before(link.ExpiresAt) {
		return xerr.ErrShareExpired
	}
	if quotaPaid {
		return nil
	}
	return xerr.ErrShareMaxPlaysReached
}

// authorize 元数据接口和音频接口共用的访问校验
// paid 为 true 表示调用方持有本链接的有效播放票据：这次播放已计过数，密钥也已验证过
func (s *shareService) authorize(ctx context.Context, shareID, key string, paid bool) (*models.ShareLink, *models.Snippet, error) {
	// 1. 查找分享链接
	link, err := s.shareRepo.FindByShareID(ctx, shareID)
	if err != nil {
		return nil, nil, err
	}
	if link == nil {
		return nil, nil, xerr.ErrShareNotFound
	}

	// 2. 有效期、撤销状态和剩余次数
	if err := checkUsable(link, s.now(), paid); err != nil {
		logger.Info("authorize: 分享链接不可用",
			zap.Uint64("linkID", link.ID), zap.String("reason", xerr.ShareUnavailableReason(err)))
		return nil, nil, err
	}

	// 3. 访问密钥
	if link.RequiresKey() && !paid {
		if key == "" || !utils.CheckPasswordHash(key, *link.AccessKeyHash) {
			return nil, nil, xerr.ErrAccessKeyRequired
		}
	}

	// 4. 录音可能已被删除而链接仍在
	snippet, err := s.snippetRepo.FindByID(ctx, link.SnippetID)
	if err != nil {
		return nil, nil, fmt.Errorf("查询录音失败: %w", err)
	}
	if snippet == nil {
		logger.Warn("authorize: 分享链接指向的录音不存在", zap.Uint64("linkID", link.ID), zap.Uint64("snippetID", link.SnippetID))
		return nil, nil, xerr.ErrSnippetNotFound
	}
	return link, snippet, nil
}

// consume 原子地消耗一次播放，返回更新后的链接
func (s *shareService) consume(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error) {
	now := s.now()
	ok, err := s.shareRepo.ConsumePlay(ctx, link.ID, now)
	if err != nil {
		return nil, err
	}

	current, findErr := s.shareRepo.FindByID(ctx, link.ID)
	if !ok {
		// 并发下被其他请求抢先用完，重新读取以给出准确的原因
		if findErr != nil {
			return nil, findErr
		}
		if current == nil {
			return nil, xerr.ErrShareNotFound
		}
		if err := checkUsable(current, now, false); err != nil {
			return nil, err
		}
		return nil, xerr.ErrShareMaxPlaysReached
	}

	if findErr != nil || current == nil {
		// 计数已成功，读取失败时按本地值推算
		fallback := *link
		fallback.CurrentPlays++
		fallback.LastAccessed = &now
		return &fallback, nil
	}
	return current, nil
}

func (s *shareService) AccessSharedSnippet(ctx context.Context, shareID, key string) (*SharedSnippet, error) {
	link, snippet, err := s.authorize(ctx, shareID, key, false)
	if err != nil {
		return nil, err
	}

	// 5. 条件更新计数
	link, err = s.consume(ctx, link)
	if err != nil {
		return nil, err
	}

	ticket, err := utils.GeneratePlaybackTicket(link.ShareID, snippet.ID,
		s.cfg.JWT.SecretKey, s.cfg.JWT.Issuer, s.cfg.JWT.PlaybackTicketTTL, link.ExpiresAt)
	if err != nil {
		// 票据只影响音频接口是否重复计数，不影响本次访问
		logger.Error("AccessSharedSnippet: 签发播放票据失败", zap.Uint64("linkID", link.ID), zap.Error(err))
	}

	logger.Info("AccessSharedSnippet: 分享链接访问成功",
		zap.Uint64("linkID", link.ID), zap.Int("currentPlays", link.CurrentPlays), zap.Int("maxPlays", link.MaxPlays))
	return &SharedSnippet{
		Snippet:        snippet,
		PlaysRemaining: link.PlaysRemaining(),
		ExpiresAt:      link.ExpiresAt,
		PlaybackTicket: ticket,
	}, nil
}

func (s *shareService) OpenSharedAudio(ctx context.Context, shareID, key, ticket string) (*SharedAudio, error) {
	claims := s.ticketClaims(shareID, ticket)
	paid := claims != nil

	link, snippet, err := s.authorize(ctx, shareID, key, paid)
	if err != nil {
		return nil, err
	}
	if paid && claims.SnippetID != snippet.ID {
		// 票据签发时的录音与链接当前指向的不一致，按无票据处理
		logger.Warn("OpenSharedAudio: 票据录音不匹配", zap.String("shareID", shareID),
			zap.Uint64("ticketSnippetID", claims.SnippetID), zap.Uint64("snippetID", snippet.ID))
		paid = false
		if link, snippet, err = s.authorize(ctx, shareID, key, false); err != nil {
			return nil, err
		}
	}

	// 先打开对象再计数，存储故障不能消耗播放次数
	obj, err := s.store.GetObject(ctx, snippet.BlobKey)
	if err != nil {
		logger.Error("OpenSharedAudio: 读取音频对象失败", zap.Uint64("snippetID", snippet.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	if !paid {
		// 直接访问音频地址同样要计数，不能绕过次数限制
		if _, err := s.consume(ctx, link); err != nil {
			obj.Reader.Close()
			return nil, err
		}
	}
	return &SharedAudio{Snippet: snippet, Object: obj}, nil
}

// ticketClaims 返回属于 shareID 的有效票据声明，否则返回 nil
func (s *shareService) ticketClaims(shareID, ticket string) *utils.PlaybackClaims {
	if ticket == "" {
		return nil
	}
	claims, err := utils.ParsePlaybackTicket(ticket, s.cfg.JWT.SecretKey)
	if err != nil {
		logger.Debug("ticketClaims: 播放票据无效", zap.Error(err))
		return nil
	}
	if claims.ShareID != shareID {
		return nil
	}
	return claims
}

func (s *shareService) ListUserShares(ctx context.Context, userID uint64, page, pageSize int) ([]ShareLinkSummary, int64, error) {
	page, pageSize = utils.NormalizePage(page, pageSize)
	links, total, err := s.shareRepo.FindAllByUserID(ctx, userID, page, pageSize)
	if err != nil {
		logger.Error("ListUserShares: 查询用户分享列表失败", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, err
	}

	now := s.now()
	summaries := make([]ShareLinkSummary, 0, len(links))
	for i := range links {
		summaries = append(summaries, ShareLinkSummary{
			Link:   links[i],
			Usable: links[i].UsableAt(now),
		})
	}
	return summaries, total, nil
}

func (s *shareService) ownedLink(ctx context.Context, userID, linkID uint64) (*models.ShareLink, error) {
	link, err := s.shareRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, xerr.ErrShareNotFound
	}
	if link.CreatedBy != userID {
		return nil, xerr.ErrPermissionDenied
	}
	return link, nil
}

func (s *shareService) RevokeShare(ctx context.Context, userID, linkID uint64) error {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return err
	}
	if !link.IsActive {
		return nil
	}

	if err := s.shareRepo.Deactivate(ctx, linkID); err != nil {
		logger.Error("RevokeShare: 撤销分享链接失败", zap.Uint64("linkID", linkID), zap.Error(err))
		return err
	}
	logger.Info("RevokeShare: 分享链接撤销成功", zap.Uint64("linkID", linkID), zap.Uint64("userID", userID))
	return nil
}

func (s *shareService) ShareQRCode(ctx context.Context, userID, linkID uint64, baseURL string) ([]byte, error) {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(BuildShareURL(baseURL, link.ShareID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return png, nil
}

// IsAccessError 判断是否为访问者侧的预期错误，用于区分日志级别
func IsAccessError(err error) bool {
	return errors.Is(err, xerr.ErrShareNotFound) ||
		errors.Is(err, xerr.ErrSnippetNotFound) ||
		errors.Is(err, xerr.ErrShareUnavailable) ||
		errors.Is(err, xerr.ErrAccessKeyRequired)
}
