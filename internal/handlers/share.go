package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShareHandler struct {
	shareService share.ShareService
	cfg          *config.Config
}

func NewShareHandler(shareService share.ShareService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		cfg:          cfg,
	}
}

// CreateShareRequest 字段都可省略，省略时使用默认值
type CreateShareRequest struct {
	MaxPlays   *int    `json:"maxPlays"`
	ExpiryDays *int    `json:"expiryDays"`
	AccessKey  *string `json:"accessKey"`
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}

// CreateShare handles creation of a new share link.
// @Summary 创建分享链接
// @Description 为自己的录音创建分享链接，可设置最大播放次数、有效天数和访问密钥
// @Tags 分享
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "录音 ID"
// @Param request body CreateShareRequest false "分享选项"
// @Success 201 {object} xerr.Response{data=ShareLinkView} "分享链接创建成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 403 {object} xerr.Response "不是录音所有者"
// @Failure 404 {object} xerr.Response "录音不存在"
// @Router /api/v1/share/{id} [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	snippetID, ok := parseID(c)
	if !ok {
		return
	}
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	link, err := h.shareService.CreateShare(c.Request.Context(), userID, snippetID, share.CreateShareOptions{
		MaxPlays:   req.MaxPlays,
		ExpiryDays: req.ExpiryDays,
		AccessKey:  req.AccessKey,
	})
	if err != nil {
		respondError(c, "CreateShare", err)
		return
	}

	xerr.Success(c, http.StatusCreated, "Share link created", newShareLinkView(link, publicBaseURL(c, h.cfg), true))
}

// AccessShare handles public access to a share link.
// @Summary 访问分享链接
// @Description 校验有效期、播放次数和访问密钥，成功时消耗一次播放次数并返回录音信息和音频地址
// @Tags 分享
// @Produce json
// @Param id path string true "分享 token"
// @Param key query string false "访问密钥"
// @Success 200 {object} xerr.Response{data=SharedSnippetResponse} "访问成功"
// @Failure 401 {object} xerr.Response "需要访问密钥或密钥错误"
// @Failure 403 {object} xerr.Response "链接已过期、次数用完或已撤销"
// @Failure 404 {object} xerr.Response "分享链接或录音不存在"
// @Router /api/v1/share/{id} [get]
func (h *ShareHandler) AccessShare(c *gin.Context) {
	token := c.Param("id")
	result, err := h.shareService.AccessSharedSnippet(c.Request.Context(), token, c.Query("key"))
	if err != nil {
		if !share.IsAccessError(err) {
			logger.Error("AccessShare: 访问分享链接失败", zap.String("shareID", token), zap.Error(err))
		}
		respondError(c, "AccessShare", err)
		return
	}

	s := result.Snippet
	audioURL := publicBaseURL(c, h.cfg) + "/api/v1/share/" + url.PathEscape(token) + "/audio"
	if result.PlaybackTicket != "" {
		audioURL += "?ticket=" + url.QueryEscape(result.PlaybackTicket)
	}

	xerr.Success(c, http.StatusOK, "Shared snippet", SharedSnippetResponse{
		Snippet: SharedSnippetView{
			ID:            s.ID,
			Title:         s.Title,
			Description:   s.Description,
			Duration:      s.Duration,
			MimeType:      s.MimeType,
			Transcription: s.Transcription,
			IsEncrypted:   s.IsEncrypted,
			Encryption:    s.Encryption(),
			CreatedAt:     s.CreatedAt,
		},
		PlaysRemaining: result.PlaysRemaining,
		ExpiresAt:      result.ExpiresAt,
		AudioURL:       audioURL,
	})
}

// StreamSharedAudio handles streaming the audio behind a share link.
// @Summary 获取分享录音的音频
// @Description 与访问分享链接使用同一套校验；携带有效播放票据时不重复计数
// @Tags 分享
// @Produce audio/mpeg
// @Param id path string true "分享 token"
// @Param key query string false "访问密钥"
// @Param ticket query string false "播放票据"
// @Success 200 {file} binary "音频流"
// @Failure 401 {object} xerr.Response "需要访问密钥或密钥错误"
// @Failure 403 {object} xerr.Response "链接已过期、次数用完或已撤销"
// @Failure 404 {object} xerr.Response "分享链接或录音不存在"
// @Router /api/v1/share/{id}/audio [get]
func (h *ShareHandler) StreamSharedAudio(c *gin.Context) {
	token := c.Param("id")
	audio, err := h.shareService.OpenSharedAudio(c.Request.Context(), token, c.Query("key"), c.Query("ticket"))
	if err != nil {
		respondError(c, "StreamSharedAudio", err)
		return
	}
	serveAudio(c, audio.Snippet, audio.Object)
}

// ListShares handles listing the caller's share links.
// @Summary 我的分享链接
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} xerr.Response{data=PageView} "分享链接列表"
// @Router /api/v1/share [get]
func (h *ShareHandler) ListShares(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, pageSize := utils.NormalizePage(queryInt(c, "page"), queryInt(c, "page_size"))

	summaries, total, err := h.shareService.ListUserShares(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, "ListShares", err)
		return
	}

	base := publicBaseURL(c, h.cfg)
	views := make([]ShareLinkView, 0, len(summaries))
	for i := range summaries {
		views = append(views, newShareLinkView(&summaries[i].Link, base, summaries[i].Usable))
	}
	xerr.Success(c, http.StatusOK, "Share links", PageView{Items: views, Total: total, Page: page, PageSize: pageSize})
}

// RevokeShare handles revoking a share link.
// @Summary 撤销分享链接
// @Description 只把链接标记为不可用，记录保留
// @Tags 分享
// @Security BearerAuth
// @Param id path int true "分享链接 ID"
// @Success 204 "撤销成功"
// @Failure 403 {object} xerr.Response "不是链接创建者"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Router /api/v1/share/{id} [delete]
func (h *ShareHandler) RevokeShare(c *gin.Context) {
	linkID, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.shareService.RevokeShare(c.Request.Context(), userID, linkID); err != nil {
		respondError(c, "RevokeShare", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ShareQRCode handles rendering a QR code for a share link.
// @Summary 分享链接二维码
// @Tags 分享
// @Produce png
// @Security BearerAuth
// @Param id path int true "分享链接 ID"
// @Success 200 {file} binary "PNG 图片"
// @Failure 403 {object} xerr.Response "不是链接创建者"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Router /api/v1/share/{id}/qr [get]
func (h *ShareHandler) ShareQRCode(c *gin.Context) {
	linkID, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	png, err := h.shareService.ShareQRCode(c.Request.Context(), userID, linkID, publicBaseURL(c, h.cfg))
	if err != nil {
		respondError(c, "ShareQRCode", err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
