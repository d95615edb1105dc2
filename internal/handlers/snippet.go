package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/services/snippet"
	"github.com/gin-gonic/gin"
)

// multipart 表单字段的额外空间
const formOverhead = 1 << 20

type SnippetHandler struct {
	snippetService snippet.SnippetService
	cfg            *config.Config
}

func NewSnippetHandler(snippetService snippet.SnippetService, cfg *config.Config) *SnippetHandler {
	return &SnippetHandler{
		snippetService: snippetService,
		cfg:            cfg,
	}
}

type UpdateSnippetRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Transcription *string `json:"transcription"`
	IsPrivate     *bool   `json:"isPrivate"`
}

func formBool(c *gin.Context, name string) *bool {
	raw, ok := c.GetPostForm(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// UploadSnippet handles uploading a voice snippet.
// @Summary 上传录音
// @Description 以 multipart 表单上传音频，加密音频需同时提供 AES-256-GCM 的 iv 和 authTag
// @Tags 录音
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param audio formData file true "音频文件"
// @Param title formData string true "标题"
// @Param description formData string false "描述"
// @Param duration formData number false "时长（秒）"
// @Param transcription formData string false "转写文本"
// @Param isPrivate formData bool false "是否私有" default(true)
// @Param isEncrypted formData bool false "是否客户端加密"
// @Param algorithm formData string false "加密算法，只支持 AES-256-GCM"
// @Param iv formData string false "12 字节 hex"
// @Param authTag formData string false "16 字节 hex"
// @Success 201 {object} xerr.Response{data=SnippetView} "上传成功"
// @Failure 400 {object} xerr.Response "参数不合法"
// @Router /api/v1/snippets [post]
func (h *SnippetHandler) UploadSnippet(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxFileSize+formOverhead)
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.ValidationFailedCode, "Please upload an audio file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	// 客户端可能上传小数秒
	duration := 0
	if raw := c.PostForm("duration"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.ValidationFailedCode, "duration must be a number")
			return
		}
		duration = int(f + 0.5)
	}

	in := snippet.UploadInput{
		Reader:              file,
		FileName:            fileHeader.Filename,
		ContentType:         fileHeader.Header.Get("Content-Type"),
		Size:                fileHeader.Size,
		Title:               c.PostForm("title"),
		Description:         c.PostForm("description"),
		Duration:            duration,
		IsPrivate:           formBool(c, "isPrivate"),
		EncryptionAlgorithm: c.PostForm("algorithm"),
		EncryptionIV:        strings.TrimSpace(c.PostForm("iv")),
		EncryptionAuthTag:   strings.TrimSpace(c.PostForm("authTag")),
	}
	if enc := formBool(c, "isEncrypted"); enc != nil {
		in.IsEncrypted = *enc
	}
	if in.IsEncrypted && in.EncryptionAlgorithm == "" {
		in.EncryptionAlgorithm = "AES-256-GCM"
	}
	if t, ok := c.GetPostForm("transcription"); ok && strings.TrimSpace(t) != "" {
		in.Transcription = &t
	}

	created, err := h.snippetService.Upload(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, "UploadSnippet", err)
		return
	}
	xerr.Success(c, http.StatusCreated, "Snippet uploaded", newSnippetView(created))
}

// ListSnippets handles listing the caller's snippets.
// @Summary 我的录音
// @Tags 录音
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} xerr.Response{data=PageView} "录音列表"
// @Router /api/v1/snippets [get]
func (h *SnippetHandler) ListSnippets(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, pageSize := utils.NormalizePage(queryInt(c, "page"), queryInt(c, "page_size"))

	list, total, err := h.snippetService.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, "ListSnippets", err)
		return
	}
	xerr.Success(c, http.StatusOK, "Snippets", PageView{Items: newSnippetViews(list), Total: total, Page: page, PageSize: pageSize})
}

// SearchSnippets handles full-text search over the caller's snippets.
// @Summary 搜索录音
// @Description 在标题、描述和转写文本中搜索
// @Tags 录音
// @Produce json
// @Security BearerAuth
// @Param q query string true "关键词"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} xerr.Response{data=PageView} "搜索结果"
// @Failure 400 {object} xerr.Response "缺少关键词"
// @Router /api/v1/snippets/search [get]
func (h *SnippetHandler) SearchSnippets(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, pageSize := utils.NormalizePage(queryInt(c, "page"), queryInt(c, "page_size"))

	list, total, err := h.snippetService.Search(c.Request.Context(), userID, c.Query("q"), page, pageSize)
	if err != nil {
		respondError(c, "SearchSnippets", err)
		return
	}
	xerr.Success(c, http.StatusOK, "Search results", PageView{Items: newSnippetViews(list), Total: total, Page: page, PageSize: pageSize})
}

// GetSnippet handles fetching one snippet.
// @Summary 录音详情
// @Tags 录音
// @Produce json
// @Security BearerAuth
// @Param id path int true "录音 ID"
// @Success 200 {object} xerr.Response{data=SnippetView} "录音详情"
// @Failure 403 {object} xerr.Response "私有录音"
// @Failure 404 {object} xerr.Response "录音不存在"
// @Router /api/v1/snippets/{id} [get]
func (h *SnippetHandler) GetSnippet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	s, err := h.snippetService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "GetSnippet", err)
		return
	}
	xerr.Success(c, http.StatusOK, "Snippet", newSnippetView(s))
}

// StreamSnippetAudio handles streaming a snippet's audio to an authenticated user.
// @Summary 播放录音
// @Tags 录音
// @Produce audio/mpeg
// @Security BearerAuth
// @Param id path int true "录音 ID"
// @Success 200 {file} binary "音频流"
// @Failure 403 {object} xerr.Response "私有录音"
// @Failure 404 {object} xerr.Response "录音不存在"
// @Router /api/v1/snippets/{id}/audio [get]
func (h *SnippetHandler) StreamSnippetAudio(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	audio, err := h.snippetService.OpenAudio(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "StreamSnippetAudio", err)
		return
	}
	serveAudio(c, audio.Snippet, audio.Object)
}

// UpdateSnippet handles editing snippet metadata.
// @Summary 修改录音信息
// @Tags 录音
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "录音 ID"
// @Param request body UpdateSnippetRequest true "要修改的字段"
// @Success 200 {object} xerr.Response{data=SnippetView} "修改成功"
// @Failure 400 {object} xerr.Response "参数不合法"
// @Failure 403 {object} xerr.Response "不是录音所有者"
// @Failure 404 {object} xerr.Response "录音不存在"
// @Router /api/v1/snippets/{id} [patch]
func (h *SnippetHandler) UpdateSnippet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateSnippetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	updated, err := h.snippetService.Update(c.Request.Context(), userID, id, snippet.UpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		Transcription: req.Transcription,
		IsPrivate:     req.IsPrivate,
	})
	if err != nil {
		respondError(c, "UpdateSnippet", err)
		return
	}
	xerr.Success(c, http.StatusOK, "Snippet updated", newSnippetView(updated))
}

// DeleteSnippet handles deleting a snippet together with its share links.
// @Summary 删除录音
// @Description 删除录音、音频对象以及该录音的全部分享链接
// @Tags 录音
// @Produce json
// @Security BearerAuth
// @Param id path int true "录音 ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 403 {object} xerr.Response "不是录音所有者"
// @Failure 404 {object} xerr.Response "录音不存在"
// @Router /api/v1/snippets/{id} [delete]
func (h *SnippetHandler) DeleteSnippet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.snippetService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, "DeleteSnippet", err)
		return
	}
	xerr.Success(c, http.StatusOK, "Snippet deleted", nil)
}
