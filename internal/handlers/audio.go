package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// serveAudio 输出音频流，Reader 可 Seek 时支持 Range 请求
func serveAudio(c *gin.Context, snippet *models.Snippet, obj storage.GetObjectResult) {
	defer obj.Reader.Close()

	contentType := snippet.MimeType
	if contentType == "" {
		contentType = obj.MimeType
	}
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Header("Content-Type", contentType)
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "private, no-store")

	if rs, ok := obj.Reader.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, snippet.FileName, obj.LastModified, rs)
		return
	}

	if obj.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj.Reader); err != nil {
		logger.Warn("serveAudio: 音频流传输中断", zap.Uint64("snippetID", snippet.ID), zap.Error(err))
	}
}
