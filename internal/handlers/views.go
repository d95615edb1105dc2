package handlers

import (
	"strings"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/services/share"
	"github.com/gin-gonic/gin"
)

// SnippetView 所有者看到的录音信息，不包含对象存储 key
type SnippetView struct {
	ID            uint64                    `json:"id"`
	Title         string                    `json:"title"`
	Description   string                    `json:"description"`
	Duration      int                       `json:"duration"`
	Size          int64                     `json:"size"`
	MimeType      string                    `json:"mimeType"`
	FileName      string                    `json:"fileName"`
	Transcription *string                   `json:"transcription,omitempty"`
	IsPrivate     bool                      `json:"isPrivate"`
	IsEncrypted   bool                      `json:"isEncrypted"`
	Encryption    *models.EncryptionDetails `json:"encryptionDetails,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

func newSnippetView(s *models.Snippet) SnippetView {
	return SnippetView{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		Duration:      s.Duration,
		Size:          s.Size,
		MimeType:      s.MimeType,
		FileName:      s.FileName,
		Transcription: s.Transcription,
		IsPrivate:     s.IsPrivate,
		IsEncrypted:   s.IsEncrypted,
		Encryption:    s.Encryption(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func newSnippetViews(list []models.Snippet) []SnippetView {
	views := make([]SnippetView, 0, len(list))
	for i := range list {
		views = append(views, newSnippetView(&list[i]))
	}
	return views
}

// SharedSnippetView 分享访问者看到的录音信息
type SharedSnippetView struct {
	ID            uint64                    `json:"id"`
	Title         string                    `json:"title"`
	Description   string                    `json:"description"`
	Duration      int                       `json:"duration"`
	MimeType      string                    `json:"mimeType"`
	Transcription *string                   `json:"transcription,omitempty"`
	IsEncrypted   bool                      `json:"isEncrypted"`
	Encryption    *models.EncryptionDetails `json:"encryptionDetails,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt"`
}

type SharedSnippetResponse struct {
	Snippet        SharedSnippetView `json:"snippet"`
	PlaysRemaining int               `json:"playsRemaining"`
	ExpiresAt      time.Time         `json:"expiresAt"`
	AudioURL       string            `json:"audioUrl"`
}

type ShareSnippetSummary struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// ShareLinkView 分享链接信息，不包含访问密钥
type ShareLinkView struct {
	ID           uint64               `json:"id"`
	ShareID      string               `json:"shareId"`
	URL          string               `json:"url"`
	ExpiresAt    time.Time            `json:"expiresAt"`
	MaxPlays     int                  `json:"maxPlays"`
	CurrentPlays int                  `json:"currentPlays"`
	RequiresKey  bool                 `json:"requiresKey"`
	IsActive     bool                 `json:"isActive"`
	LastAccessed *time.Time           `json:"lastAccessed,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	Snippet      *ShareSnippetSummary `json:"snippet,omitempty"`
}

func newShareLinkView(link *models.ShareLink, baseURL string, usable bool) ShareLinkView {
	v := ShareLinkView{
		ID:           link.ID,
		ShareID:      link.ShareID,
		URL:          share.BuildShareURL(baseURL, link.ShareID),
		ExpiresAt:    link.ExpiresAt,
		MaxPlays:     link.MaxPlays,
		CurrentPlays: link.CurrentPlays,
		RequiresKey:  link.RequiresKey(),
		IsActive:     usable,
		LastAccessed: link.LastAccessed,
		CreatedAt:    link.CreatedAt,
	}
	if link.Snippet != nil {
		v.Snippet = &ShareSnippetSummary{ID: link.Snippet.ID, Title: link.Snippet.Title, Duration: link.Snippet.Duration}
	}
	return v
}

type PageView struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// publicBaseURL 优先使用配置的对外地址，否则按请求推断
func publicBaseURL(c *gin.Context, cfg *config.Config) string {
	if cfg.Server.PublicBaseURL != "" {
		return strings.TrimRight(cfg.Server.PublicBaseURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
