package models

import (
	"time"
)

// ShareLink 对应 share_links 表
type ShareLink struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ShareID   string `gorm:"type:varchar(64);uniqueIndex;not null" json:"share_id"` // 公开的随机 token
	SnippetID uint64 `gorm:"not null;index" json:"snippet_id"`
	CreatedBy uint64 `gorm:"not null;index" json:"created_by"`

	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	MaxPlays     int        `gorm:"not null;default:5" json:"max_plays"`
	CurrentPlays int        `gorm:"not null;default:0" json:"current_plays"`
	LastAccessed *time.Time `gorm:"default:null" json:"last_accessed,omitempty"`
	// 访问密钥只保存 bcrypt 哈希
	AccessKeyHash *string `gorm:"type:varchar(255);default:null" json:"-"`
	IsActive      bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 定义 GORM 关联，方便预加载
	Snippet *Snippet `gorm:"foreignKey:SnippetID" json:"snippet,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (ShareLink) TableName() string {
	return "share_links"
}

// RequiresKey 是否设置了访问密钥
func (l *ShareLink) RequiresKey() bool {
	return l.AccessKeyHash != nil && *l.AccessKeyHash != ""
}

// PlaysRemaining 剩余可播放次数，不会小于 0
func (l *ShareLink) PlaysRemaining() int {
	if n := l.MaxPlays - l.CurrentPlays; n > 0 {
		return n
	}
	return 0
}

// UsableAt 判断链接在 now 时刻是否可用
func (l *ShareLink) UsableAt(now time.Time) bool {
	return l.IsActive && now.Before(l.ExpiresAt) && l.CurrentPlays < l.MaxPlays
}
