package models

import "time"

// OrphanBlob 删除录音时对象存储删除失败留下的孤儿对象，由 janitor 重试清理
type OrphanBlob struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlobKey    string     `gorm:"type:varchar(255);not null;index" json:"blob_key"`
	SnippetID  uint64     `gorm:"not null" json:"snippet_id"`
	Reason     string     `gorm:"type:varchar(512);not null;default:''" json:"reason"`
	Attempts   int        `gorm:"not null;default:0" json:"attempts"`
	ResolvedAt *time.Time `gorm:"default:null;index" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OrphanBlob) TableName() string {
	return "orphan_blobs"
}
