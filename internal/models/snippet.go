package models

import (
	"time"
)

// Snippet 对应 snippets 表，一条录音的元数据，音频本体存放在对象存储中
type Snippet struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uint64 `gorm:"not null;index" json:"owner_id"`
	BlobKey     string `gorm:"type:varchar(255);uniqueIndex;not null" json:"blob_key"` // 对象存储中的 key，创建后不可变
	FileName    string `gorm:"type:varchar(255);not null" json:"file_name"`
	MimeType    string `gorm:"type:varchar(100);not null" json:"mime_type"`
	Size        int64  `gorm:"not null;default:0" json:"size"`
	Duration    int    `gorm:"not null;default:0" json:"duration"` // 秒
	Title       string `gorm:"type:varchar(100);not null" json:"title"`
	Description string `gorm:"type:varchar(500);not null;default:''" json:"description"`
	// 转写文本，可选
	Transcription *string `gorm:"type:text" json:"transcription,omitempty"`
	IsPrivate     bool    `gorm:"not null;default:true" json:"is_private"`

	// 加密元数据只做描述，服务端不解密也不校验
	IsEncrypted         bool   `gorm:"not null;default:false" json:"is_encrypted"`
	EncryptionAlgorithm string `gorm:"type:varchar(32);not null;default:''" json:"encryption_algorithm,omitempty"`
	EncryptionIV        string `gorm:"type:varchar(64);not null;default:''" json:"encryption_iv,omitempty"`
	EncryptionAuthTag   string `gorm:"type:varchar(64);not null;default:''" json:"encryption_auth_tag,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Snippet) TableName() string {
	return "snippets"
}

// EncryptionDetails 对外暴露的加密信息
type EncryptionDetails struct {
	Algorithm string `json:"algorithm"`
	IV        string `json:"iv"`
	AuthTag   string `json:"authTag"`
}

// Encryption 未加密时返回 nil
func (s *Snippet) Encryption() *EncryptionDetails {
	if !s.IsEncrypted {
		return nil
	}
	return &EncryptionDetails{
		Algorithm: s.EncryptionAlgorithm,
		IV:        s.EncryptionIV,
		AuthTag:   s.EncryptionAuthTag,
	}
}
