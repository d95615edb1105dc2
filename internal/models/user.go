package models

import (
	"time"
)

// 用户角色
const (
	RoleUser  = "user"
	RoleGuest = "guest"
)

// User 对应 users 表
type User struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"type:varchar(64);not null" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"` // - 表示不输出到 JSON
	Role         string     `gorm:"type:varchar(16);not null;default:user" json:"role"`
	LastLoginAt  *time.Time `gorm:"default:null" json:"last_login_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}
