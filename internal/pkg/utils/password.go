package utils

import (
	"errors"

	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword 用于用户密码和分享访问密钥
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Error hashing password", zap.Error(err))
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash bcrypt 比较本身是常量时间的
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Error("Error comparing password hash", zap.Error(err))
		}
		return false
	}
	return true
}
