package xerr

import (
	"errors"
	"fmt"
)

var (
	// 客户端请求错误
	ErrValidationFailed  = errors.New("validation failed")
	ErrFileTooLarge      = errors.New("audio file exceeds the size limit")
	ErrUnsupportedMedia  = errors.New("only audio files are allowed")
	ErrInvalidEncryption = errors.New("invalid encryption metadata")
	ErrAudioTooLong      = errors.New("audio duration exceeds the limit")

	// 认证与授权错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email is already registered")
	ErrAccessKeyRequired  = errors.New("Access key required")

	// 权限错误
	ErrPermissionDenied = errors.New("You are not authorized to access this snippet")

	// 分享链接不可用，三种原因都归入同一类错误
	ErrShareUnavailable     = errors.New("share link is no longer available")
	ErrShareExpired         = fmt.Errorf("%w: This link has expired", ErrShareUnavailable)
	ErrShareMaxPlaysReached = fmt.Errorf("%w: Maximum number of plays reached", ErrShareUnavailable)
	ErrShareRevoked         = fmt.Errorf("%w: This link has been revoked", ErrShareUnavailable)

	// 资源未找到错误
	ErrUserNotFound    = errors.New("user not found")
	ErrShareNotFound   = errors.New("Share link not found")
	ErrSnippetNotFound = errors.New("Snippet not found")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("database operation failed")
	ErrStorageError  = errors.New("storage operation failed")
)

// 分享链接不可用的原因
const (
	ReasonExpired         = "expired"
	ReasonMaxPlaysReached = "max_plays_reached"
	ReasonRevoked         = "revoked"
)

// ShareUnavailableReason 返回分享链接不可用的原因，不属于该类错误时返回空串
func ShareUnavailableReason(err error) string {
	switch {
	case errors.Is(err, ErrShareRevoked):
		return ReasonRevoked
	case errors.Is(err, ErrShareExpired):
		return ReasonExpired
	case errors.Is(err, ErrShareMaxPlaysReached):
		return ReasonMaxPlaysReached
	default:
		return ""
	}
}

// ShareUnavailableMessage 返回给访问者看的提示文案
func ShareUnavailableMessage(reason string) string {
	switch reason {
	case ReasonRevoked:
		return "This link has been revoked"
	case ReasonMaxPlaysReached:
		return "Maximum number of plays reached"
	default:
		return "This link has expired"
	}
}
