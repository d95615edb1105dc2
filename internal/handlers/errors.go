package handlers

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError 把服务层错误映射为 HTTP 状态码和业务码
func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, xerr.ErrShareNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrSnippetNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.SnippetNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrUserNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())

	case errors.Is(err, xerr.ErrAccessKeyRequired):
		xerr.ErrorWithData(c, http.StatusUnauthorized, xerr.AccessKeyRequiredCode, err.Error(), gin.H{"requires_key": true})
	case errors.Is(err, xerr.ErrShareUnavailable):
		reason := xerr.ShareUnavailableReason(err)
		xerr.ErrorWithData(c, http.StatusForbidden, shareUnavailableCode(reason), xerr.ShareUnavailableMessage(reason), gin.H{"reason": reason})
	case errors.Is(err, xerr.ErrPermissionDenied):
		xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())

	case errors.Is(err, xerr.ErrInvalidCredentials):
		xerr.Error(c, http.StatusUnauthorized, xerr.InvalidCredentialsCode, err.Error())
	case errors.Is(err, xerr.ErrEmailAlreadyExists):
		xerr.Error(c, http.StatusConflict, xerr.EmailAlreadyExistsCode, err.Error())

	case errors.Is(err, xerr.ErrValidationFailed),
		errors.Is(err, xerr.ErrFileTooLarge),
		errors.Is(err, xerr.ErrUnsupportedMedia),
		errors.Is(err, xerr.ErrInvalidEncryption),
		errors.Is(err, xerr.ErrAudioTooLong):
		xerr.Error(c, http.StatusBadRequest, xerr.CodeOf(err, xerr.ValidationFailedCode), err.Error())

	case errors.Is(err, xerr.ErrDatabaseError):
		logger.Error(op+": 数据库操作失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "Server error")
	case errors.Is(err, xerr.ErrStorageError):
		logger.Error(op+": 对象存储操作失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "Server error")
	default:
		logger.Error(op+": 内部错误", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Server error")
	}
}

func shareUnavailableCode(reason string) int {
	switch reason {
	case xerr.ReasonMaxPlaysReached:
		return xerr.ShareMaxPlaysCode
	case xerr.ReasonRevoked:
		return xerr.ShareRevokedCode
	default:
		return xerr.ShareExpiredCode
	}
}

func badRequest(c *gin.Context, msg string) {
	xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, msg)
}
