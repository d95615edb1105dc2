package xerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareUnavailableReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrShareExpired, ReasonExpired},
		{fmt.Errorf("access: %w", ErrShareMaxPlaysReached), ReasonMaxPlaysReached},
		{ErrShareRevoked, ReasonRevoked},
		{ErrShareNotFound, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShareUnavailableReason(tt.err))
	}

	// 三种原因都属于同一类错误
	assert.ErrorIs(t, ErrShareExpired, ErrShareUnavailable)
	assert.ErrorIs(t, ErrShareMaxPlaysReached, ErrShareUnavailable)
	assert.ErrorIs(t, ErrShareRevoked, ErrShareUnavailable)
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("upload: %w", NewCodeError(FileTooLargeCode, ErrFileTooLarge))
	assert.Equal(t, FileTooLargeCode, CodeOf(err, ValidationFailedCode))
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Equal(t, ValidationFailedCode, CodeOf(errors.New("plain"), ValidationFailedCode))
}

func TestErrorWithData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorWithData(c, http.StatusUnauthorized, AccessKeyRequiredCode, "Access key required", gin.H{"requires_key": true})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, AccessKeyRequiredCode, body.Code)
	assert.Equal(t, true, body.Data["requires_key"])
}
