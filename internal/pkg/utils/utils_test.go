package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(7, "ada", "ada@example.com", "user", testSecret, "securevoice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "user", claims.Role)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken(7, "ada", "ada@example.com", "user", testSecret, "securevoice", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestPlaybackTicket(t *testing.T) {
	ticket, err := GeneratePlaybackTicket("abc", 3, testSecret, "securevoice", 15*time.Minute, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParsePlaybackTicket(ticket, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.ShareID)
	assert.Equal(t, uint64(3), claims.SnippetID)

	// 登录 token 不能当作播放票据使用，反之亦然
	_, err = ParseToken(ticket, testSecret)
	assert.Error(t, err)
	login, err := GenerateToken(7, "ada", "ada@example.com", "user", testSecret, "securevoice", time.Hour)
	require.NoError(t, err)
	_, err = ParsePlaybackTicket(login, testSecret)
	assert.Error(t, err)
}

func TestPlaybackTicket_CappedByLinkExpiry(t *testing.T) {
	notAfter := time.Now().Add(2 * time.Second)
	ticket, err := GeneratePlaybackTicket("abc", 3, testSecret, "securevoice", time.Hour, notAfter)
	require.NoError(t, err)

	claims, err := ParsePlaybackTicket(ticket, testSecret)
	require.NoError(t, err)
	assert.WithinDuration(t, notAfter, claims.ExpiresAt.Time, time.Second)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("open-sesame")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("open-sesame", hash))
	assert.False(t, CheckPasswordHash("Open-sesame", hash))
}

func TestGenerateShareToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := GenerateShareToken()
		require.NoError(t, err)
		assert.Len(t, tok, ShareTokenBytes*2)
		_, dup := seen[tok]
		assert.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextUserIDKey, uint64(9))
	id, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), id)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	_, ok = GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
