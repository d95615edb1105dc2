package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage"
	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/services/share"
	"github.com/3Eeeecho/securevoice/internal/services/snippet"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubShareService struct {
	share.ShareService
	accessErr  error
	audioErr   error
	gotKey     string
	gotTicket  string
	revokeErr  error
	createOpts share.CreateShareOptions
	seekable   bool
}

type seekableBody struct {
	*bytes.Reader
	io.Closer
}

func (s *stubShareService) CreateShare(ctx context.Context, userID, snippetID uint64, opts share.CreateShareOptions) (*models.ShareLink, error) {
	s.createOpts = opts
	return &models.ShareLink{ID: 3, ShareID: "tok", SnippetID: snippetID, MaxPlays: 5, ExpiresAt: time.Now().Add(time.Hour), IsActive: true}, nil
}

func (s *stubShareService) AccessSharedSnippet(ctx context.Context, shareID, key string) (*share.SharedSnippet, error) {
	s.gotKey = key
	if s.accessErr != nil {
		return nil, s.accessErr
	}
	return &share.SharedSnippet{
		Snippet:        &models.Snippet{ID: 1, Title: "Voice memo", BlobKey: "snippets/secret-key.mp3", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		PlaysRemaining: 4,
		ExpiresAt:      time.Now().Add(time.Hour),
		PlaybackTicket: "tkt",
	}, nil
}

func (s *stubShareService) OpenSharedAudio(ctx context.Context, shareID, key, ticket string) (*share.SharedAudio, error) {
	s.gotTicket = ticket
	if s.audioErr != nil {
		return nil, s.audioErr
	}
	obj := storage.GetObjectResult{Reader: io.NopCloser(strings.NewReader("0123456789")), Size: 10}
	if s.seekable {
		obj.Reader = seekableBody{Reader: bytes.NewReader([]byte("0123456789")), Closer: io.NopCloser(nil)}
	}
	return &share.SharedAudio{
		Snippet: &models.Snippet{ID: 1, MimeType: "audio/webm", FileName: "memo.webm"},
		Object:  obj,
	}, nil
}

func (s *stubShareService) RevokeShare(ctx context.Context, userID, linkID uint64) error {
	return s.revokeErr
}

type body struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func withUser(id uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextUserIDKey, id)
		c.Next()
	}
}

func newShareRouter(svc share.ShareService) *gin.Engine {
	cfg := &config.Config{}
	cfg.Server.PublicBaseURL = "https://voice.example.com/"
	h := NewShareHandler(svc, cfg)

	r := gin.New()
	r.GET("/api/v1/share/:id", h.AccessShare)
	r.GET("/api/v1/share/:id/audio", h.StreamSharedAudio)
	authed := r.Group("/api/v1", withUser(7))
	authed.POST("/share/:id", h.CreateShare)
	authed.DELETE("/share/:id", h.RevokeShare)
	return r
}

func TestAccessShare_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantData   string
	}{
		{"not found", xerr.ErrShareNotFound, http.StatusNotFound, xerr.ShareNotFoundCode, ""},
		{"orphaned link", xerr.ErrSnippetNotFound, http.StatusNotFound, xerr.SnippetNotFoundCode, ""},
		{"key required", xerr.ErrAccessKeyRequired, http.StatusUnauthorized, xerr.AccessKeyRequiredCode, `{"requires_key":true}`},
		{"expired", xerr.ErrShareExpired, http.StatusForbidden, xerr.ShareExpiredCode, `{"reason":"expired"}`},
		{"max plays", xerr.ErrShareMaxPlaysReached, http.StatusForbidden, xerr.ShareMaxPlaysCode, `{"reason":"max_plays_reached"}`},
		{"revoked", xerr.ErrShareRevoked, http.StatusForbidden, xerr.ShareRevokedCode, `{"reason":"revoked"}`},
		{"database", fmt.Errorf("%w: connection reset", xerr.ErrDatabaseError), http.StatusInternalServerError, xerr.DatabaseErrorCode, ""},
		{"storage", fmt.Errorf("%w: timeout", xerr.ErrStorageError), http.StatusInternalServerError, xerr.StorageErrorCode, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, xerr.InternalServerErrorCode, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newShareRouter(&stubShareService{accessErr: tt.err})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/share/abc?key=k", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			b := decode(t, w)
			assert.Equal(t, tt.wantCode, b.Code)
			if tt.wantData != "" {
				assert.JSONEq(t, tt.wantData, string(b.Data))
			}
		})
	}
}

func TestAccessShare_Success(t *testing.T) {
	svc := &stubShareService{}
	r := newShareRouter(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/share/abc?key=s3cret", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s3cret", svc.gotKey)
	assert.NotContains(t, w.Body.String(), "secret-key.mp3")

	var resp SharedSnippetResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, 4, resp.PlaysRemaining)
	assert.Equal(t, "Voice memo", resp.Snippet.Title)
	assert.True(t, resp.Snippet.CreatedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Contains(t, w.Body.String(), `"createdAt":"2024-01-02T03:04:05Z"`)
	assert.Equal(t, "https://voice.example.com/api/v1/share/abc/audio?ticket=tkt", resp.AudioURL)
}

func TestStreamSharedAudio(t *testing.T) {
	svc := &stubShareService{}
	r := newShareRouter(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/share/abc/audio?ticket=tkt", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tkt", svc.gotTicket)
	assert.Equal(t, "audio/webm", w.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, "0123456789", w.Body.String())

	r = newShareRouter(&stubShareService{audioErr: xerr.ErrShareMaxPlaysReached})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/share/abc/audio", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStreamSharedAudio_Range(t *testing.T) {
	r := newShareRouter(&stubShareService{seekable: true})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/share/abc/audio?ticket=tkt", nil)
	req.Header.Set("Range", "bytes=2-5")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 2-5/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "audio/webm", w.Header().Get("Content-Type"))
	assert.Equal(t, "2345", w.Body.String())
}

func TestCreateShare_Handler(t *testing.T) {
	svc := &stubShareService{}
	r := newShareRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/share/12", strings.NewReader(`{"maxPlays":3,"accessKey":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.createOpts.MaxPlays)
	assert.Equal(t, 3, *svc.createOpts.MaxPlays)
	assert.Nil(t, svc.createOpts.ExpiryDays)

	var view ShareLinkView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, "https://voice.example.com/share/tok", view.URL)

	// 空请求体使用默认值
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/share/12", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/share/not-a-number", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevokeShare_Handler(t *testing.T) {
	w := httptest.NewRecorder()
	newShareRouter(&stubShareService{}).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/share/3", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	newShareRouter(&stubShareService{revokeErr: xerr.ErrPermissionDenied}).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/share/3", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, xerr.PermissionDeniedCode, decode(t, w).Code)
}

type stubSnippetService struct {
	snippet.SnippetService
	got snippet.UploadInput
	err error
}

func (s *stubSnippetService) Upload(ctx context.Context, userID uint64, in snippet.UploadInput) (*models.Snippet, error) {
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Snippet{ID: 12, OwnerID: userID, Title: in.Title, BlobKey: "snippets/7/x.mp3"}, nil
}

func multipartUpload(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withFile {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="audio"; filename="memo.mp3"`)
		h.Set("Content-Type", "audio/mpeg")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("ID3 fake"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/snippets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadSnippet_Handler(t *testing.T) {
	cfg := &config.Config{}
	cfg.Upload.MaxFileSize = 1 << 20
	svc := &stubSnippetService{}
	h := NewSnippetHandler(svc, cfg)
	r := gin.New()
	r.POST("/api/v1/snippets", withUser(7), h.UploadSnippet)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, map[string]string{
		"title":       "Morning memo",
		"duration":    "41.6",
		"isPrivate":   "false",
		"isEncrypted": "true",
		"iv":          strings.Repeat("ab", 12),
		"authTag":     strings.Repeat("cd", 16),
	}, true))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 42, svc.got.Duration)
	require.NotNil(t, svc.got.IsPrivate)
	assert.False(t, *svc.got.IsPrivate)
	assert.True(t, svc.got.IsEncrypted)
	assert.Equal(t, "AES-256-GCM", svc.got.EncryptionAlgorithm)
	assert.Equal(t, "audio/mpeg", svc.got.ContentType)
	assert.NotContains(t, w.Body.String(), "snippets/7/x.mp3")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, map[string]string{"title": "Morning memo"}, false))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = xerr.NewCodeError(xerr.AudioTooLongCode, xerr.ErrAudioTooLong)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, map[string]string{"title": "Morning memo"}, true))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerr.AudioTooLongCode, decode(t, w).Code)
}
