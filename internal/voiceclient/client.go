// Package voiceclient 是 voicectl 使用的 HTTP 客户端
package voiceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/audiocrypt"
)

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%d message=%s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type EncryptionDetails struct {
	Algorithm string `json:"algorithm"`
	IV        string `json:"iv"`
	AuthTag   string `json:"authTag"`
}

type Snippet struct {
	ID          uint64             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Duration    int                `json:"duration"`
	MimeType    string             `json:"mimeType"`
	IsPrivate   bool               `json:"isPrivate"`
	IsEncrypted bool               `json:"isEncrypted"`
	Encryption  *EncryptionDetails `json:"encryptionDetails,omitempty"`
}

type ShareLink struct {
	ID          uint64    `json:"id"`
	ShareID     string    `json:"shareId"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expiresAt"`
	MaxPlays    int       `json:"maxPlays"`
	RequiresKey bool      `json:"requiresKey"`
}

type SharedSnippet struct {
	Snippet        Snippet   `json:"snippet"`
	PlaysRemaining int       `json:"playsRemaining"`
	ExpiresAt      time.Time `json:"expiresAt"`
	AudioURL       string    `json:"audioUrl"`
}

type ShareOptions struct {
	MaxPlays   *int    `json:"maxPlays,omitempty"`
	ExpiryDays *int    `json:"expiryDays,omitempty"`
	AccessKey  *string `json:"accessKey,omitempty"`
}

// UploadRequest Sealed 非空时上传的是密文，同时提交 iv 和 authTag
type UploadRequest struct {
	FileName    string
	ContentType string
	Data        []byte
	Title       string
	Description string
	Duration    float64
	IsPrivate   bool
	Sealed      *audiocrypt.Sealed
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, httpClient: httpClient}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

// Login 返回登录 token
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "application/json", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Upload(ctx context.Context, req UploadRequest) (*Snippet, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       req.Title,
		"description": req.Description,
		"isPrivate":   strconv.FormatBool(req.IsPrivate),
	}
	if req.Duration > 0 {
		fields["duration"] = strconv.FormatFloat(req.Duration, 'f', -1, 64)
	}
	data := req.Data
	contentType := req.ContentType
	if req.Sealed != nil {
		data = req.Sealed.Ciphertext
		contentType = "application/octet-stream"
		fields["isEncrypted"] = "true"
		fields["algorithm"] = audiocrypt.Algorithm
		fields["iv"] = req.Sealed.IV
		fields["authTag"] = req.Sealed.AuthTag
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	part, err := w.CreatePart(fileHeader("audio", req.FileName, contentType))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out Snippet
	if err := c.do(ctx, http.MethodPost, "/api/v1/snippets", w.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateShare(ctx context.Context, snippetID uint64, opts ShareOptions) (*ShareLink, error) {
	body, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	var out ShareLink
	p := "/api/v1/share/" + strconv.FormatUint(snippetID, 10)
	if err := c.do(ctx, http.MethodPost, p, "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AccessShare 每次成功调用都会消耗一次播放次数
func (c *Client) AccessShare(ctx context.Context, shareID, accessKey string) (*SharedSnippet, error) {
	p := "/api/v1/share/" + url.PathEscape(shareID)
	if accessKey != "" {
		p += "?key=" + url.QueryEscape(accessKey)
	}
	var out SharedSnippet
	if err := c.do(ctx, http.MethodGet, p, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download 读取 AccessShare 返回的 audioUrl
func (c *Client) Download(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

// Fetch 访问分享链接并下载音频，decryptKey 非空且录音已加密时返回明文
func (c *Client) Fetch(ctx context.Context, shareID, accessKey string, decryptKey []byte) (*SharedSnippet, []byte, error) {
	shared, err := c.AccessShare(ctx, shareID, accessKey)
	if err != nil {
		return nil, nil, err
	}
	data, err := c.Download(ctx, shared.AudioURL)
	if err != nil {
		return shared, nil, err
	}
	if !shared.Snippet.IsEncrypted || len(decryptKey) == 0 {
		return shared, data, nil
	}
	enc := shared.Snippet.Encryption
	if enc == nil {
		return shared, nil, fmt.Errorf("snippet %d is encrypted but has no encryption details", shared.Snippet.ID)
	}
	plain, err := audiocrypt.Decrypt(decryptKey, data, enc.IV, enc.AuthTag)
	if err != nil {
		return shared, nil, err
	}
	return shared, plain, nil
}

// ShareIDFromURL 接受完整分享链接或裸 token
func ShareIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return path.Base(strings.TrimRight(u.Path, "/"))
	}
	return raw
}

func (c *Client) do(ctx context.Context, method, p, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+p, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(env.Data, out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env); err == nil {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
		apiErr.Data = env.Data
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
