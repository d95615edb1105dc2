package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID uint64 `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken 用于生成登录用的 JWT Token
// secretKey: 用于签名的密钥
// expiresIn: Token 的有效期
// issuer: Token 的签发者
func GenerateToken(userID uint64, name, email, role, secretKey, issuer string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  []string{"users"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken 校验签名和有效期，返回登录 Claims
func ParseToken(tokenString, secretKey string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenString, secretKey, claims, "users"); err != nil {
		return nil, err
	}
	return claims, nil
}

// PlaybackClaims 播放票据：访问分享元数据时签发，凭票拉取音频不再重复计数
type PlaybackClaims struct {
	ShareID   string `json:"share_id"`
	SnippetID uint64 `json:"snippet_id"`
	jwt.RegisteredClaims
}

const playbackAudience = "playback"

// GeneratePlaybackTicket 签发播放票据，有效期不会超过分享链接本身的过期时间
func GeneratePlaybackTicket(shareID string, snippetID uint64, secretKey, issuer string, ttl time.Duration, notAfter time.Time) (string, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	if notAfter.Before(expiresAt) {
		expiresAt = notAfter
	}
	claims := &PlaybackClaims{
		ShareID:   shareID,
		SnippetID: snippetID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   shareID,
			Audience:  []string{playbackAudience},
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign playback ticket: %w", err)
	}
	return token, nil
}

// ParsePlaybackTicket 校验播放票据
func ParsePlaybackTicket(ticket, secretKey string) (*PlaybackClaims, error) {
	claims := &PlaybackClaims{}
	if err := parse(ticket, secretKey, claims, playbackAudience); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(tokenString, secretKey string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithAudience(audience))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
