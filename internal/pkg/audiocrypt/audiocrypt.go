// Package audiocrypt 录音端到端加密，只支持 AES-256-GCM（12 字节 nonce，16 字节 tag）。
// 服务端只保存算法标识、nonce 和 tag，密钥始终留在客户端。
package audiocrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	Algorithm = "AES-256-GCM"
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var (
	ErrInvalidKey      = errors.New("audiocrypt: 密钥必须为 32 字节")
	// 元数据错误会透传给客户端，保持英文
	ErrInvalidMetadata = errors.New("audiocrypt: invalid encryption metadata")
	ErrAuthentication  = errors.New("audiocrypt: 数据校验失败")
)

// Sealed 加密结果，Ciphertext 不包含 tag
type Sealed struct {
	Ciphertext []byte
	IV         string // hex
	AuthTag    string // hex
}

// NewKey 生成随机密钥
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt 使用随机 nonce 加密音频数据，tag 与密文分开返回
func Encrypt(key, plaintext []byte) (*Sealed, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("audiocrypt: 生成 nonce 失败: %w", err)
	}

	out := gcm.Seal(nil, nonce, plaintext, nil)
	ct, tag := out[:len(out)-TagSize], out[len(out)-TagSize:]
	return &Sealed{
		Ciphertext: ct,
		IV:         hex.EncodeToString(nonce),
		AuthTag:    hex.EncodeToString(tag),
	}, nil
}

// Decrypt 校验 tag 后返回明文
func Decrypt(key, ciphertext []byte, ivHex, tagHex string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, tag, err := decodeMetadata(ivHex, tagHex)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(ciphertext)+TagSize)
	buf = append(buf, ciphertext...)
	buf = append(buf, tag...)
	plain, err := gcm.Open(nil, nonce, buf, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plain, nil
}

// ValidateMetadata 检查上传时声明的加密元数据格式，服务端不做解密
func ValidateMetadata(algorithm, ivHex, tagHex string) error {
	if !strings.EqualFold(strings.TrimSpace(algorithm), Algorithm) {
		return fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidMetadata, algorithm)
	}
	_, _, err := decodeMetadata(ivHex, tagHex)
	return err
}

func decodeMetadata(ivHex, tagHex string) ([]byte, []byte, error) {
	nonce, err := hex.DecodeString(ivHex)
	if err != nil || len(nonce) != NonceSize {
		return nil, nil, fmt.Errorf("%w: iv must be %d bytes hex", ErrInvalidMetadata, NonceSize)
	}
	tag, err := hex.DecodeString(tagHex)
	if err != nil || len(tag) != TagSize {
		return nil, nil, fmt.Errorf("%w: auth tag must be %d bytes hex", ErrInvalidMetadata, TagSize)
	}
	return nonce, tag, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
