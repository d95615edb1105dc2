package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ShareTokenBytes 分享 token 的随机字节数，hex 编码后为 32 个字符
const ShareTokenBytes = 16

// GenerateShareToken 生成不可猜测的分享 token
func GenerateShareToken() (string, error) {
	b := make([]byte, ShareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
