package audiocrypt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	audio := bytes.Repeat([]byte("OggS"), 1024)

	sealed, err := Encrypt(key, audio)
	require.NoError(t, err)
	assert.Len(t, sealed.Ciphertext, len(audio))
	assert.NoError(t, ValidateMetadata(Algorithm, sealed.IV, sealed.AuthTag))

	plain, err := Decrypt(key, sealed.Ciphertext, sealed.IV, sealed.AuthTag)
	require.NoError(t, err)
	assert.Equal(t, audio, plain)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	sealed, err := Encrypt(key, []byte("hello voice"))
	require.NoError(t, err)

	sealed.Ciphertext[0] ^= 0xff
	_, err = Decrypt(key, sealed.Ciphertext, sealed.IV, sealed.AuthTag)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestDecrypt_WrongKey(t *testing.T) {
	key, _ := NewKey()
	other, _ := NewKey()
	sealed, err := Encrypt(key, []byte("hello voice"))
	require.NoError(t, err)

	_, err = Decrypt(other, sealed.Ciphertext, sealed.IV, sealed.AuthTag)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestValidateMetadata(t *testing.T) {
	iv := strings.Repeat("ab", NonceSize)
	tag := strings.Repeat("cd", TagSize)

	tests := []struct {
		name      string
		algorithm string
		iv        string
		tag       string
		ok        bool
	}{
		{"valid", "AES-256-GCM", iv, tag, true},
		{"lower case label", "aes-256-gcm", iv, tag, true},
		{"cbc rejected", "AES-256-CBC", iv, tag, false},
		{"placeholder tag", "AES-256-GCM", iv, "placeholder", false},
		{"short iv", "AES-256-GCM", "abcd", tag, false},
		{"cbc sized iv", "AES-256-GCM", strings.Repeat("ab", 16), tag, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.algorithm, tt.iv, tt.tag)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidMetadata)
			}
		})
	}
}

func TestEncrypt_InvalidKey(t *testing.T) {
	_, err := Encrypt([]byte("short"), []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
