package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile_Defaults(t *testing.T) {
	path := writeConfig(t, "mysql:\n  dsn: root:root@tcp(localhost:3306)/voice\n")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Share.DefaultMaxPlays)
	assert.Equal(t, 100, cfg.Share.MaxMaxPlays)
	assert.Equal(t, 7, cfg.Share.DefaultExpiryDays)
	assert.Equal(t, 30, cfg.Share.MaxExpiryDays)
	assert.Equal(t, int64(25*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, 300, cfg.Upload.MaxAudioDuration)
	assert.Equal(t, 15*time.Minute, cfg.JWT.PlaybackTicketTTL)
	assert.Equal(t, "minio", cfg.Storage.Type)
}

func TestLoadConfigFile_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
  public_base_url: https://voice.example.com
share:
  default_max_plays: 3
rate_limit:
  window: 30s
`)
	t.Setenv("SECUREVOICE_SHARE_DEFAULT_EXPIRY_DAYS", "14")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "https://voice.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, 3, cfg.Share.DefaultMaxPlays)
	assert.Equal(t, 14, cfg.Share.DefaultExpiryDays)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "default max plays above cap", body: "share:\n  default_max_plays: 500\n", wantErr: true},
		{name: "zero expiry", body: "share:\n  default_expiry_days: 0\n", wantErr: true},
		{name: "unknown storage", body: "storage:\n  type: ftp\n", wantErr: true},
		{name: "oss storage", body: "storage:\n  type: aliyun_oss\n", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
