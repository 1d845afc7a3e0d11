package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadFile_Defaults без файла и переменных окружения действуют значения по умолчанию
func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:8080/", cfg.App.BaseURL)
	assert.Equal(t, 5, cfg.Links.DefaultVisitLimit)
	assert.Equal(t, 24*time.Hour, cfg.Links.DefaultTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Links.MaxTTL)
	assert.Equal(t, time.Hour, cfg.Links.SweepInterval)
	assert.Equal(t, "links:events", cfg.Redis.Channel)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.BurstSize)
	assert.False(t, cfg.DB.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Auth.APIKeys)
}

// TestLoadFile_FromFile значения читаются из .env файла
func TestLoadFile_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9000\n" +
		"APP_BASE_URL=https://promo-z.ru\n" +
		"LINK_VISIT_LIMIT=3\n" +
		"LINK_TTL=2h\n" +
		"SWEEP_INTERVAL=15m\n" +
		"DB_HOST=db\n" +
		"API_KEYS=k1:alice, k2:bob\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "https://promo-z.ru/", cfg.App.BaseURL)
	assert.Equal(t, 3, cfg.Links.DefaultVisitLimit)
	assert.Equal(t, 2*time.Hour, cfg.Links.DefaultTTL)
	assert.Equal(t, 15*time.Minute, cfg.Links.SweepInterval)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, map[string]string{"k1": "alice", "k2": "bob"}, cfg.Auth.APIKeys)
}

// TestLoadFile_EnvOverridesFile переменные окружения важнее файла
func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LINK_VISIT_LIMIT=3\n"), 0o600))
	t.Setenv("LINK_VISIT_LIMIT", "7")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Links.DefaultVisitLimit)
	assert.True(t, cfg.Redis.Enabled())
}

// TestLoadFile_Invalid невалидные значения по умолчанию отклоняются
func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "нулевой лимит", key: "LINK_VISIT_LIMIT", val: "0"},
		{name: "отрицательный TTL", key: "LINK_TTL", val: "-1h"},
		{name: "максимальный TTL меньше обычного", key: "LINK_MAX_TTL", val: "1h"},
		{name: "нулевой интервал очистки", key: "SWEEP_INTERVAL", val: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestParseAPIKeys(t *testing.T) {
	assert.Empty(t, parseAPIKeys(""))
	assert.Equal(t, map[string]string{"a": "b"}, parseAPIKeys("a:b,broken, "))
	assert.Equal(t, map[string]string{"a": "b:c"}, parseAPIKeys("a:b:c"))
}
