package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, "default", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.CachePath)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `api_base_url: https://pm.example.test
theme: dark
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://pm.example.test", cfg.APIBaseURL)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NotEmpty(t, cfg.CachePath, "omitted keys keep their defaults")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &Config{
		APIBaseURL: "https://pm.example.test",
		WSURL:      "wss://pm.example.test/ws/notifications/",
		Theme:      "dark",
		CachePath:  "/tmp/pb-cache.db",
		LogLevel:   "warn",
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNotificationsURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "derived from http base",
			cfg:  Config{APIBaseURL: "http://localhost:8000"},
			want: "ws://localhost:8000/ws/notifications/",
		},
		{
			name: "derived from https base",
			cfg:  Config{APIBaseURL: "https://pm.example.test"},
			want: "wss://pm.example.test/ws/notifications/",
		},
		{
			name: "trailing slash on base",
			cfg:  Config{APIBaseURL: "http://localhost:8000/"},
			want: "ws://localhost:8000/ws/notifications/",
		},
		{
			name: "explicit ws_url wins",
			cfg: Config{
				APIBaseURL: "http://localhost:8000",
				WSURL:      "wss://push.example.test/feed",
			},
			want: "wss://push.example.test/feed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.NotificationsURL())
		})
	}
}
