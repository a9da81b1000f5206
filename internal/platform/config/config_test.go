package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DSN", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "", cfg.Database.DSN)
	assert.Equal(t, 60, cfg.Placement.PermanentExpiryDays)
	assert.Equal(t, 60*24*time.Hour, cfg.PermanentExpiry())
	assert.Equal(t, "placement", cfg.Redis.ChannelPrefix)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nplacement:\n  permanent_expiry_days: 30\nlog:\n  level: debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Placement.PermanentExpiryDays)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_RejectsOdinWithoutKey(t *testing.T) {
	t.Setenv("ODIN_BASE_URL", "http://odin.local")
	t.Setenv("ODIN_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
}
