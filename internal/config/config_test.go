package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bullsgame/internal/model"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, model.DefaultRoomConfig(), cfg.Room)
}

func TestFromEnv(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"PORT":                "9000",
		"STORAGE_TYPE":        "Redis",
		"REDIS_URL":           "redis://localhost:6379/0",
		"BULLS_GUESS_LIMIT":   "0",
		"BULLS_UNIQUE_DIGITS": "true",
		"LOG_LEVEL":           "debug",
	}))

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, model.RoomConfig{GuessLimit: 0, UniqueDigits: true}, cfg.Room)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad port", map[string]string{"PORT": "http"}, "PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT"},
		{"unknown storage", map[string]string{"STORAGE_TYPE": "disk"}, "STORAGE_TYPE"},
		{"redis without url", map[string]string{"STORAGE_TYPE": "redis"}, "REDIS_URL"},
		{"negative guess limit", map[string]string{"BULLS_GUESS_LIMIT": "-1"}, "BULLS_GUESS_LIMIT"},
		{"bad unique digits", map[string]string{"BULLS_UNIQUE_DIGITS": "sometimes"}, "BULLS_UNIQUE_DIGITS"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.vars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BULLS_GUESS_LIMIT=3\n"), 0o600))
	t.Setenv("BULLS_GUESS_LIMIT", "")
	require.NoError(t, os.Unsetenv("BULLS_GUESS_LIMIT"))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Room.GuessLimit)
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BULLS_GUESS_LIMIT=3\n"), 0o600))
	t.Setenv("BULLS_GUESS_LIMIT", "7")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Room.GuessLimit)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	t.Setenv("PORT", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.NoError(t, err)
}
