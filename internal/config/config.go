package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mcoot/bullsgame/internal/model"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the server configuration
type Config struct {
	Port        int
	StorageType string
	RedisURL    string
	LogLevel    slog.Level
	Room        model.RoomConfig
}

// Load reads the configuration from the environment. Variables in the
// given env files (".env" by default) fill in anything not already set;
// missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset
// variables
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:        8080,
		StorageType: StorageMemory,
		LogLevel:    slog.LevelInfo,
		Room:        model.DefaultRoomConfig(),
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("PORT: invalid port %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("STORAGE_TYPE"); v != "" {
		cfg.StorageType = strings.ToLower(v)
	}
	switch cfg.StorageType {
	case StorageMemory:
	case StorageRedis:
		cfg.RedisURL = getenv("REDIS_URL")
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_TYPE: must be %q or %q, got %q", StorageMemory, StorageRedis, cfg.StorageType)
	}

	if v := getenv("BULLS_GUESS_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return Config{}, fmt.Errorf("BULLS_GUESS_LIMIT: must be a non-negative integer, got %q", v)
		}
		cfg.Room.GuessLimit = limit
	}

	if v := getenv("BULLS_UNIQUE_DIGITS"); v != "" {
		unique, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("BULLS_UNIQUE_DIGITS: %w", err)
		}
		cfg.Room.UniqueDigits = unique
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}
