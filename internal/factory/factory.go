package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/bullsgame/internal/dependencies/clock"
	"github.com/mcoot/bullsgame/internal/dependencies/random"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/services/archive"
	"github.com/mcoot/bullsgame/internal/services/registry"
	"github.com/mcoot/bullsgame/internal/storage"
	"github.com/mcoot/bullsgame/internal/storage/memory"
	redisstorage "github.com/mcoot/bullsgame/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Recorder *archive.Recorder
	Registry *registry.Registry

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Room configures every room the registry creates
	// If nil, defaults to model.DefaultRoomConfig()
	Room *model.RoomConfig
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	var closers []io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	roomCfg := model.DefaultRoomConfig()
	if cfg.Room != nil {
		roomCfg = *cfg.Room
	}

	app := newWithDependencies(store, clock.New(), random.New(), roomCfg, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, roomCfg model.RoomConfig, logger *slog.Logger) *App {
	recorder := archive.NewRecorder(store, logger)
	reg := registry.New(roomCfg, clk, rnd, recorder, logger)

	return &App{
		Storage:  store,
		Clock:    clk,
		Random:   rnd,
		Recorder: recorder,
		Registry: reg,
	}
}

// Close destroys every room, then flushes pending round writes and
// closes storage
func (a *App) Close() error {
	a.Registry.Close()
	a.Recorder.Close()

	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
