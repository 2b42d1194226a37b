package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/storage"
)

// Storage is a Redis-backed round archive. Each room's rounds live in a
// list, oldest first.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New connects to Redis and verifies the connection
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRound(ctx context.Context, summary model.RoundSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	key := roundsKey(summary.Room)

	// Append, trim and refresh expiry together
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.cfg.MaxRoundsPerRoom > 0 {
		pipe.LTrim(ctx, key, int64(-s.cfg.MaxRoundsPerRoom), -1)
	}
	if s.cfg.RoundTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.RoundTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRounds(ctx context.Context, room model.RoomName, limit int) ([]model.RoundSummary, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	values, err := s.client.LRange(ctx, roundsKey(room), start, -1).Result()
	if err != nil {
		return nil, err
	}

	rounds := make([]model.RoundSummary, 0, len(values))
	for _, val := range values {
		var summary model.RoundSummary
		if err := json.Unmarshal([]byte(val), &summary); err != nil {
			return nil, fmt.Errorf("decode round summary: %w", err)
		}
		rounds = append(rounds, summary)
	}
	return rounds, nil
}

func (s *Storage) DeleteRounds(ctx context.Context, room model.RoomName) error {
	return s.client.Del(ctx, roundsKey(room)).Err()
}
