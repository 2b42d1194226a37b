package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/storage"
)

// Storage is an in-memory round archive
type Storage struct {
	mu     sync.RWMutex
	rounds map[model.RoomName][]model.RoundSummary
}

// New creates an empty in-memory archive
func New() *Storage {
	return &Storage{
		rounds: make(map[model.RoomName][]model.RoundSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRound(ctx context.Context, summary model.RoundSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[summary.Room] = append(s.rounds[summary.Room], summary)
	return nil
}

func (s *Storage) ListRounds(ctx context.Context, room model.RoomName, limit int) ([]model.RoundSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := s.rounds[room]
	if limit > 0 && len(rounds) > limit {
		rounds = rounds[len(rounds)-limit:]
	}
	out := slices.Clone(rounds)
	if out == nil {
		out = []model.RoundSummary{}
	}
	return out, nil
}

func (s *Storage) DeleteRounds(ctx context.Context, room model.RoomName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, room)
	return nil
}
