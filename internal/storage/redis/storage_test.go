package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullsgame/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RoundTTL = time.Hour
	cfg.MaxRoundsPerRoom = 3

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) round(room model.RoomName, n int) model.RoundSummary {
	return model.RoundSummary{
		Room:         room,
		Round:        n,
		Outcome:      model.RoundOutcomeExhausted,
		Participants: []model.PlayerName{"alice", "bob"},
		Guesses:      map[model.PlayerName]int{"alice": 10, "bob": 10},
		StartedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		CompletedAt:  time.Date(2024, 1, 1, 12, n, 0, 0, time.UTC),
	}
}

func (s *StorageSuite) TestSaveAndListRounds() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", 1)))
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", 2)))

	rounds, err := s.storage.ListRounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Require().Len(rounds, 2)
	s.Equal(s.round("den", 1), rounds[0])
	s.Equal(2, rounds[1].Round)
}

func (s *StorageSuite) TestListRoundsLimit() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", 1)))
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", 2)))
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", 3)))

	rounds, err := s.storage.ListRounds(s.ctx, "den", 1)
	s.Require().NoError(err)
	s.Require().Len(rounds, 1)
	s.Equal(3, rounds[0].Round)
}

func (s *StorageSuite) TestArchiveIsTrimmed() {
	for n := 1; n <= 5; n++ {
		s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", n)))
	}

	rounds, err := s.storage.ListRounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Require().Len(rounds, 3)
	s.Equal(3, rounds[0].Round)
	s.Equal(5, rounds[2].Round)
}

func (s *StorageSuite) TestArchiveHasTTL() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", 1)))

	ttl := s.mini.TTL(roundsKey("den"))
	s.True(ttl > 0, "archive should expire")

	s.mini.FastForward(2 * time.Hour)
	rounds, err := s.storage.ListRounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *StorageSuite) TestListRoundsUnknownRoomIsEmpty() {
	rounds, err := s.storage.ListRounds(s.ctx, "nowhere", 0)
	s.Require().NoError(err)
	s.NotNil(rounds)
	s.Empty(rounds)
}

func (s *StorageSuite) TestDeleteRounds() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("den", 1)))
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("attic", 1)))

	s.Require().NoError(s.storage.DeleteRounds(s.ctx, "den"))
	s.False(s.mini.Exists(roundsKey("den")))
	s.True(s.mini.Exists(roundsKey("attic")))
}

func (s *StorageSuite) TestRoomNamesAreCaseSensitive() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, s.round("Den", 1)))

	rounds, err := s.storage.ListRounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *StorageSuite) TestNewRejectsBadURL() {
	cfg := DefaultConfig()
	cfg.URL = "not a url"
	_, err := New(cfg)
	s.Error(err)
}

func (s *StorageSuite) TestNewConnects() {
	cfg := DefaultConfig()
	cfg.URL = "redis://" + s.mini.Addr()
	store, err := New(cfg)
	s.Require().NoError(err)
	s.NoError(store.Close())
}
