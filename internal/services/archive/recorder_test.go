package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/storage/memory"
	"github.com/mcoot/bullsgame/internal/testutil"
)

// failingStorage rejects every write
type failingStorage struct {
	*memory.Storage
}

func (f failingStorage) SaveRound(context.Context, model.RoundSummary) error {
	return errors.New("disk on fire")
}

type RecorderSuite struct {
	suite.Suite
	storage  *memory.Storage
	recorder *Recorder
	ctx      context.Context
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.storage = memory.New()
	s.recorder = NewRecorder(s.storage, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *RecorderSuite) TearDownTest() {
	s.recorder.Close()
}

func (s *RecorderSuite) summary(room model.RoomName, round int) model.RoundSummary {
	return model.RoundSummary{Room: room, Round: round, Outcome: model.RoundOutcomeWon, Winner: "alice"}
}

func (s *RecorderSuite) TestRecordIsWrittenInOrder() {
	for n := 1; n <= 3; n++ {
		s.recorder.Record(s.summary("den", n))
	}
	s.Require().NoError(s.recorder.Flush(s.ctx))

	rounds, err := s.recorder.Rounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Require().Len(rounds, 3)
	for i, r := range rounds {
		s.Equal(i+1, r.Round)
	}
}

func (s *RecorderSuite) TestForgetDeletesAfterEarlierWrites() {
	s.recorder.Record(s.summary("den", 1))
	s.recorder.Forget("den")
	s.recorder.Record(s.summary("den", 1))
	s.Require().NoError(s.recorder.Flush(s.ctx))

	rounds, err := s.recorder.Rounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Len(rounds, 1, "only the write queued after Forget survives")
}

func (s *RecorderSuite) TestCloseDrainsQueue() {
	s.recorder.Record(s.summary("den", 1))
	s.recorder.Close()

	rounds, err := s.storage.ListRounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Len(rounds, 1)
}

func (s *RecorderSuite) TestRecordAfterCloseIsDropped() {
	s.recorder.Close()
	s.recorder.Record(s.summary("den", 1))
	s.NoError(s.recorder.Flush(s.ctx))

	rounds, err := s.storage.ListRounds(s.ctx, "den", 0)
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *RecorderSuite) TestStorageErrorsAreLogged() {
	logger, logs := testutil.CaptureLogger()
	recorder := NewRecorder(failingStorage{s.storage}, logger)
	defer recorder.Close()

	recorder.Record(s.summary("den", 1))
	s.Require().NoError(recorder.Flush(s.ctx))

	s.Contains(logs.String(), "failed to save round")
	s.Contains(logs.String(), "disk on fire")
}

func (s *RecorderSuite) TestFlushHonoursContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	// Either outcome is fine for an idle recorder, but it must not hang
	err := s.recorder.Flush(ctx)
	if err != nil {
		s.ErrorIs(err, context.Canceled)
	}
}
