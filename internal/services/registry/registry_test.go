package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullsgame/internal/dependencies/mocks"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/testutil"
)

type archive struct {
	mu        sync.Mutex
	recorded  []model.RoundSummary
	forgotten []model.RoomName

	// When set, Forget signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (a *archive) Record(summary model.RoundSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorded = append(a.recorded, summary)
}

func (a *archive) Forget(name model.RoomName) {
	if a.entered != nil {
		close(a.entered)
		<-a.release
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.forgotten = append(a.forgotten, name)
}

func (a *archive) forgottenRooms() []model.RoomName {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.RoomName(nil), a.forgotten...)
}

type nopSubscriber struct{}

func (nopSubscriber) Deliver(model.Snapshot) error { return nil }
func (nopSubscriber) Close()                       {}

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	archive  *archive
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.archive = &archive{}
	s.registry = New(
		model.DefaultRoomConfig(),
		mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		mocks.NewMockRandom(),
		s.archive,
		testutil.NopLogger(),
	)
}

func (s *RegistrySuite) TearDownTest() {
	s.registry.Close()
}

func (s *RegistrySuite) TestAcquireCreatesOnce() {
	first, err := s.registry.Acquire("den")
	s.Require().NoError(err)
	second, err := s.registry.Acquire("den")
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(1, s.registry.Len())
}

func (s *RegistrySuite) TestRoomNamesAreCaseSensitive() {
	lower, err := s.registry.Acquire("den")
	s.Require().NoError(err)
	upper, err := s.registry.Acquire("Den")
	s.Require().NoError(err)

	s.NotSame(lower, upper)
	s.Equal(2, s.registry.Len())
}

func (s *RegistrySuite) TestAcquireRejectsInvalidName() {
	_, err := s.registry.Acquire("   ")
	s.ErrorIs(err, model.ErrInvalidName)
	s.Zero(s.registry.Len())
}

func (s *RegistrySuite) TestLastReleaseDestroysRoom() {
	rm, err := s.registry.Acquire("den")
	s.Require().NoError(err)
	_, err = s.registry.Acquire("den")
	s.Require().NoError(err)

	s.registry.Release("den")
	_, err = s.registry.Get("den")
	s.Require().NoError(err)
	s.Empty(s.archive.forgottenRooms())

	s.registry.Release("den")
	_, err = s.registry.Get("den")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Equal([]model.RoomName{"den"}, s.archive.forgottenRooms())

	_, err = rm.Snapshot(s.ctx)
	s.ErrorIs(err, model.ErrRoomClosed)
}

func (s *RegistrySuite) TestRecreatedRoomWaitsForArchiveDeletion() {
	_, err := s.registry.Acquire("den")
	s.Require().NoError(err)
	s.archive.entered = make(chan struct{})
	s.archive.release = make(chan struct{})

	released := make(chan struct{})
	go func() {
		defer close(released)
		s.registry.Release("den")
	}()
	<-s.archive.entered

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		_, err := s.registry.Acquire("den")
		s.NoError(err)
	}()

	s.Never(func() bool {
		select {
		case <-acquired:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "the old archive must be forgotten before the name is reused")

	close(s.archive.release)
	<-released
	<-acquired
	s.Equal([]model.RoomName{"den"}, s.archive.forgottenRooms())
	s.Equal(1, s.registry.Len())
}

func (s *RegistrySuite) TestRoomIsRecreatedFresh() {
	rm, err := s.registry.Acquire("den")
	s.Require().NoError(err)
	_, err = rm.Register(s.ctx, "alice", nopSubscriber{})
	s.Require().NoError(err)
	s.registry.Release("den")

	fresh, err := s.registry.Acquire("den")
	s.Require().NoError(err)

	s.NotSame(rm, fresh)
	snapshot, err := fresh.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Empty(snapshot.Players)
	s.Empty(snapshot.Scores)
}

func (s *RegistrySuite) TestReleaseUnknownRoomIsHarmless() {
	s.registry.Release("nowhere")
	s.Zero(s.registry.Len())
}

func (s *RegistrySuite) TestList() {
	for _, name := range []model.RoomName{"zoo", "attic", "den"} {
		_, err := s.registry.Acquire(name)
		s.Require().NoError(err)
	}
	den, err := s.registry.Get("den")
	s.Require().NoError(err)
	_, err = den.Register(s.ctx, "alice", nopSubscriber{})
	s.Require().NoError(err)

	infos, err := s.registry.List(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(infos, 3)
	s.Equal(model.RoomName("attic"), infos[0].Name)
	s.Equal(model.RoomName("den"), infos[1].Name)
	s.Equal(model.RoomName("zoo"), infos[2].Name)
	s.Equal(1, infos[1].Players)
	s.Equal(1, infos[1].Connections)
	s.Equal(model.PhaseLobby, infos[0].Phase)
}

func (s *RegistrySuite) TestConcurrentAcquireRelease() {
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rm, err := s.registry.Acquire("den")
			s.NoError(err)
			if err == nil {
				_, _ = rm.Info(s.ctx)
				s.registry.Release("den")
			}
		}()
	}
	wg.Wait()

	s.Zero(s.registry.Len())
}

func (s *RegistrySuite) TestCloseRefusesAcquire() {
	rm, err := s.registry.Acquire("den")
	s.Require().NoError(err)

	s.registry.Close()

	_, err = s.registry.Acquire("den")
	s.ErrorIs(err, model.ErrRoomClosed)
	_, err = rm.Snapshot(s.ctx)
	s.ErrorIs(err, model.ErrRoomClosed)
}
