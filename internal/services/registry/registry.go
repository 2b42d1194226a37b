package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/bullsgame/internal/dependencies/clock"
	"github.com/mcoot/bullsgame/internal/dependencies/random"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/services/room"
)

// Archive records completed rounds and forgets rooms that are destroyed
type Archive interface {
	room.Recorder
	Forget(name model.RoomName)
}

type entry struct {
	room *room.Room
	refs int
}

// Registry maps room names to live rooms. A room exists while at least
// one connection holds a reference to it: the first Acquire creates it
// and the last Release destroys it.
type Registry struct {
	config  model.RoomConfig
	clock   clock.Clock
	random  random.Random
	archive Archive
	logger  *slog.Logger

	mu     sync.Mutex
	rooms  map[model.RoomName]*entry
	closed bool
}

// New creates an empty registry. Rooms it creates use config.
func New(
	config model.RoomConfig,
	clock clock.Clock,
	random random.Random,
	archive Archive,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		config:  config,
		clock:   clock,
		random:  random,
		archive: archive,
		logger:  logger.With(slog.String("component", "registry")),
		rooms:   make(map[model.RoomName]*entry),
	}
}

// Acquire returns the named room, creating it if needed, and takes a
// reference on it. Every successful Acquire must be paired with a Release.
func (r *Registry) Acquire(name model.RoomName) (*room.Room, error) {
	if err := model.ValidateName(string(name)); err != nil {
		return nil, fmt.Errorf("room name: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("%w: %s", model.ErrRoomClosed, name)
	}

	e, ok := r.rooms[name]
	if !ok {
		e = &entry{room: room.New(name, r.config, r.clock, r.random, r.archive, r.logger)}
		r.rooms[name] = e
		r.logger.Info("room created", slog.String("room", string(name)))
	}
	e.refs++
	return e.room, nil
}

// Release drops a reference taken by Acquire. The room is destroyed when
// its last reference goes.
//
// Destruction happens under the lock: the old room is stopped and its
// archive deletion queued before a room with the same name can exist.
func (r *Registry) Release(name model.RoomName) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[name]
	if !ok {
		r.logger.Warn("release of unknown room", slog.String("room", string(name)))
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}

	e.room.Close()
	if r.archive != nil {
		r.archive.Forget(name)
	}
	delete(r.rooms, name)
	r.logger.Info("room destroyed", slog.String("room", string(name)))
}

// Get returns a live room without taking a reference
func (r *Registry) Get(name model.RoomName) (*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrRoomNotFound, name)
	}
	return e.room, nil
}

// List summarises every live room, sorted by name. Rooms destroyed while
// listing are skipped.
func (r *Registry) List(ctx context.Context) ([]model.RoomInfo, error) {
	r.mu.Lock()
	rooms := make([]*room.Room, 0, len(r.rooms))
	for _, e := range r.rooms {
		rooms = append(rooms, e.room)
	}
	r.mu.Unlock()

	infos := make([]model.RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		info, err := rm.Info(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b model.RoomInfo) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return infos, nil
}

// Len returns the number of live rooms
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Close destroys every room and refuses further Acquires
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	rooms := r.rooms
	r.rooms = make(map[model.RoomName]*entry)
	r.mu.Unlock()

	for _, e := range rooms {
		e.room.Close()
	}
	r.logger.Info("registry closed", slog.Int("rooms", len(rooms)))
}
