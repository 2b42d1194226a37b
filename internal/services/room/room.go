package room

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/mcoot/bullsgame/internal/broadcast"
	"github.com/mcoot/bullsgame/internal/dependencies/clock"
	"github.com/mcoot/bullsgame/internal/dependencies/random"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/services/game"
)

// Recorder receives the summaries of completed rounds
type Recorder interface {
	Record(summary model.RoundSummary)
}

// Room runs one game session on its own goroutine. Every operation is a
// command on the room's inbox, so operations on a room apply one at a
// time in arrival order while separate rooms run independently.
//
// After each state change the room publishes the new state to its
// subscribers before replying to the caller.
type Room struct {
	name     model.RoomName
	session  *game.Session
	hub      *broadcast.Hub
	recorder Recorder
	logger   *slog.Logger

	inbox     chan command
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// command is one operation for the room goroutine. apply reports whether
// state changed; only changes are broadcast.
type command struct {
	player model.PlayerName
	apply  func() (bool, error)
	reply  chan result
}

type result struct {
	snapshot model.Snapshot
	err      error
}

// New creates a room in the lobby and starts its goroutine
func New(
	name model.RoomName,
	config model.RoomConfig,
	clock clock.Clock,
	random random.Random,
	recorder Recorder,
	logger *slog.Logger,
) *Room {
	logger = logger.With(slog.String("room", string(name)))
	r := &Room{
		name:     name,
		session:  game.NewSession(name, config, clock, random, logger),
		hub:      broadcast.NewHub(logger),
		recorder: recorder,
		logger:   logger,
		inbox:    make(chan command),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Name returns the room name
func (r *Room) Name() model.RoomName {
	return r.name
}

// Register adds a player and subscribes sub to the room's broadcasts in
// the same step, so the player's first broadcast is their own arrival
func (r *Room) Register(ctx context.Context, name model.PlayerName, sub broadcast.Subscriber) (model.Snapshot, error) {
	return r.do(ctx, name, func() (bool, error) {
		if err := r.session.Register(name); err != nil {
			return false, err
		}
		r.hub.Subscribe(sub, name)
		return true, nil
	})
}

// Leave removes a player and unsubscribes sub
func (r *Room) Leave(ctx context.Context, name model.PlayerName, sub broadcast.Subscriber) (model.Snapshot, error) {
	return r.do(ctx, name, func() (bool, error) {
		if err := r.session.Leave(name); err != nil {
			return false, err
		}
		r.hub.Unsubscribe(sub)
		return true, nil
	})
}

// ToggleReady flips a player's readiness
func (r *Room) ToggleReady(ctx context.Context, name model.PlayerName) (model.Snapshot, error) {
	return r.do(ctx, name, changed(func() error { return r.session.ToggleReady(name) }))
}

// ToggleObserver flips a player's role
func (r *Room) ToggleObserver(ctx context.Context, name model.PlayerName) (model.Snapshot, error) {
	return r.do(ctx, name, changed(func() error { return r.session.ToggleObserver(name) }))
}

// Validate stores a player's in-progress input
func (r *Room) Validate(ctx context.Context, name model.PlayerName, input string) (model.Snapshot, error) {
	return r.do(ctx, name, changed(func() error {
		_, err := r.session.Validate(name, input)
		return err
	}))
}

// Guess submits a player's guess
func (r *Room) Guess(ctx context.Context, name model.PlayerName, value string) (model.Snapshot, error) {
	return r.do(ctx, name, changed(func() error {
		_, err := r.session.Guess(name, value)
		return err
	}))
}

// SkipGuess spends one of a player's guesses
func (r *Room) SkipGuess(ctx context.Context, name model.PlayerName) (model.Snapshot, error) {
	return r.do(ctx, name, changed(func() error { return r.session.SkipGuess(name) }))
}

// Reset returns a finished room to the lobby. In the lobby it only
// acknowledges.
func (r *Room) Reset(ctx context.Context, name model.PlayerName) (model.Snapshot, error) {
	return r.do(ctx, name, func() (bool, error) {
		return r.session.Reset(name)
	})
}

// Snapshot returns the current state as seen by an observer
func (r *Room) Snapshot(ctx context.Context) (model.Snapshot, error) {
	return r.SnapshotFor(ctx, "")
}

// SnapshotFor returns the current state as seen by the named player,
// including their in-progress input
func (r *Room) SnapshotFor(ctx context.Context, name model.PlayerName) (model.Snapshot, error) {
	return r.do(ctx, name, func() (bool, error) { return false, nil })
}

// Info summarises the room for listings
func (r *Room) Info(ctx context.Context) (model.RoomInfo, error) {
	var info model.RoomInfo
	_, err := r.do(ctx, "", func() (bool, error) {
		info = model.RoomInfo{
			Name:        r.name,
			Phase:       r.session.Phase(),
			Players:     r.session.PlayerCount(),
			Connections: r.hub.Count(),
		}
		return false, nil
	})
	return info, err
}

// Close stops the room goroutine and disconnects its subscribers.
// Later operations fail with model.ErrRoomClosed.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.done) })
	<-r.stopped
}

// Done is closed once the room has stopped
func (r *Room) Done() <-chan struct{} {
	return r.stopped
}

func changed(fn func() error) func() (bool, error) {
	return func() (bool, error) {
		if err := fn(); err != nil {
			return false, err
		}
		return true, nil
	}
}

// do hands a command to the room goroutine and waits for its result.
// ctx only bounds the wait for the room to accept the command. An
// accepted command always runs, and its result is always returned.
func (r *Room) do(ctx context.Context, player model.PlayerName, apply func() (bool, error)) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}

	cmd := command{player: player, apply: apply, reply: make(chan result, 1)}
	select {
	case r.inbox <- cmd:
	case <-r.done:
		return model.Snapshot{}, fmt.Errorf("%w: %s", model.ErrRoomClosed, r.name)
	case <-ctx.Done():
		return model.Snapshot{}, ctx.Err()
	}

	// The room goroutine replies to every command it takes from the inbox
	res := <-cmd.reply
	return res.snapshot, res.err
}

func (r *Room) run() {
	defer close(r.stopped)
	r.logger.Info("room started")

	for {
		select {
		case cmd := <-r.inbox:
			cmd.reply <- r.execute(cmd)
		case <-r.done:
			r.hub.Close()
			r.logger.Info("room stopped", slog.Int("rounds", r.session.Round()))
			return
		}
	}
}

// execute applies one command. A failed command leaves state untouched
// and only its caller hears about it.
func (r *Room) execute(cmd command) (res result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic in room command",
				slog.Any("error", p),
				slog.String("stack", string(debug.Stack())))
			res = r.failure(cmd.player, fmt.Errorf("internal error: %v", p))
		}
	}()

	changed, err := cmd.apply()
	if err != nil {
		return r.failure(cmd.player, err)
	}

	view := r.session.View()
	if changed {
		sent := r.hub.Publish(view)
		r.logger.Debug("snapshot published",
			slog.String("phase", string(view.Phase)),
			slog.Int("recipients", sent))

		if summary, ok := r.session.TakeCompletedRound(); ok && r.recorder != nil {
			r.recorder.Record(summary)
		}
	}

	return result{snapshot: view.SnapshotFor(cmd.player)}
}

func (r *Room) failure(player model.PlayerName, err error) result {
	snapshot := r.session.View().SnapshotFor(player)
	snapshot.Message = err.Error()
	return result{snapshot: snapshot, err: err}
}
