package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/mcoot/bullsgame/internal/api/apierr"
	"github.com/mcoot/bullsgame/internal/broadcast"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/services/room"
)

// Rooms hands out counted references to rooms
type Rooms interface {
	Acquire(name model.RoomName) (*room.Room, error)
	Release(name model.RoomName)
}

type state int

const (
	stateUnbound state = iota
	stateJoining
	stateBound
)

func (s state) String() string {
	switch s {
	case stateJoining:
		return "joining"
	case stateBound:
		return "bound"
	default:
		return "unbound"
	}
}

// Handler tracks one connection's place in the room lifecycle:
// unbound, then joining a room, then bound to it as a named player.
// A connection holds a room reference while joining or bound and
// releases it on every path back to unbound.
//
// Handler is not safe for concurrent use; each connection drives its
// own handler from a single goroutine.
type Handler struct {
	rooms   Rooms
	sub     broadcast.Subscriber
	limiter *rate.Limiter
	logger  *slog.Logger

	state    state
	roomName model.RoomName
	room     *room.Room
	player   model.PlayerName
}

// NewHandler creates an unbound handler. sub receives the room's
// broadcasts once bound. A nil limiter disables rate limiting.
func NewHandler(rooms Rooms, sub broadcast.Subscriber, limiter *rate.Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		rooms:   rooms,
		sub:     sub,
		limiter: limiter,
		logger:  logger,
	}
}

// Bound reports the room and player this connection is bound to
func (h *Handler) Bound() (model.RoomName, model.PlayerName, bool) {
	return h.roomName, h.player, h.state == stateBound
}

// Handle processes one request and returns its reply
func (h *Handler) Handle(ctx context.Context, req Request) Reply {
	if h.limiter != nil && !h.limiter.Allow() {
		return h.fail(ctx, req.Ref, model.ErrRateLimited)
	}

	switch req.Type {
	case TypeJoin:
		var payload JoinPayload
		if err := decode(req.Payload, &payload); err != nil {
			return h.fail(ctx, req.Ref, err)
		}
		return h.join(ctx, req.Ref, payload.RoomName)

	case TypeRegister:
		var payload RegisterPayload
		if err := decode(req.Payload, &payload); err != nil {
			return h.fail(ctx, req.Ref, err)
		}
		return h.register(ctx, req.Ref, payload)

	case TypeLeave:
		return h.leave(ctx, req.Ref)

	case TypeToggleReady:
		return h.bound(ctx, req.Ref, func(rm *room.Room) (model.Snapshot, error) {
			return rm.ToggleReady(ctx, h.player)
		})

	case TypeToggleObserver:
		return h.bound(ctx, req.Ref, func(rm *room.Room) (model.Snapshot, error) {
			return rm.ToggleObserver(ctx, h.player)
		})

	case TypeValidate, TypeGuess:
		var payload ValuePayload
		if err := decode(req.Payload, &payload); err != nil {
			return h.fail(ctx, req.Ref, err)
		}
		return h.bound(ctx, req.Ref, func(rm *room.Room) (model.Snapshot, error) {
			if req.Type == TypeGuess {
				return rm.Guess(ctx, h.player, payload.Value)
			}
			return rm.Validate(ctx, h.player, payload.Value)
		})

	case TypeSkipGuess:
		return h.bound(ctx, req.Ref, func(rm *room.Room) (model.Snapshot, error) {
			return rm.SkipGuess(ctx, h.player)
		})

	case TypeReset:
		return h.bound(ctx, req.Ref, func(rm *room.Room) (model.Snapshot, error) {
			return rm.Reset(ctx, h.player)
		})

	default:
		return h.fail(ctx, req.Ref, apierr.NewInvalidRequestError(fmt.Sprintf("unknown message type %q", req.Type)))
	}
}

// Disconnect cleans up after the transport has gone. A bound player
// leaves their room exactly as if they had sent leave.
func (h *Handler) Disconnect(ctx context.Context) {
	switch h.state {
	case stateBound:
		if _, err := h.room.Leave(ctx, h.player, h.sub); err != nil {
			h.logger.Debug("leave on disconnect failed",
				slog.String("room", string(h.roomName)),
				slog.String("player", string(h.player)),
				slog.Any("error", err))
		}
		h.unbind()
	case stateJoining:
		h.unbind()
	}
}

func (h *Handler) join(ctx context.Context, ref int64, name model.RoomName) Reply {
	if h.state != stateUnbound {
		return h.fail(ctx, ref, fmt.Errorf("%w: %s", model.ErrAlreadyJoined, h.roomName))
	}

	rm, err := h.rooms.Acquire(name)
	if err != nil {
		return h.fail(ctx, ref, err)
	}
	h.state = stateJoining
	h.roomName = name
	h.room = rm

	snapshot, err := rm.Snapshot(ctx)
	if err != nil {
		h.unbind()
		return h.fail(ctx, ref, err)
	}
	h.logger.Debug("joined room", slog.String("room", string(name)))
	return okReply(ref, snapshot)
}

// register never leaves the connection half-joined: any failure drops the
// room reference and returns the connection to unbound
func (h *Handler) register(ctx context.Context, ref int64, payload RegisterPayload) Reply {
	if h.state != stateJoining || (payload.RoomName != "" && payload.RoomName != h.roomName) {
		return h.fail(ctx, ref, fmt.Errorf("%w: join %q before registering", model.ErrNotBound, payload.RoomName))
	}

	snapshot, err := h.room.Register(ctx, payload.PlayerName, h.sub)
	if err != nil {
		h.logger.Info("registration refused",
			slog.String("room", string(h.roomName)),
			slog.String("player", string(payload.PlayerName)),
			slog.Any("error", err))
		h.unbind()
		return errorReply(ref, model.Snapshot{}, err)
	}

	h.state = stateBound
	h.player = payload.PlayerName
	return okReply(ref, snapshot)
}

func (h *Handler) leave(ctx context.Context, ref int64) Reply {
	switch h.state {
	case stateBound:
		if _, err := h.room.Leave(ctx, h.player, h.sub); err != nil {
			return h.fail(ctx, ref, err)
		}
	case stateUnbound:
		return h.fail(ctx, ref, model.ErrNotBound)
	}
	h.unbind()
	return okReply(ref, model.Snapshot{})
}

func (h *Handler) bound(ctx context.Context, ref int64, op func(*room.Room) (model.Snapshot, error)) Reply {
	if h.state != stateBound {
		return h.fail(ctx, ref, model.ErrNotBound)
	}
	snapshot, err := op(h.room)
	if err != nil {
		return errorReply(ref, snapshot, err)
	}
	return okReply(ref, snapshot)
}

// fail builds an error reply carrying the connection's current view
func (h *Handler) fail(ctx context.Context, ref int64, err error) Reply {
	var snapshot model.Snapshot
	if h.state == stateBound {
		if current, snapErr := h.room.SnapshotFor(ctx, h.player); snapErr == nil {
			snapshot = current
		}
	}
	return errorReply(ref, snapshot, err)
}

func (h *Handler) unbind() {
	h.rooms.Release(h.roomName)
	h.state = stateUnbound
	h.roomName = ""
	h.room = nil
	h.player = ""
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apierr.NewInvalidRequestError("malformed payload: " + err.Error())
	}
	return nil
}
