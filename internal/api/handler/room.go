package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/bullsgame/internal/api/response"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/services/room"
)

const (
	defaultRoundLimit = 20
	maxRoundLimit     = 100
)

// Rooms looks up live rooms
type Rooms interface {
	Get(name model.RoomName) (*room.Room, error)
	List(ctx context.Context) ([]model.RoomInfo, error)
	Len() int
}

// Rounds reads a room's archived rounds
type Rounds interface {
	Rounds(ctx context.Context, room model.RoomName, limit int) ([]model.RoundSummary, error)
}

// RoomHandler handles read-only room endpoints. All play happens over
// the socket.
type RoomHandler struct {
	rooms  Rooms
	rounds Rounds
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms Rooms, rounds Rounds) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		rounds: rounds,
	}
}

// Health handles GET /api/v1/health
func (h *RoomHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Rooms: h.rooms.Len()})
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.rooms.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomListFromModel(infos))
}

// Get handles GET /api/v1/rooms/{name}. It returns the room as an
// observer sees it.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := model.RoomName(mux.Vars(r)["name"])

	rm, err := h.rooms.Get(name)
	if err != nil {
		WriteError(w, err)
		return
	}

	snapshot, err := rm.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snapshot)
}

// Rounds handles GET /api/v1/rooms/{name}/rounds
func (h *RoomHandler) Rounds(w http.ResponseWriter, r *http.Request) {
	name := model.RoomName(mux.Vars(r)["name"])

	limit := defaultRoundLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRoundLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	if _, err := h.rooms.Get(name); err != nil {
		WriteError(w, err)
		return
	}

	summaries, err := h.rounds.Rounds(r.Context(), name, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoundListFromModel(name, summaries))
}
