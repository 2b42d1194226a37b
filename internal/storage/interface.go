package storage

import (
	"context"

	"github.com/mcoot/bullsgame/internal/model"
)

// Storage is the archive of completed rounds for live rooms.
// Room state itself is never stored; the archive of a room is deleted
// when the room is destroyed.
type Storage interface {
	// SaveRound appends a completed round to its room's archive
	SaveRound(ctx context.Context, summary model.RoundSummary) error

	// ListRounds returns up to limit of a room's most recent rounds,
	// oldest first. A limit of zero or less returns every round. An
	// unknown room has no rounds.
	ListRounds(ctx context.Context, room model.RoomName, limit int) ([]model.RoundSummary, error)

	// DeleteRounds drops a room's archive
	DeleteRounds(ctx context.Context, room model.RoomName) error
}
