package redis

import (
	"fmt"

	"github.com/mcoot/bullsgame/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "bulls"

// roundsKey returns the Redis key for the LIST of a room's round summaries
func roundsKey(room model.RoomName) string {
	return fmt.Sprintf("%s:rounds:%s", keyPrefix, room)
}
