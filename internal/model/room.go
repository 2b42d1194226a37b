package model

// RoomName identifies a room (case-sensitive, chosen by whoever joins first)
type RoomName string

// Phase is the room's state machine state
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhasePlaying   Phase = "playing"
	PhaseRoundOver Phase = "roundover"
)

// RoomConfig holds the per-room game rules
type RoomConfig struct {
	// GuessLimit is the number of guesses (or skips) each player gets per
	// round. Zero means unlimited.
	GuessLimit int
	// UniqueDigits forbids repeated digits in generated secrets
	UniqueDigits bool
}

// DefaultRoomConfig returns the default room rules
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		GuessLimit:   10,
		UniqueDigits: false,
	}
}

// RoomInfo is a summary of a live room for listings
type RoomInfo struct {
	Name        RoomName `json:"name"`
	Phase       Phase    `json:"phase"`
	Players     int      `json:"players"`
	Connections int      `json:"connections"`
}
