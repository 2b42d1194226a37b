package model

import "time"

// RoundOutcome describes how a completed round ended
type RoundOutcome string

const (
	RoundOutcomeWon       RoundOutcome = "won"
	RoundOutcomeExhausted RoundOutcome = "exhausted"
)

// RoundSummary records a completed round for the room's archive
type RoundSummary struct {
	Room         RoomName           `json:"room"`
	Round        int                `json:"round"`
	Outcome      RoundOutcome       `json:"outcome"`
	Winner       PlayerName         `json:"winner,omitempty"`
	Participants []PlayerName       `json:"participants"`
	Guesses      map[PlayerName]int `json:"guesses"`
	StartedAt    time.Time          `json:"started_at"`
	CompletedAt  time.Time          `json:"completed_at"`
}
