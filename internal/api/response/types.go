package response

import (
	"time"

	"github.com/mcoot/bullsgame/internal/model"
)

// Health is the response of the health endpoint
type Health struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

// Room summarises a live room
type Room struct {
	Name        string `json:"name"`
	Phase       string `json:"phase"`
	Players     int    `json:"players"`
	Connections int    `json:"connections"`
}

// RoomFromModel converts a model.RoomInfo
func RoomFromModel(info model.RoomInfo) Room {
	return Room{
		Name:        string(info.Name),
		Phase:       string(info.Phase),
		Players:     info.Players,
		Connections: info.Connections,
	}
}

// RoomList is the response for listing rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomListFromModel converts a slice of model.RoomInfo
func RoomListFromModel(infos []model.RoomInfo) RoomList {
	rooms := make([]Room, len(infos))
	for i, info := range infos {
		rooms[i] = RoomFromModel(info)
	}
	return RoomList{Rooms: rooms}
}

// Round describes a completed round
type Round struct {
	Round        int            `json:"round"`
	Outcome      string         `json:"outcome"`
	Winner       string         `json:"winner,omitempty"`
	Participants []string       `json:"participants"`
	Guesses      map[string]int `json:"guesses"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	DurationMs   int64          `json:"duration_ms"`
}

// RoundFromModel converts a model.RoundSummary
func RoundFromModel(s model.RoundSummary) Round {
	participants := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		participants[i] = string(p)
	}
	guesses := make(map[string]int, len(s.Guesses))
	for p, n := range s.Guesses {
		guesses[string(p)] = n
	}
	return Round{
		Round:        s.Round,
		Outcome:      string(s.Outcome),
		Winner:       string(s.Winner),
		Participants: participants,
		Guesses:      guesses,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
		DurationMs:   s.CompletedAt.Sub(s.StartedAt).Milliseconds(),
	}
}

// RoundList is the response for a room's round archive
type RoundList struct {
	Room   string  `json:"room"`
	Rounds []Round `json:"rounds"`
}

// RoundListFromModel converts a room's archived rounds
func RoundListFromModel(room model.RoomName, summaries []model.RoundSummary) RoundList {
	rounds := make([]Round, len(summaries))
	for i, s := range summaries {
		rounds[i] = RoundFromModel(s)
	}
	return RoundList{Room: string(room), Rounds: rounds}
}
