package model

import (
	"encoding/json"
	"fmt"
)

// Score is the result of comparing a guess against the secret code
type Score struct {
	Bulls int `json:"bulls"`
	Cows  int `json:"cows"`
}

// Solved reports whether every digit is in the right place
func (s Score) Solved() bool {
	return s.Bulls == 4
}

// GuessRecord is one submitted guess and its score
// Encoded on the wire as [value, bulls, cows]
type GuessRecord struct {
	Value string
	Score Score
}

// MarshalJSON encodes the record as a three element array
func (g GuessRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{g.Value, g.Score.Bulls, g.Score.Cows})
}

// UnmarshalJSON decodes a [value, bulls, cows] array
func (g *GuessRecord) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("guess record: expected 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &g.Value); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &g.Score.Bulls); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &g.Score.Cows)
}

// ScoreEntry is a player's running total within a room
// Encoded on the wire as [wins, losses]
type ScoreEntry struct {
	Wins   int
	Losses int
}

// MarshalJSON encodes the entry as a two element array
func (e ScoreEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{e.Wins, e.Losses})
}

// UnmarshalJSON decodes a [wins, losses] array
func (e *ScoreEntry) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	e.Wins, e.Losses = pair[0], pair[1]
	return nil
}
