package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RosterEntry is a player's public state, encoded as [role, readiness]
type RosterEntry struct {
	Name      PlayerName
	Role      Role
	Readiness Readiness
}

// PlayerHistory is the ordered guess history of one player
type PlayerHistory struct {
	Player  PlayerName
	Guesses []GuessRecord
}

// PlayerScore pairs a player with their scoreboard entry
type PlayerScore struct {
	Player PlayerName
	Entry  ScoreEntry
}

// RoomView is an immutable copy of a room's client-visible state.
// It is shared between every recipient of a broadcast, so nothing may
// mutate it after construction.
type RoomView struct {
	Room    RoomName
	Phase   Phase
	Message string
	Players []RosterEntry
	History []PlayerHistory
	Scores  []PlayerScore
	Inputs  map[PlayerName]string
}

// SnapshotFor personalises the view for one recipient
func (v RoomView) SnapshotFor(name PlayerName) Snapshot {
	return Snapshot{
		PlayerName: name,
		GameName:   v.Room,
		Phase:      v.Phase,
		InputValue: v.Inputs[name],
		History:    v.History,
		Players:    v.Players,
		Scores:     v.Scores,
		Message:    v.Message,
	}
}

// ObserverSnapshot returns the view as seen by someone without a player
func (v RoomView) ObserverSnapshot() Snapshot {
	return v.SnapshotFor("")
}

// Snapshot is the complete state a client holds. Clients replace their
// state with each snapshot they receive; they never merge.
//
// The players, history and scores objects keep join order on the wire.
type Snapshot struct {
	PlayerName PlayerName
	GameName   RoomName
	Phase      Phase
	InputValue string
	History    []PlayerHistory
	Players    []RosterEntry
	Scores     []PlayerScore
	Message    string
}

// Player returns the roster entry for the named player
func (s Snapshot) Player(name PlayerName) (RosterEntry, bool) {
	for _, p := range s.Players {
		if p.Name == name {
			return p, true
		}
	}
	return RosterEntry{}, false
}

// ScoreFor returns the scoreboard entry for the named player
func (s Snapshot) ScoreFor(name PlayerName) (ScoreEntry, bool) {
	for _, e := range s.Scores {
		if e.Player == name {
			return e.Entry, true
		}
	}
	return ScoreEntry{}, false
}

// HistoryFor returns the guesses the named player made this round
func (s Snapshot) HistoryFor(name PlayerName) []GuessRecord {
	for _, h := range s.History {
		if h.Player == name {
			return h.Guesses
		}
	}
	return nil
}

// MarshalJSON encodes the snapshot with ordered player keyed objects
func (s Snapshot) MarshalJSON() ([]byte, error) {
	history := make(object, 0, len(s.History))
	for _, h := range s.History {
		guesses := h.Guesses
		if guesses == nil {
			guesses = []GuessRecord{}
		}
		history = append(history, member{string(h.Player), guesses})
	}

	players := make(object, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, member{string(p.Name), [2]string{string(p.Role), string(p.Readiness)}})
	}

	scores := make(object, 0, len(s.Scores))
	for _, e := range s.Scores {
		scores = append(scores, member{string(e.Player), e.Entry})
	}

	return object{
		{"playerName", s.PlayerName},
		{"gameName", s.GameName},
		{"gamePhase", s.Phase},
		{"inputValue", s.InputValue},
		{"history", history},
		{"players", players},
		{"scores", scores},
		{"message", s.Message},
	}.MarshalJSON()
}

// UnmarshalJSON decodes a snapshot, preserving key order of the player
// keyed objects
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire struct {
		PlayerName PlayerName      `json:"playerName"`
		GameName   RoomName        `json:"gameName"`
		Phase      Phase           `json:"gamePhase"`
		InputValue string          `json:"inputValue"`
		History    json.RawMessage `json:"history"`
		Players    json.RawMessage `json:"players"`
		Scores     json.RawMessage `json:"scores"`
		Message    string          `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*s = Snapshot{
		PlayerName: wire.PlayerName,
		GameName:   wire.GameName,
		Phase:      wire.Phase,
		InputValue: wire.InputValue,
		Message:    wire.Message,
	}

	err := eachMember(wire.History, func(key string, raw json.RawMessage) error {
		var guesses []GuessRecord
		if err := json.Unmarshal(raw, &guesses); err != nil {
			return err
		}
		s.History = append(s.History, PlayerHistory{Player: PlayerName(key), Guesses: guesses})
		return nil
	})
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	err = eachMember(wire.Players, func(key string, raw json.RawMessage) error {
		var pair [2]string
		if err := json.Unmarshal(raw, &pair); err != nil {
			return err
		}
		s.Players = append(s.Players, RosterEntry{
			Name:      PlayerName(key),
			Role:      Role(pair[0]),
			Readiness: Readiness(pair[1]),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("players: %w", err)
	}

	err = eachMember(wire.Scores, func(key string, raw json.RawMessage) error {
		var entry ScoreEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		s.Scores = append(s.Scores, PlayerScore{Player: PlayerName(key), Entry: entry})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scores: %w", err)
	}

	return nil
}

// member is one key/value pair of an ordered JSON object
type member struct {
	key   string
	value any
}

// object is a JSON object whose keys are written in slice order
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// eachMember walks a JSON object in document order. A missing or null
// object is treated as empty.
func eachMember(data json.RawMessage, fn func(key string, raw json.RawMessage) error) error {
	if len(data) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
