package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bullsgame/internal/api/apierr"
	"github.com/mcoot/bullsgame/internal/api/socket"
	"github.com/mcoot/bullsgame/internal/model"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"", command{}},
		{"   ", command{}},
		{"ready", command{socket.TypeToggleReady, struct{}{}}},
		{"R", command{socket.TypeToggleReady, struct{}{}}},
		{"observe", command{socket.TypeToggleObserver, struct{}{}}},
		{"skip", command{socket.TypeSkipGuess, struct{}{}}},
		{"reset", command{socket.TypeReset, struct{}{}}},
		{"leave", command{socket.TypeLeave, struct{}{}}},
		{"guess 1234", command{socket.TypeGuess, socket.ValuePayload{Value: "1234"}}},
		{"g 0042", command{socket.TypeGuess, socket.ValuePayload{Value: "0042"}}},
		{"type 12", command{socket.TypeValidate, socket.ValuePayload{Value: "12"}}},
		{"type 1 2 3", command{socket.TypeValidate, socket.ValuePayload{Value: "123"}}},
		{"type", command{socket.TypeValidate, socket.ValuePayload{Value: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"guess", "usage: guess"},
		{"guess 12 34", "usage: guess"},
		{"ready now", "takes no arguments"},
		{"dance", "unknown command"},
		{"help", "Commands:"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := parseCommand(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCommandQuit(t *testing.T) {
	for _, line := range []string{"quit", "exit", "q"} {
		_, err := parseCommand(line)
		assert.ErrorIs(t, err, errQuit, line)
	}
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.Print(model.Snapshot{
		PlayerName: "alice",
		GameName:   "den",
		Phase:      model.PhasePlaying,
		InputValue: "12",
		Players: []model.RosterEntry{
			{Name: "alice", Role: model.RolePlayer, Readiness: model.ReadinessUnready},
			{Name: "bob", Role: model.RoleObserver, Readiness: model.ReadinessUnready},
		},
		History: []model.PlayerHistory{
			{Player: "alice", Guesses: []model.GuessRecord{{Value: "1243", Score: model.Score{Bulls: 2, Cows: 2}}}},
		},
		Scores: []model.PlayerScore{
			{Player: "alice", Entry: model.ScoreEntry{Wins: 1}},
		},
		Message: "Round 2 started",
	})

	text := buf.String()
	assert.Contains(t, text, "Room den [playing] as alice")
	assert.Contains(t, text, "Round 2 started")
	assert.Contains(t, text, "1243 2B2C")
	assert.Contains(t, text, "W1 L0")
	assert.Contains(t, text, "Input: 12")
}

func TestPrintSocketError(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.PrintSocketMessage(socket.Message{
		Ref:     3,
		Type:    socket.TypeReply,
		Status:  socket.StatusError,
		Payload: model.Snapshot{Message: "name is already taken in this room"},
		Error:   &apierr.APIError{Code: apierr.CodeNameTaken},
	})

	assert.Equal(t, "Error: name is already taken in this room (NAME_TAKEN)\n", buf.String())
}

func TestPrintSocketMessageJSON(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "json", w: &buf}

	out.PrintSocketMessage(socket.Message{
		Type:    socket.TypePresent,
		Payload: model.Snapshot{GameName: "den", Phase: model.PhaseLobby},
	})

	assert.Contains(t, buf.String(), `"type":"present"`)
	assert.Contains(t, buf.String(), `"gameName":"den"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}
