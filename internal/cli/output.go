package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/bullsgame/internal/api/socket"
	"github.com/mcoot/bullsgame/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	mu     sync.Mutex
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

// PrintSocketMessage outputs one message from the socket. JSON output is
// one compact object per line so it can be streamed.
func (o *Output) PrintSocketMessage(msg socket.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format == "json" {
		data, _ := json.Marshal(msg)
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}

	if msg.Type == socket.TypeReply && msg.Status == socket.StatusError {
		if msg.Error != nil {
			_, _ = fmt.Fprintf(o.w, "Error: %s (%s)\n", msg.Payload.Message, msg.Error.Code)
		} else {
			_, _ = fmt.Fprintf(o.w, "Error: %s\n", msg.Payload.Message)
		}
		return
	}
	if msg.Type == socket.TypePresent {
		o.printSnapshot(msg.Payload)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case RoomList:
		o.printRoomList(v)
	case model.Snapshot:
		o.printSnapshot(v)
	case RoundList:
		o.printRoundList(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

// Room response type
type Room struct {
	Name        string `json:"name"`
	Phase       string `json:"phase"`
	Players     int    `json:"players"`
	Connections int    `json:"connections"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// Round response type
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

// RoundList response type
type RoundList struct {
	Room   string  `json:"room"`
	Rounds []Round `json:"rounds"`
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Rooms: %d\n", h.Rooms)
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		_, _ = fmt.Fprintln(o.w, "No live rooms")
		return
	}
	for _, r := range l.Rooms {
		_, _ = fmt.Fprintf(o.w, "%-24s %-10s %d players, %d connections\n", r.Name, r.Phase, r.Players, r.Connections)
	}
}

func (o *Output) printRoundList(l RoundList) {
	if len(l.Rounds) == 0 {
		_, _ = fmt.Fprintf(o.w, "No finished rounds in %s\n", l.Room)
		return
	}
	_, _ = fmt.Fprintf(o.w, "Rounds in %s:\n", l.Room)
	for _, r := range l.Rounds {
		result := "nobody cracked the code"
		if r.Winner != "" {
			result = fmt.Sprintf("won by %s in %d guesses", r.Winner, r.Guesses[r.Winner])
		}
		duration := time.Duration(r.DurationMs) * time.Millisecond
		_, _ = fmt.Fprintf(o.w, "  #%d %s (%s, %d players)\n", r.Round, result, duration, len(r.Participants))
	}
}

func (o *Output) printSnapshot(s model.Snapshot) {
	header := fmt.Sprintf("Room %s [%s]", s.GameName, s.Phase)
	if s.PlayerName != "" {
		header += " as " + string(s.PlayerName)
	}
	_, _ = fmt.Fprintln(o.w, header)
	if s.Message != "" {
		_, _ = fmt.Fprintf(o.w, "  %s\n", s.Message)
	}

	for _, p := range s.Players {
		marker := " "
		if p.Name == s.PlayerName {
			marker = "*"
		}
		score, _ := s.ScoreFor(p.Name)
		_, _ = fmt.Fprintf(o.w, " %s %-24s %-8s %-7s W%d L%d  %s\n",
			marker, p.Name, p.Role, p.Readiness, score.Wins, score.Losses, formatHistory(s.HistoryFor(p.Name)))
	}

	if s.InputValue != "" {
		_, _ = fmt.Fprintf(o.w, "  Input: %s\n", s.InputValue)
	}
}

func formatHistory(guesses []model.GuessRecord) string {
	parts := make([]string, len(guesses))
	for i, g := range guesses {
		parts[i] = fmt.Sprintf("%s %dB%dC", g.Value, g.Score.Bulls, g.Score.Cows)
	}
	return strings.Join(parts, ", ")
}
