package game

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/elliotchance/orderedmap/v3"

	"github.com/mcoot/bullsgame/internal/dependencies/clock"
	"github.com/mcoot/bullsgame/internal/dependencies/random"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/services/scoring"
)

// Session is the state machine of a single room: roster, phase, secret,
// guess history and scoreboard. It is not safe for concurrent use; the
// room actor that owns it serializes every call.
type Session struct {
	name   model.RoomName
	config model.RoomConfig
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	phase     model.Phase
	secret    string
	round     int
	startedAt time.Time
	message   string

	// Roster and scoreboard keep registration order for display.
	// Score entries outlive the player that earned them.
	players *orderedmap.OrderedMap[model.PlayerName, *model.Player]
	scores  *orderedmap.OrderedMap[model.PlayerName, model.ScoreEntry]

	history  map[model.PlayerName][]model.GuessRecord
	inputs   map[model.PlayerName]string
	attempts map[model.PlayerName]int

	completed *model.RoundSummary
}

// NewSession creates an empty room in the lobby
func NewSession(
	name model.RoomName,
	config model.RoomConfig,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Session {
	return &Session{
		name:     name,
		config:   config,
		clock:    clock,
		random:   random,
		logger:   logger,
		phase:    model.PhaseLobby,
		players:  orderedmap.NewOrderedMap[model.PlayerName, *model.Player](),
		scores:   orderedmap.NewOrderedMap[model.PlayerName, model.ScoreEntry](),
		history:  make(map[model.PlayerName][]model.GuessRecord),
		inputs:   make(map[model.PlayerName]string),
		attempts: make(map[model.PlayerName]int),
	}
}

// Name returns the room name
func (s *Session) Name() model.RoomName {
	return s.name
}

// Phase returns the current phase
func (s *Session) Phase() model.Phase {
	return s.phase
}

// Round returns the number of rounds started so far
func (s *Session) Round() int {
	return s.round
}

// PlayerCount returns the number of registered players, observers included
func (s *Session) PlayerCount() int {
	return s.players.Len()
}

// HasPlayer reports whether name is registered
func (s *Session) HasPlayer(name model.PlayerName) bool {
	return s.players.Has(name)
}

// Register adds a new contestant. Players registering mid-round take part
// in the running round.
func (s *Session) Register(name model.PlayerName) error {
	if err := model.ValidateName(string(name)); err != nil {
		return err
	}
	if s.players.Has(name) {
		return fmt.Errorf("%w: %q", model.ErrNameTaken, name)
	}

	s.players.Set(name, &model.Player{
		Name:      name,
		Role:      model.RolePlayer,
		Readiness: model.ReadinessUnready,
		JoinedAt:  s.clock.Now(),
	})
	if !s.scores.Has(name) {
		s.scores.Set(name, model.ScoreEntry{})
	}

	s.logger.Info("player registered",
		slog.String("player", string(name)),
		slog.String("phase", string(s.phase)))
	return nil
}

// Leave removes a player in any phase. If the last contestant leaves
// mid-round the round is abandoned without touching the scoreboard.
func (s *Session) Leave(name model.PlayerName) error {
	if _, err := s.player(name); err != nil {
		return err
	}

	s.players.Delete(name)
	delete(s.history, name)
	delete(s.inputs, name)
	delete(s.attempts, name)

	s.logger.Info("player left",
		slog.String("player", string(name)),
		slog.String("phase", string(s.phase)))

	switch s.phase {
	case model.PhasePlaying:
		if len(s.contestants()) == 0 {
			s.abandonRound()
		} else {
			s.endRoundIfExhausted()
		}
	case model.PhaseLobby:
		s.startRoundIfReady()
	}
	return nil
}

// ToggleReady flips a contestant's readiness. The round starts as soon as
// every contestant is ready.
func (s *Session) ToggleReady(name model.PlayerName) error {
	p, err := s.player(name)
	if err != nil {
		return err
	}
	if s.phase != model.PhaseLobby {
		return s.phaseError("change readiness")
	}
	if !p.IsContestant() {
		return fmt.Errorf("%w: observers cannot ready up", model.ErrInvalidActionForPhase)
	}

	if p.IsReady() {
		p.Readiness = model.ReadinessUnready
	} else {
		p.Readiness = model.ReadinessReady
	}

	s.startRoundIfReady()
	return nil
}

// ToggleObserver switches a player between contestant and observer.
// Readiness is always cleared.
func (s *Session) ToggleObserver(name model.PlayerName) error {
	p, err := s.player(name)
	if err != nil {
		return err
	}
	if s.phase != model.PhaseLobby {
		return s.phaseError("change role")
	}

	if p.IsContestant() {
		p.Role = model.RoleObserver
	} else {
		p.Role = model.RolePlayer
	}
	p.Readiness = model.ReadinessUnready

	s.startRoundIfReady()
	return nil
}

// Validate stores a player's in-progress input, reduced to at most four
// digits, and returns the stored value
func (s *Session) Validate(name model.PlayerName, input string) (string, error) {
	if _, err := s.player(name); err != nil {
		return "", err
	}
	if s.phase != model.PhasePlaying {
		return "", s.phaseError("enter a guess")
	}

	value := scoring.Sanitize(input)
	if value == "" {
		delete(s.inputs, name)
	} else {
		s.inputs[name] = value
	}
	return value, nil
}

// Guess scores a contestant's guess against the secret. A solved guess
// ends the round with that player as winner.
func (s *Session) Guess(name model.PlayerName, value string) (model.Score, error) {
	p, err := s.player(name)
	if err != nil {
		return model.Score{}, err
	}
	if s.phase != model.PhasePlaying {
		return model.Score{}, s.phaseError("guess")
	}
	if !p.IsContestant() {
		return model.Score{}, fmt.Errorf("%w: observers cannot guess", model.ErrInvalidActionForPhase)
	}
	if s.budgetSpent(name) {
		return model.Score{}, fmt.Errorf("%w: no guesses left this round", model.ErrInvalidActionForPhase)
	}

	score, err := scoring.Score(s.secret, value)
	if err != nil {
		return model.Score{}, err
	}

	s.history[name] = append(s.history[name], model.GuessRecord{Value: value, Score: score})
	s.attempts[name]++
	delete(s.inputs, name)

	s.logger.Debug("guess scored",
		slog.String("player", string(name)),
		slog.Int("bulls", score.Bulls),
		slog.Int("cows", score.Cows))

	if score.Solved() {
		s.endRound(name)
	} else {
		s.endRoundIfExhausted()
	}
	return score, nil
}

// SkipGuess spends one of a contestant's guesses without guessing
func (s *Session) SkipGuess(name model.PlayerName) error {
	p, err := s.player(name)
	if err != nil {
		return err
	}
	if s.phase != model.PhasePlaying {
		return s.phaseError("skip")
	}
	if !p.IsContestant() {
		return fmt.Errorf("%w: observers cannot skip", model.ErrInvalidActionForPhase)
	}
	if s.budgetSpent(name) {
		return fmt.Errorf("%w: no guesses left this round", model.ErrInvalidActionForPhase)
	}

	s.attempts[name]++
	s.endRoundIfExhausted()
	return nil
}

// Reset returns a finished room to the lobby, keeping roster and scores.
// In the lobby it does nothing and reports no change.
func (s *Session) Reset(name model.PlayerName) (bool, error) {
	if _, err := s.player(name); err != nil {
		return false, err
	}

	switch s.phase {
	case model.PhaseLobby:
		return false, nil
	case model.PhasePlaying:
		return false, s.phaseError("reset")
	}

	s.toLobby()
	s.message = "Back in the lobby"
	s.logger.Info("room reset", slog.String("player", string(name)))
	return true, nil
}

// View copies the client-visible state
func (s *Session) View() model.RoomView {
	view := model.RoomView{
		Room:    s.name,
		Phase:   s.phase,
		Message: s.message,
		Players: make([]model.RosterEntry, 0, s.players.Len()),
		Scores:  make([]model.PlayerScore, 0, s.scores.Len()),
		Inputs:  maps.Clone(s.inputs),
	}

	for name, p := range s.players.AllFromFront() {
		view.Players = append(view.Players, model.RosterEntry{
			Name:      name,
			Role:      p.Role,
			Readiness: p.Readiness,
		})
		if guesses, ok := s.history[name]; ok {
			view.History = append(view.History, model.PlayerHistory{
				Player:  name,
				Guesses: slices.Clone(guesses),
			})
		}
	}

	for name, entry := range s.scores.AllFromFront() {
		view.Scores = append(view.Scores, model.PlayerScore{Player: name, Entry: entry})
	}

	return view
}

// TakeCompletedRound returns the summary of a round that ended since the
// last call, if any
func (s *Session) TakeCompletedRound() (model.RoundSummary, bool) {
	if s.completed == nil {
		return model.RoundSummary{}, false
	}
	summary := *s.completed
	s.completed = nil
	return summary, true
}

func (s *Session) player(name model.PlayerName) (*model.Player, error) {
	p, ok := s.players.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrPlayerNotFound, name)
	}
	return p, nil
}

func (s *Session) contestants() []*model.Player {
	var out []*model.Player
	for _, p := range s.players.AllFromFront() {
		if p.IsContestant() {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) phaseError(action string) error {
	return fmt.Errorf("%w: cannot %s during %s", model.ErrInvalidActionForPhase, action, s.phase)
}

func (s *Session) budgetSpent(name model.PlayerName) bool {
	return s.config.GuessLimit > 0 && s.attempts[name] >= s.config.GuessLimit
}

// Phase transitions

func (s *Session) startRoundIfReady() {
	if s.phase != model.PhaseLobby {
		return
	}
	contestants := s.contestants()
	if len(contestants) == 0 {
		return
	}
	for _, p := range contestants {
		if !p.IsReady() {
			return
		}
	}

	s.round++
	s.phase = model.PhasePlaying
	s.secret = newSecret(s.random, s.config.UniqueDigits)
	s.startedAt = s.clock.Now()
	s.clearRound()
	s.message = fmt.Sprintf("Round %d started", s.round)

	s.logger.Info("round started",
		slog.Int("round", s.round),
		slog.Int("contestants", len(contestants)))
}

func (s *Session) endRoundIfExhausted() {
	if s.phase != model.PhasePlaying || s.config.GuessLimit <= 0 {
		return
	}
	contestants := s.contestants()
	if len(contestants) == 0 {
		return
	}
	for _, p := range contestants {
		if !s.budgetSpent(p.Name) {
			return
		}
	}
	s.endRound("")
}

// endRound scores the round once: the winner (if any) gains a win and
// every other contestant a loss
func (s *Session) endRound(winner model.PlayerName) {
	summary := model.RoundSummary{
		Room:        s.name,
		Round:       s.round,
		Outcome:     model.RoundOutcomeExhausted,
		Winner:      winner,
		Guesses:     make(map[model.PlayerName]int),
		StartedAt:   s.startedAt,
		CompletedAt: s.clock.Now(),
	}
	if winner != "" {
		summary.Outcome = model.RoundOutcomeWon
	}

	for _, p := range s.contestants() {
		entry, _ := s.scores.Get(p.Name)
		if p.Name == winner {
			entry.Wins++
		} else {
			entry.Losses++
		}
		s.scores.Set(p.Name, entry)
		summary.Participants = append(summary.Participants, p.Name)
		summary.Guesses[p.Name] = len(s.history[p.Name])
	}

	s.phase = model.PhaseRoundOver
	s.secret = ""
	clear(s.inputs)
	s.completed = &summary

	if winner != "" {
		s.message = fmt.Sprintf("%s cracked the code in %d guesses", winner, len(s.history[winner]))
	} else {
		s.message = "Out of guesses, nobody cracked the code"
	}

	s.logger.Info("round over",
		slog.Int("round", s.round),
		slog.String("outcome", string(summary.Outcome)),
		slog.String("winner", string(winner)))
}

func (s *Session) abandonRound() {
	s.toLobby()
	s.message = fmt.Sprintf("Round %d abandoned", s.round)
	s.logger.Info("round abandoned", slog.Int("round", s.round))
}

func (s *Session) toLobby() {
	s.phase = model.PhaseLobby
	s.secret = ""
	s.clearRound()
}

// clearRound drops per-round state and makes everyone unready
func (s *Session) clearRound() {
	clear(s.history)
	clear(s.inputs)
	clear(s.attempts)
	for _, p := range s.players.AllFromFront() {
		p.Readiness = model.ReadinessUnready
	}
}
