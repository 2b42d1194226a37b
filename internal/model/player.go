package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// PlayerName identifies a player within a room (case-sensitive)
type PlayerName string

// MaxNameLength bounds room and player names, in characters
const MaxNameLength = 24

// Role distinguishes contestants from observers
type Role string

const (
	RolePlayer   Role = "player"
	RoleObserver Role = "observer"
)

// Readiness tracks whether a player wants the next round to start
type Readiness string

const (
	ReadinessReady   Readiness = "ready"
	ReadinessUnready Readiness = "unready"
)

// Player represents a registered participant in a room
type Player struct {
	Name      PlayerName
	Role      Role
	Readiness Readiness
	JoinedAt  time.Time
}

// IsContestant reports whether the player takes part in rounds
func (p *Player) IsContestant() bool {
	return p.Role == RolePlayer
}

// IsReady reports whether the player has readied up
func (p *Player) IsReady() bool {
	return p.Readiness == ReadinessReady
}

// ValidateName checks a room or player name. Names must contain a
// printable character, carry no control characters and fit within
// MaxNameLength.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: must not be blank", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control characters", ErrInvalidName)
		}
	}
	return nil
}
