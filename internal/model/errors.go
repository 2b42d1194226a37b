package model

import "errors"

// Common errors used across the application
var (
	// Registration errors
	ErrNameTaken      = errors.New("name is already taken in this room")
	ErrInvalidName    = errors.New("invalid name")
	ErrPlayerNotFound = errors.New("player not found")

	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room is closed")

	// Game errors
	ErrInvalidActionForPhase = errors.New("action not allowed in the current phase")
	ErrInvalidGuessFormat    = errors.New("guess must be exactly 4 digits")

	// Connection errors
	ErrNotBound      = errors.New("connection is not bound to a room")
	ErrAlreadyJoined = errors.New("connection has already joined a room")
	ErrRateLimited   = errors.New("too many messages")
	ErrSlowConsumer  = errors.New("connection is not keeping up with updates")
)
