package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/bullsgame/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidName           = "INVALID_NAME"
	CodeNameTaken             = "NAME_TAKEN"
	CodePlayerNotFound        = "PLAYER_NOT_FOUND"
	CodeRoomNotFound          = "ROOM_NOT_FOUND"
	CodeRoomClosed            = "ROOM_CLOSED"
	CodeInvalidActionForPhase = "INVALID_ACTION_FOR_PHASE"
	CodeInvalidGuessFormat    = "INVALID_GUESS_FORMAT"
	CodeNotBound              = "NOT_BOUND"
	CodeAlreadyJoined         = "ALREADY_JOINED"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInternalError         = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// FromError maps an error to its protocol code and HTTP status. Socket
// replies use the same codes as HTTP responses.
func FromError(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidName, "Names must be 1-24 printable characters"}}
	case errors.Is(err, model.ErrNameTaken):
		return &httpError{http.StatusConflict, APIError{CodeNameTaken, "That name is already taken in this room"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomClosed):
		return &httpError{http.StatusGone, APIError{CodeRoomClosed, "Room is closed"}}
	case errors.Is(err, model.ErrInvalidActionForPhase):
		return &httpError{http.StatusConflict, APIError{CodeInvalidActionForPhase, "Not allowed in the current phase"}}
	case errors.Is(err, model.ErrInvalidGuessFormat):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGuessFormat, "Guesses are exactly 4 digits"}}
	case errors.Is(err, model.ErrNotBound):
		return &httpError{http.StatusConflict, APIError{CodeNotBound, "Join a room and register first"}}
	case errors.Is(err, model.ErrAlreadyJoined):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyJoined, "Already joined a room"}}
	case errors.Is(err, model.ErrRateLimited):
		return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many messages, slow down"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
