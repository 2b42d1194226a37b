package socket

import (
	"encoding/json"

	"github.com/mcoot/bullsgame/internal/api/apierr"
	"github.com/mcoot/bullsgame/internal/model"
)

// Inbound message types
const (
	TypeJoin           = "join"
	TypeRegister       = "register"
	TypeLeave          = "leave"
	TypeToggleReady    = "toggle_ready"
	TypeToggleObserver = "toggle_observer"
	TypeValidate       = "validate"
	TypeGuess          = "guess"
	TypeSkipGuess      = "skip_guess"
	TypeReset          = "reset"
)

// Outbound message types
const (
	TypeReply   = "reply"
	TypePresent = "present"
)

// Reply statuses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request is a client message. Ref is echoed on the reply so clients can
// match replies to requests.
type Request struct {
	Ref     int64           `json:"ref"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload is the payload of a join request
type JoinPayload struct {
	RoomName model.RoomName `json:"roomName"`
}

// RegisterPayload is the payload of a register request
type RegisterPayload struct {
	RoomName   model.RoomName   `json:"roomName"`
	PlayerName model.PlayerName `json:"playerName"`
}

// ValuePayload carries the input of validate and guess requests
type ValuePayload struct {
	Value string `json:"value"`
}

// Reply answers exactly one Request. Error replies still carry a
// snapshot whose message explains the failure.
type Reply struct {
	Ref     int64            `json:"ref"`
	Type    string           `json:"type"`
	Status  string           `json:"status"`
	Payload model.Snapshot   `json:"payload"`
	Error   *apierr.APIError `json:"error,omitempty"`
}

// OK reports whether the request succeeded
func (r Reply) OK() bool {
	return r.Status == StatusOK
}

// Present pushes a new snapshot to a bound connection
type Present struct {
	Type    string         `json:"type"`
	Payload model.Snapshot `json:"payload"`
}

// Message is any outbound message, decoded by clients before they know
// its type
type Message struct {
	Ref     int64            `json:"ref"`
	Type    string           `json:"type"`
	Status  string           `json:"status,omitempty"`
	Payload model.Snapshot   `json:"payload"`
	Error   *apierr.APIError `json:"error,omitempty"`
}

func okReply(ref int64, snapshot model.Snapshot) Reply {
	return Reply{Ref: ref, Type: TypeReply, Status: StatusOK, Payload: snapshot}
}

func errorReply(ref int64, snapshot model.Snapshot, err error) Reply {
	_, apiErr := apierr.FromError(err)
	snapshot.Message = err.Error()
	return Reply{Ref: ref, Type: TypeReply, Status: StatusError, Payload: snapshot, Error: &apiErr}
}
