package wire

import "encoding/json"

// Client -> server event names. These are the wire contract shared with the
// front-end and must match it exactly.
const (
	EvtHostGame = "hostGame"
	EvtJoinGame = "joinGame"
	EvtMakeMove = "makeMove"
)

// Server -> client event names.
const (
	EvtGameHosted           = "gameHosted"
	EvtGameStarted          = "gameStarted"
	EvtMoveMade             = "moveMade"
	EvtError                = "error"
	EvtOpponentDisconnected = "opponentDisconnected"
)

// User-facing error strings. The client matches on them verbatim, so they
// stay in French like the rest of the UI.
const (
	MsgUnknownCode = "Code invalide."
	MsgSessionFull = "Partie pleine."
	MsgHostFailed  = "Impossible de créer la partie."
	MsgBadMessage  = "Message invalide."
)

// ClientMessage is one inbound frame. Code is only set for joinGame,
// Payload only for makeMove. The payload is opaque to the server.
type ClientMessage struct {
	Type    string          `json:"type"`
	Code    string          `json:"code,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is one outbound frame.
type ServerMessage struct {
	Type    string          `json:"type"`
	Code    string          `json:"code,omitempty"`
	Role    string          `json:"role,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}
