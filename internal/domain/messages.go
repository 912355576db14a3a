package domain

// WebSocket message types from client.
const (
	MsgTypeAuth = "auth"
	MsgTypePing = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeAuthSuccess = "auth_success"
	MsgTypeAuthError   = "auth_error"
	MsgTypeNewMessage  = "new_message"
	MsgTypeError       = "error"
	MsgTypePong        = "pong"
)

// Fixed client-facing error texts.
const (
	ErrTextInvalidToken   = "Invalid token"
	ErrTextAuthTimeout    = "Authentication timeout"
	ErrTextInvalidFormat  = "Invalid message format"
	ErrTextUnknownMessage = "Unknown message type"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type AuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Server -> Client messages

type AuthSuccessMessage struct {
	Type   string `json:"type"`
	UserID int64  `json:"userId"`
}

type NewMessageOut struct {
	Type string     `json:"type"`
	Data *ChatEvent `json:"data"`
}

type PongMessage struct {
	Type string `json:"type"`
}

// ErrorMessage carries both auth_error and generic error frames.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewAuthSuccess(userID int64) *AuthSuccessMessage {
	return &AuthSuccessMessage{Type: MsgTypeAuthSuccess, UserID: userID}
}

func NewAuthError(message string) *ErrorMessage {
	return &ErrorMessage{Type: MsgTypeAuthError, Message: message}
}

func NewErrorMessage(message string) *ErrorMessage {
	return &ErrorMessage{Type: MsgTypeError, Message: message}
}

func NewNewMessage(event *ChatEvent) *NewMessageOut {
	return &NewMessageOut{Type: MsgTypeNewMessage, Data: event}
}

var pong = &PongMessage{Type: MsgTypePong}

func NewPong() *PongMessage {
	return pong
}
