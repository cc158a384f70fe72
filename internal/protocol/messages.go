// Package protocol defines the WebSocket message protocol between clients and
// the realtime sync channel.
package protocol

import (
	"encoding/json"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// Message types from client to server
const (
	TypeMessage       = "message"
	TypeSearchResults = "search_results"
)

// Message types from server to client
const (
	TypeInitialState = "initial_state"
	TypeResponse     = "response"
	TypeSessionReset = "session_reset"
	TypeError        = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	SessionID string `json:"session_id,omitempty"`
}

// MessageEvent is sent by the client to submit a conversational turn.
type MessageEvent struct {
	BaseMessage
	Content string `json:"content"`
}

// SearchResultsEvent is sent by the client to submit a structured search. The
// payload is an independent draft, never a mutation of the session draft.
type SearchResultsEvent struct {
	BaseMessage
	Payload json.RawMessage `json:"payload"`
}

// SessionSnapshot is the wire form of a full session.
type SessionSnapshot struct {
	SessionID string           `json:"session_id"`
	Language  domain.Language  `json:"language"`
	Direction string           `json:"direction"`
	Turns     []domain.Turn    `json:"turns"`
	Draft     domain.TripDraft `json:"draft"`
	TurnCount int              `json:"turn_count"`
}

// InitialStateEvent carries the full current session snapshot. Sent exactly
// once per connect; a reconnecting client catches up to the latest state
// rather than replaying missed events.
type InitialStateEvent struct {
	BaseMessage
	Session SessionSnapshot `json:"session"`
}

// ResponseEvent carries one completed turn cycle: the new assistant turn and
// the updated draft. TurnCount lets the client resolve orderings against
// snapshots.
type ResponseEvent struct {
	BaseMessage
	Turn      domain.Turn      `json:"turn"`
	Draft     domain.TripDraft `json:"draft"`
	Language  domain.Language  `json:"language"`
	TurnCount int              `json:"turn_count"`
}

// SessionResetEvent tells the client to clear its local history and draft.
type SessionResetEvent struct {
	BaseMessage
}

// ErrorEvent carries a classified failure, or a transport-level rejection
// identified by Code alone.
type ErrorEvent struct {
	BaseMessage
	Code     string `json:"code"`
	Kind     string `json:"kind,omitempty"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message"`
}

// Transport-level error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeSessionBusy    = "session_busy"
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeClassified     = "classified_error"
)
