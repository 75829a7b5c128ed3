// Package protocol defines the JSON messages exchanged between the pebbles
// server and its clients.
//
// Every frame is a Message envelope whose Data field carries one of the
// payload types below, selected by Type.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/lox/pebbles/internal/game"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeInit   MessageType = "init"
	TypeAction MessageType = "action"

	// Both directions: a query from the client, a snapshot from the server
	TypeState MessageType = "state"

	// Server -> Client
	TypeResult MessageType = "result"
	TypeEvent  MessageType = "event"
	TypeError  MessageType = "error"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case TypeInit, TypeAction, TypeState, TypeResult, TypeEvent, TypeError:
		return true
	}
	return false
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals data into an envelope stamped with now.
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	msg := &Message{Type: messageType, Timestamp: now}
	if data != nil {
		dataBytes, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = dataBytes
	}
	return msg, nil
}

// Client → Server Messages

// ConfigData starts or restarts a game. All three fields are required.
type ConfigData struct {
	PebblesCount      *uint32          `json:"pebbles_count"`
	MaxPebblesPerTurn *uint32          `json:"max_pebbles_per_turn"`
	Difficulty        *game.Difficulty `json:"difficulty"`
}

// Action kinds
const (
	KindTurn    = "turn"
	KindGiveUp  = "give_up"
	KindRestart = "restart"
)

// ActionData carries one in-game action.
type ActionData struct {
	Kind    string      `json:"kind"`
	Pebbles *uint32     `json:"pebbles,omitempty"` // turn only
	Restart *ConfigData `json:"restart,omitempty"` // restart only
}

// Server → Client Messages

// Event kinds
const (
	KindCounterTurn = "counter_turn"
	KindWon         = "won"
)

// EventData is the wire form of a game.Event.
type EventData struct {
	Kind    string       `json:"kind"`
	Pebbles *uint32      `json:"pebbles,omitempty"`
	Winner  *game.Player `json:"winner,omitempty"`
}

// StateData is a snapshot of the live game tagged with its ID.
type StateData struct {
	GameID string `json:"game_id"`
	game.State
}

// ResultData answers an init or action request. The same payload is sent
// as an event to every other connection.
type ResultData struct {
	Events []EventData `json:"events"`
	State  StateData   `json:"state"`
}

// ErrorData reports a rejected request.
type ErrorData struct {
	Code    game.Code `json:"code"`
	Message string    `json:"message"`
}
