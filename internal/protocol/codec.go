package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lox/pebbles/internal/game"
)

// ErrMalformedPayload is returned for frames that do not decode: bad JSON,
// unknown fields, unknown types or kinds, or missing required fields.
var ErrMalformedPayload = errors.New("malformed payload")

// CodeMalformedPayload is the wire code for ErrMalformedPayload.
const CodeMalformedPayload game.Code = "MALFORMED_PAYLOAD"

// CodeOf extends game.CodeOf with the transport's own error.
func CodeOf(err error) game.Code {
	if errors.Is(err, ErrMalformedPayload) {
		return CodeMalformedPayload
	}
	return game.CodeOf(err)
}

var sentinels = map[game.Code]error{
	game.CodeInvalidConfiguration: game.ErrInvalidConfiguration,
	game.CodeInvalidMove:          game.ErrInvalidMove,
	game.CodeNotInitialized:       game.ErrNotInitialized,
	game.CodeInvalidEngineCall:    game.ErrInvalidEngineCall,
	game.CodeAlreadyInitialized:   game.ErrAlreadyInitialized,
	game.CodeGameOver:             game.ErrGameOver,
	CodeMalformedPayload:          ErrMalformedPayload,
}

// NewErrorData builds the wire form of err.
func NewErrorData(err error) ErrorData {
	return ErrorData{Code: CodeOf(err), Message: err.Error()}
}

// Err turns a received error back into an error that matches the server's
// sentinel with errors.Is.
func (e ErrorData) Err() error {
	if sentinel, ok := sentinels[e.Code]; ok {
		return &RemoteError{Code: e.Code, Message: e.Message, sentinel: sentinel}
	}
	return &RemoteError{Code: e.Code, Message: e.Message}
}

// RemoteError is an error reported by the server.
type RemoteError struct {
	Code     game.Code
	Message  string
	sentinel error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.sentinel
}

// Decode strictly unmarshals a single JSON value into v.
func Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after payload", ErrMalformedPayload)
	}
	return nil
}

// ParseMessage decodes an envelope and checks its type.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := Decode(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrMalformedPayload, msg.Type)
	}
	return &msg, nil
}

// DecodeConfig parses an init payload. Zero counts decode fine and are left
// for game.Config.Validate to reject.
func DecodeConfig(data []byte) (game.Config, error) {
	var cd ConfigData
	if err := Decode(data, &cd); err != nil {
		return game.Config{}, err
	}
	return cd.Config()
}

// Config checks that every field is present and converts to game.Config.
func (cd ConfigData) Config() (game.Config, error) {
	switch {
	case cd.PebblesCount == nil:
		return game.Config{}, fmt.Errorf("%w: missing pebbles_count", ErrMalformedPayload)
	case cd.MaxPebblesPerTurn == nil:
		return game.Config{}, fmt.Errorf("%w: missing max_pebbles_per_turn", ErrMalformedPayload)
	case cd.Difficulty == nil:
		return game.Config{}, fmt.Errorf("%w: missing difficulty", ErrMalformedPayload)
	}
	return game.Config{
		PebblesCount:      *cd.PebblesCount,
		MaxPebblesPerTurn: *cd.MaxPebblesPerTurn,
		Difficulty:        *cd.Difficulty,
	}, nil
}

// NewConfigData is the inverse of ConfigData.Config.
func NewConfigData(cfg game.Config) ConfigData {
	return ConfigData{
		PebblesCount:      &cfg.PebblesCount,
		MaxPebblesPerTurn: &cfg.MaxPebblesPerTurn,
		Difficulty:        &cfg.Difficulty,
	}
}

// DecodeAction parses an action payload.
func DecodeAction(data []byte) (game.Action, error) {
	var ad ActionData
	if err := Decode(data, &ad); err != nil {
		return game.Action{}, err
	}
	return ad.Action()
}

// Action validates the shape of the payload for its kind and converts it.
func (ad ActionData) Action() (game.Action, error) {
	switch ad.Kind {
	case KindTurn:
		if ad.Pebbles == nil || ad.Restart != nil {
			return game.Action{}, fmt.Errorf("%w: turn takes exactly a pebbles field", ErrMalformedPayload)
		}
		return game.Turn(*ad.Pebbles), nil
	case KindGiveUp:
		if ad.Pebbles != nil || ad.Restart != nil {
			return game.Action{}, fmt.Errorf("%w: give_up takes no fields", ErrMalformedPayload)
		}
		return game.GiveUp(), nil
	case KindRestart:
		if ad.Restart == nil || ad.Pebbles != nil {
			return game.Action{}, fmt.Errorf("%w: restart takes exactly a restart field", ErrMalformedPayload)
		}
		cfg, err := ad.Restart.Config()
		if err != nil {
			return game.Action{}, err
		}
		return game.Restart(cfg), nil
	default:
		return game.Action{}, fmt.Errorf("%w: unknown action kind %q", ErrMalformedPayload, ad.Kind)
	}
}

// NewActionData is the inverse of ActionData.Action.
func NewActionData(a game.Action) ActionData {
	switch a.Kind {
	case game.ActionTurn:
		n := a.Pebbles
		return ActionData{Kind: KindTurn, Pebbles: &n}
	case game.ActionRestart:
		cd := NewConfigData(a.Restart)
		return ActionData{Kind: KindRestart, Restart: &cd}
	default:
		return ActionData{Kind: KindGiveUp}
	}
}

// NewEventData converts a game event for the wire.
func NewEventData(e game.Event) EventData {
	switch e.Type {
	case game.EventTypeCounterTurn:
		n := e.Pebbles
		return EventData{Kind: KindCounterTurn, Pebbles: &n}
	default:
		w := e.Winner
		return EventData{Kind: KindWon, Winner: &w}
	}
}

// NewEventsData converts a batch of events, never returning nil.
func NewEventsData(events []game.Event) []EventData {
	out := make([]EventData, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventData(e))
	}
	return out
}

// Event converts a received event back into a game.Event.
func (ed EventData) Event() (game.Event, error) {
	switch ed.Kind {
	case KindCounterTurn:
		if ed.Pebbles == nil {
			return game.Event{}, fmt.Errorf("%w: counter_turn without pebbles", ErrMalformedPayload)
		}
		return game.NewCounterTurnEvent(*ed.Pebbles), nil
	case KindWon:
		if ed.Winner == nil {
			return game.Event{}, fmt.Errorf("%w: won without winner", ErrMalformedPayload)
		}
		return game.NewWonEvent(*ed.Winner), nil
	default:
		return game.Event{}, fmt.Errorf("%w: unknown event kind %q", ErrMalformedPayload, ed.Kind)
	}
}

// Events converts a batch of received events.
func Events(data []EventData) ([]game.Event, error) {
	out := make([]game.Event, 0, len(data))
	for _, ed := range data {
		e, err := ed.Event()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
