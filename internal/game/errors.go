package game

import "errors"

var (
	// ErrInvalidConfiguration is returned when a game is started with a zero
	// pebble count or a zero per-turn maximum.
	ErrInvalidConfiguration = errors.New("invalid game configuration")

	// ErrInvalidMove is returned for a turn of zero pebbles or more than the
	// per-turn maximum.
	ErrInvalidMove = errors.New("invalid move")

	// ErrNotInitialized is returned by every operation except Initialize
	// while no game exists.
	ErrNotInitialized = errors.New("game not initialized")

	// ErrInvalidEngineCall is returned when the move engine is asked to move
	// on an empty pool.
	ErrInvalidEngineCall = errors.New("invalid engine call")

	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("game already initialized")

	// ErrGameOver is returned by Turn and GiveUp once a winner is set.
	ErrGameOver = errors.New("game is over")
)

// Code is a machine-readable error code carried on the wire.
type Code string

const (
	CodeUnknown              Code = "UNKNOWN"
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	CodeInvalidMove          Code = "INVALID_MOVE"
	CodeNotInitialized       Code = "NOT_INITIALIZED"
	CodeInvalidEngineCall    Code = "INVALID_ENGINE_CALL"
	CodeAlreadyInitialized   Code = "ALREADY_INITIALIZED"
	CodeGameOver             Code = "GAME_OVER"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrInvalidConfiguration, CodeInvalidConfiguration},
	{ErrInvalidMove, CodeInvalidMove},
	{ErrNotInitialized, CodeNotInitialized},
	{ErrInvalidEngineCall, CodeInvalidEngineCall},
	{ErrAlreadyInitialized, CodeAlreadyInitialized},
	{ErrGameOver, CodeGameOver},
}

// CodeOf maps a (possibly wrapped) game error to its code.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
