package game

import "fmt"

// EventType identifies what happened during an operation.
type EventType string

const (
	EventTypeCounterTurn EventType = "counter_turn"
	EventTypeWon         EventType = "won"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is emitted by the Sequencer. CounterTurn events carry the number of
// pebbles the Program removed; Won events carry the winner.
type Event struct {
	Type    EventType
	Pebbles uint32
	Winner  Player
}

// NewCounterTurnEvent reports a Program move of n pebbles.
func NewCounterTurnEvent(n uint32) Event {
	return Event{Type: EventTypeCounterTurn, Pebbles: n}
}

// NewWonEvent reports the end of the game.
func NewWonEvent(winner Player) Event {
	return Event{Type: EventTypeWon, Winner: winner}
}

func (e Event) String() string {
	switch e.Type {
	case EventTypeCounterTurn:
		return fmt.Sprintf("CounterTurn(%d)", e.Pebbles)
	case EventTypeWon:
		return fmt.Sprintf("Won(%s)", e.Winner)
	default:
		return string(e.Type)
	}
}
