package game

import "fmt"

// ActionKind selects which in-game action an Action carries.
type ActionKind int

const (
	ActionTurn ActionKind = iota
	ActionGiveUp
	ActionRestart
)

func (k ActionKind) String() string {
	switch k {
	case ActionTurn:
		return "turn"
	case ActionGiveUp:
		return "give_up"
	case ActionRestart:
		return "restart"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is the inbound union delivered after Initialize.
type Action struct {
	Kind    ActionKind
	Pebbles uint32 // ActionTurn only
	Restart Config // ActionRestart only
}

// Turn builds a human move of n pebbles.
func Turn(n uint32) Action {
	return Action{Kind: ActionTurn, Pebbles: n}
}

// GiveUp builds a concession.
func GiveUp() Action {
	return Action{Kind: ActionGiveUp}
}

// Restart builds a restart with fresh parameters.
func Restart(cfg Config) Action {
	return Action{Kind: ActionRestart, Restart: cfg}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTurn:
		return fmt.Sprintf("Turn(%d)", a.Pebbles)
	case ActionRestart:
		return fmt.Sprintf("Restart(%s, %d, %d)", a.Restart.Difficulty, a.Restart.PebblesCount, a.Restart.MaxPebblesPerTurn)
	default:
		return a.Kind.String()
	}
}
