package game

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/pebbles/internal/randutil"
)

// MoveEngine picks how many pebbles the Program removes from s.
// Implementations return ErrInvalidEngineCall for an empty pool.
type MoveEngine interface {
	Move(s State) (uint32, error)
}

// Sequencer runs the game state machine over a Store. It is not safe for
// concurrent use; callers must deliver operations one at a time.
type Sequencer struct {
	store  *Store
	engine MoveEngine
	rng    randutil.Source
	logger *log.Logger
}

// NewSequencer wires a Sequencer to its store, move engine and randomness.
func NewSequencer(store *Store, engine MoveEngine, rng randutil.Source, logger *log.Logger) *Sequencer {
	return &Sequencer{
		store:  store,
		engine: engine,
		rng:    rng,
		logger: logger.WithPrefix("game"),
	}
}

// Initialize starts the first game. If the Program is drawn to move first it
// plays before Initialize returns.
func (s *Sequencer) Initialize(cfg Config) ([]Event, error) {
	if s.store.Initialized() {
		return nil, ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	next, events, err := s.start(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	s.store.Replace(next)
	s.logger.Info("Game initialized",
		"pebbles", next.PebblesCount,
		"maxPerTurn", next.MaxPebblesPerTurn,
		"difficulty", next.Difficulty,
		"firstPlayer", next.FirstPlayer,
		"remaining", next.PebblesRemaining)
	return events, nil
}

// Turn applies a human move of n pebbles and, unless that emptied the pool,
// the Program's reply.
func (s *Sequencer) Turn(n uint32) ([]Event, error) {
	current, err := s.store.Get()
	if err != nil {
		return nil, err
	}
	if current.Concluded() {
		return nil, ErrGameOver
	}
	if n == 0 || n > current.MaxPebblesPerTurn {
		return nil, fmt.Errorf("%w: must take between 1 and %d pebbles, got %d",
			ErrInvalidMove, current.MaxPebblesPerTurn, n)
	}

	next := current.Clone()
	next.remove(n)
	s.logger.Debug("User turn", "pebbles", n, "remaining", next.PebblesRemaining)

	var events []Event
	if next.PebblesRemaining == 0 {
		next.setWinner(User)
		events = append(events, NewWonEvent(User))
	} else {
		events, err = s.programTurn(&next, events)
		if err != nil {
			return nil, fmt.Errorf("turn: %w", err)
		}
	}

	*current = next
	s.logConclusion(next)
	return events, nil
}

// GiveUp concedes the game to the Program.
func (s *Sequencer) GiveUp() ([]Event, error) {
	current, err := s.store.Get()
	if err != nil {
		return nil, err
	}
	if current.Concluded() {
		return nil, ErrGameOver
	}

	current.setWinner(Program)
	s.logger.Info("User gave up", "remaining", current.PebblesRemaining)
	return []Event{NewWonEvent(Program)}, nil
}

// Restart replaces the live game with a fresh one built from cfg. It is
// accepted in any state once a game exists.
func (s *Sequencer) Restart(cfg Config) ([]Event, error) {
	if !s.store.Initialized() {
		return nil, ErrNotInitialized
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	next, events, err := s.start(cfg)
	if err != nil {
		return nil, fmt.Errorf("restart: %w", err)
	}

	s.store.Replace(next)
	s.logger.Info("Game restarted",
		"pebbles", next.PebblesCount,
		"maxPerTurn", next.MaxPebblesPerTurn,
		"difficulty", next.Difficulty,
		"firstPlayer", next.FirstPlayer,
		"remaining", next.PebblesRemaining)
	return events, nil
}

// Handle dispatches an inbound action.
func (s *Sequencer) Handle(a Action) ([]Event, error) {
	switch a.Kind {
	case ActionTurn:
		return s.Turn(a.Pebbles)
	case ActionGiveUp:
		return s.GiveUp()
	case ActionRestart:
		return s.Restart(a.Restart)
	default:
		return nil, fmt.Errorf("unknown action %s", a.Kind)
	}
}

// State returns a read-only snapshot of the live game.
func (s *Sequencer) State() (State, error) {
	return s.store.Snapshot()
}

// start rolls the first player and builds a fresh state, letting the
// Program move if it starts. Nothing is stored.
func (s *Sequencer) start(cfg Config) (State, []Event, error) {
	first := User
	if s.rng.Uint32()&1 == 1 {
		first = Program
	}

	next := newState(cfg, first)
	if first == User {
		return next, nil, nil
	}

	events, err := s.programTurn(&next, nil)
	if err != nil {
		return State{}, nil, err
	}
	s.logConclusion(next)
	return next, events, nil
}

// programTurn asks the engine for a move and applies it to st.
func (s *Sequencer) programTurn(st *State, events []Event) ([]Event, error) {
	if st.PebblesRemaining == 0 {
		return events, ErrInvalidEngineCall
	}

	n, err := s.engine.Move(*st)
	if err != nil {
		return events, err
	}
	if n == 0 || n > st.MaxPebblesPerTurn {
		return events, fmt.Errorf("%w: engine chose %d with max %d", ErrInvalidEngineCall, n, st.MaxPebblesPerTurn)
	}

	st.remove(n)
	events = append(events, NewCounterTurnEvent(n))
	s.logger.Debug("Program turn", "pebbles", n, "remaining", st.PebblesRemaining)

	if st.PebblesRemaining == 0 {
		st.setWinner(Program)
		events = append(events, NewWonEvent(Program))
	}
	return events, nil
}

func (s *Sequencer) logConclusion(st State) {
	if st.Winner != nil {
		s.logger.Info("Game won", "winner", *st.Winner)
	}
}
