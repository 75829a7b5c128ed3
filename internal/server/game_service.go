package server

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/gameid"
	"github.com/lox/pebbles/internal/protocol"
	"github.com/lox/pebbles/internal/randutil"
)

// ChangeListener is told about every successful init or action, in the
// order they were applied. origin is the connection that made the request,
// or nil for HTTP.
type ChangeListener interface {
	GameChanged(result protocol.ResultData, origin *Connection)
}

// GameService owns the single game and serializes every operation on it.
type GameService struct {
	mu       sync.Mutex
	seq      *game.Sequencer
	ids      *gameid.Generator
	gameID   string
	listener ChangeListener
	logger   *log.Logger
}

// NewGameService wires a Sequencer with the default move engine. Game IDs
// come from their own crypto source so they never consume draws from rng.
func NewGameService(logger *log.Logger, rng randutil.Source, clock quartz.Clock) *GameService {
	return NewGameServiceWithEngine(logger, rng, bot.NewEngine(rng, logger), gameid.NewGenerator(clock, nil))
}

// NewGameServiceWithEngine allows the engine and ID generator to be swapped.
func NewGameServiceWithEngine(logger *log.Logger, rng randutil.Source, engine game.MoveEngine, ids *gameid.Generator) *GameService {
	return &GameService{
		seq:    game.NewSequencer(game.NewStore(), engine, rng, logger),
		ids:    ids,
		logger: logger.WithPrefix("service"),
	}
}

// SetListener registers the receiver of change notifications.
func (gs *GameService) SetListener(l ChangeListener) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.listener = l
}

// Initialize starts the game.
func (gs *GameService) Initialize(cfg game.Config, origin *Connection) (protocol.ResultData, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	events, err := gs.seq.Initialize(cfg)
	if err != nil {
		gs.logger.Warn("Initialize rejected", "error", err)
		return protocol.ResultData{}, err
	}
	gs.gameID = gs.ids.Generate()
	gs.logger.Info("Game started", "gameId", gs.gameID, "difficulty", cfg.Difficulty)
	return gs.commit(events, origin)
}

// Act applies an in-game action.
func (gs *GameService) Act(action game.Action, origin *Connection) (protocol.ResultData, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	events, err := gs.seq.Handle(action)
	if err != nil {
		gs.logger.Warn("Action rejected", "gameId", gs.gameID, "action", action, "error", err)
		return protocol.ResultData{}, err
	}
	if action.Kind == game.ActionRestart {
		previous := gs.gameID
		gs.gameID = gs.ids.Generate()
		gs.logger.Info("Game restarted", "previous", previous, "gameId", gs.gameID)
	}
	return gs.commit(events, origin)
}

// State returns the current snapshot.
func (gs *GameService) State() (protocol.StateData, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.snapshot()
}

// GameID returns the ID of the live game, or "" before Initialize.
func (gs *GameService) GameID() string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.gameID
}

// commit builds the result and notifies the listener while still holding
// the lock, so broadcasts follow operation order.
func (gs *GameService) commit(events []game.Event, origin *Connection) (protocol.ResultData, error) {
	state, err := gs.snapshot()
	if err != nil {
		return protocol.ResultData{}, err
	}
	result := protocol.ResultData{
		Events: protocol.NewEventsData(events),
		State:  state,
	}
	for _, e := range events {
		gs.logger.Debug("Event", "gameId", gs.gameID, "event", e)
	}
	if gs.listener != nil {
		gs.listener.GameChanged(result, origin)
	}
	return result, nil
}

func (gs *GameService) snapshot() (protocol.StateData, error) {
	state, err := gs.seq.State()
	if err != nil {
		return protocol.StateData{}, err
	}
	return protocol.StateData{GameID: gs.gameID, State: state}, nil
}
