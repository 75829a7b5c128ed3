package tui

import (
	"context"
	"sync"

	"github.com/lox/pebbles/internal/client"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/gameid"
	"github.com/lox/pebbles/internal/protocol"
)

// Game is what the TUI plays against: a server connection or an in-process
// Sequencer.
type Game interface {
	Initialize(ctx context.Context, cfg game.Config) (client.Update, error)
	Turn(ctx context.Context, n uint32) (client.Update, error)
	GiveUp(ctx context.Context) (client.Update, error)
	Restart(ctx context.Context, cfg game.Config) (client.Update, error)
	State(ctx context.Context) (protocol.StateData, error)
}

var (
	_ Game = (*client.Client)(nil)
	_ Game = (*LocalGame)(nil)
)

// LocalGame runs the game in-process.
type LocalGame struct {
	mu     sync.Mutex
	seq    *game.Sequencer
	ids    *gameid.Generator
	gameID string
}

// NewLocalGame adapts seq to the Game interface.
func NewLocalGame(seq *game.Sequencer, ids *gameid.Generator) *LocalGame {
	return &LocalGame{seq: seq, ids: ids}
}

func (l *LocalGame) Initialize(_ context.Context, cfg game.Config) (client.Update, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.seq.Initialize(cfg)
	if err != nil {
		return client.Update{}, err
	}
	l.gameID = l.ids.Generate()
	return l.update(events)
}

func (l *LocalGame) Turn(_ context.Context, n uint32) (client.Update, error) {
	return l.handle(game.Turn(n))
}

func (l *LocalGame) GiveUp(_ context.Context) (client.Update, error) {
	return l.handle(game.GiveUp())
}

func (l *LocalGame) Restart(_ context.Context, cfg game.Config) (client.Update, error) {
	return l.handle(game.Restart(cfg))
}

func (l *LocalGame) State(_ context.Context) (protocol.StateData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *LocalGame) handle(a game.Action) (client.Update, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.seq.Handle(a)
	if err != nil {
		return client.Update{}, err
	}
	if a.Kind == game.ActionRestart {
		l.gameID = l.ids.Generate()
	}
	return l.update(events)
}

func (l *LocalGame) update(events []game.Event) (client.Update, error) {
	state, err := l.snapshot()
	if err != nil {
		return client.Update{}, err
	}
	return client.Update{Events: events, State: state}, nil
}

func (l *LocalGame) snapshot() (protocol.StateData, error) {
	state, err := l.seq.State()
	if err != nil {
		return protocol.StateData{}, err
	}
	return protocol.StateData{GameID: l.gameID, State: state}, nil
}
