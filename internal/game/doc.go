// Package game implements the pebbles state machine.
//
// A pool of pebbles starts at a configured count. The User and the Program
// take turns removing between 1 and a configured maximum; whoever removes the
// last pebble wins.
//
// The main type is Sequencer, which owns the flow of a single game stored in
// a Store: it validates and applies human turns, asks a MoveEngine for the
// Program's reply, detects the winner and handles concession and restart.
//
// # Basic Usage
//
//	store := game.NewStore()
//	seq := game.NewSequencer(store, bot.NewEngine(rng, logger), rng, logger)
//	events, err := seq.Initialize(game.Config{
//	    PebblesCount:      10,
//	    MaxPebblesPerTurn: 3,
//	    Difficulty:        game.Hard,
//	})
//	// Program may already have moved
//	events, err = seq.Turn(2)
//	state, err := seq.State()
//
// # Deterministic Testing
//
// Randomness is injected as a randutil.Source. Both the first-player roll and
// Easy moves draw from it, so a scripted source makes every game exact:
//
//	rng := randutil.NewSequence(1, 1) // Program first, then takes 2
//	seq := game.NewSequencer(game.NewStore(), bot.NewEngine(rng, logger), rng, logger)
//
// # Events
//
// Each operation returns the events it produced in order. An operation emits
// at most one CounterTurn and at most one Won, and CounterTurn always comes
// first. Failed operations return an error and leave the Store unchanged.
package game
