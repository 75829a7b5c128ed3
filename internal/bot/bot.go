// Package bot implements the Program's move engine and the policies behind
// each difficulty.
package bot

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
)

// Policy picks how many pebbles to take from a pool.
type Policy interface {
	Name() string
	Choose(remaining, maxPerTurn uint32) (uint32, error)
}

// Engine is the game.MoveEngine used by the Sequencer. It routes each
// request to the policy for the game's difficulty.
type Engine struct {
	easy   Policy
	hard   Policy
	logger *log.Logger
}

var _ game.MoveEngine = (*Engine)(nil)

// NewEngine returns an engine with RandBot for Easy and OptimalBot for Hard.
func NewEngine(rng randutil.Source, logger *log.Logger) *Engine {
	logger = logger.WithPrefix("bot")
	return &Engine{
		easy:   NewRandBot(rng, logger),
		hard:   NewOptimalBot(logger),
		logger: logger,
	}
}

// Move implements game.MoveEngine.
func (e *Engine) Move(s game.State) (uint32, error) {
	policy, err := e.PolicyFor(s.Difficulty)
	if err != nil {
		return 0, err
	}

	n, err := policy.Choose(s.PebblesRemaining, s.MaxPebblesPerTurn)
	if err != nil {
		return 0, err
	}

	e.logger.Debug("Program move",
		"policy", policy.Name(),
		"remaining", s.PebblesRemaining,
		"maxPerTurn", s.MaxPebblesPerTurn,
		"take", n)
	return n, nil
}

// PolicyFor returns the policy used for d.
func (e *Engine) PolicyFor(d game.Difficulty) (Policy, error) {
	switch d {
	case game.Easy:
		return e.easy, nil
	case game.Hard:
		return e.hard, nil
	default:
		return nil, fmt.Errorf("%w: unknown difficulty %d", game.ErrInvalidEngineCall, int(d))
	}
}

// NewPolicy builds a policy by name: "easy"/"rand" or "hard"/"optimal".
func NewPolicy(name string, rng randutil.Source, logger *log.Logger) (Policy, error) {
	switch name {
	case "easy", "rand":
		return NewRandBot(rng, logger), nil
	case "hard", "optimal":
		return NewOptimalBot(logger), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

func checkPosition(remaining, maxPerTurn uint32) error {
	if remaining == 0 {
		return fmt.Errorf("%w: no pebbles remaining", game.ErrInvalidEngineCall)
	}
	if maxPerTurn == 0 {
		return fmt.Errorf("%w: max pebbles per turn is zero", game.ErrInvalidEngineCall)
	}
	return nil
}
