package bot

import (
	"github.com/charmbracelet/log"
)

// OptimalBot plays the residue strategy behind the Hard difficulty: it leaves
// a pool that is one more than a multiple of max+1 whenever it can.
type OptimalBot struct {
	logger *log.Logger
}

// NewOptimalBot creates a new OptimalBot instance.
func NewOptimalBot(logger *log.Logger) *OptimalBot {
	return &OptimalBot{logger: logger}
}

// Name identifies the bot in engine logs.
func (o *OptimalBot) Name() string { return "optimal" }

// Choose returns (remaining-1) mod (max+1) when that is non-zero. A zero
// residue means no take reaches the target pool, so it takes one pebble.
func (o *OptimalBot) Choose(remaining, maxPerTurn uint32) (uint32, error) {
	if err := checkPosition(remaining, maxPerTurn); err != nil {
		return 0, err
	}

	winningMove := WinningMove(remaining, maxPerTurn)
	if winningMove == 0 {
		o.logger.Debug("optimal-bot no residue move, taking one", "remaining", remaining)
		return 1, nil
	}
	o.logger.Debug("optimal-bot residue take", "remaining", remaining, "take", winningMove)
	return winningMove, nil
}

// WinningMove returns the take that leaves one more than a multiple of
// max+1, or 0 if remaining is already on that residue. remaining must be at
// least 1.
func WinningMove(remaining, maxPerTurn uint32) uint32 {
	// max+1 overflows at MaxUint32; every pool fits in one take there
	if maxPerTurn == ^uint32(0) {
		return remaining - 1
	}
	return (remaining - 1) % (maxPerTurn + 1)
}
