package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/pebbles/internal/randutil"
)

// RandBot takes a uniformly random legal number of pebbles. It backs the
// Easy difficulty.
type RandBot struct {
	rng    randutil.Source
	logger *log.Logger
}

// NewRandBot creates a new RandBot instance.
func NewRandBot(rng randutil.Source, logger *log.Logger) *RandBot {
	return &RandBot{rng: rng, logger: logger}
}

// Name identifies the bot in engine logs.
func (r *RandBot) Name() string { return "rand" }

// Choose draws once and maps the draw onto [1, max]. The modulo bias is at
// most max/2^32 and is ignored.
func (r *RandBot) Choose(remaining, maxPerTurn uint32) (uint32, error) {
	if err := checkPosition(remaining, maxPerTurn); err != nil {
		return 0, err
	}
	n := r.rng.Uint32()%maxPerTurn + 1
	r.logger.Debug("rand-bot random take", "remaining", remaining, "take", n)
	return n, nil
}
