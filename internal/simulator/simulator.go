// Package simulator plays batches of games between the Program and a
// scripted stand-in for the user.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/fileutil"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/lox/pebbles/internal/statistics"
)

// Config holds configuration for running simulations
type Config struct {
	Games    int
	Game     game.Config // Program difficulty and pool shape
	Opponent string      // Policy standing in for the user: easy/rand or hard/optimal
	Seed     int64
	Workers  int
	Timeout  time.Duration // Per game
	Logger   *log.Logger
}

// Simulator runs pebbles game simulations
type Simulator struct {
	config Config
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &Simulator{config: config, logger: logger.WithPrefix("simulator")}
}

// Run plays every game and returns the aggregated statistics. Game i is
// seeded with Seed+i, so results do not depend on the worker count.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", s.config.Games)
	}
	if err := s.config.Game.Validate(); err != nil {
		return nil, err
	}
	if _, err := bot.NewPolicy(s.config.Opponent, randutil.NewSequence(), s.logger); err != nil {
		return nil, err
	}

	s.logger.Info("Starting simulation",
		"games", s.config.Games,
		"difficulty", s.config.Game.Difficulty,
		"opponent", s.config.Opponent,
		"seed", s.config.Seed,
		"workers", s.config.Workers)

	results := make([]statistics.GameResult, s.config.Games)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range results {
		g.Go(func() error {
			result, err := s.playGameWithTimeout(gctx, s.config.Seed+int64(i))
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

// playGameWithTimeout runs a single game with timeout protection
func (s *Simulator) playGameWithTimeout(ctx context.Context, seed int64) (statistics.GameResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	result, err := PlayGame(ctx, s.config.Game, s.config.Opponent, seed, s.logger)
	if errors.Is(err, context.DeadlineExceeded) {
		return result, fmt.Errorf("game timed out after %v (seed: %d)", s.config.Timeout, seed)
	}
	return result, err
}

// PlayGame plays one game to completion through a Sequencer. The Program and
// the opponent draw from the same generator seeded with seed.
func PlayGame(ctx context.Context, cfg game.Config, opponent string, seed int64, logger *log.Logger) (statistics.GameResult, error) {
	rng := randutil.New(seed)
	seq := game.NewSequencer(game.NewStore(), bot.NewEngine(rng, logger), rng, logger)

	user, err := bot.NewPolicy(opponent, rng, logger)
	if err != nil {
		return statistics.GameResult{}, err
	}

	result := statistics.GameResult{Seed: seed}

	events, err := seq.Initialize(cfg)
	if err != nil {
		return result, err
	}
	result.ProgramMoves += counterTurns(events)

	for {
		state, err := seq.State()
		if err != nil {
			return result, err
		}
		result.FirstPlayer = state.FirstPlayer
		if state.Concluded() {
			result.Winner = *state.Winner
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		take, err := user.Choose(state.PebblesRemaining, state.MaxPebblesPerTurn)
		if err != nil {
			return result, err
		}
		events, err := seq.Turn(take)
		if err != nil {
			return result, err
		}
		result.UserMoves++
		result.ProgramMoves += counterTurns(events)
	}
}

func counterTurns(events []game.Event) int {
	n := 0
	for _, e := range events {
		if e.Type == game.EventTypeCounterTurn {
			n++
		}
	}
	return n
}

// Report is the JSON document written by WriteReport.
type Report struct {
	Difficulty        game.Difficulty    `json:"difficulty"`
	Opponent          string             `json:"opponent"`
	PebblesCount      uint32             `json:"pebbles_count"`
	MaxPebblesPerTurn uint32             `json:"max_pebbles_per_turn"`
	Seed              int64              `json:"seed"`
	Results           statistics.Summary `json:"results"`
}

// NewReport pairs a run's configuration with its statistics.
func NewReport(config Config, stats *statistics.Statistics) Report {
	return Report{
		Difficulty:        config.Game.Difficulty,
		Opponent:          config.Opponent,
		PebblesCount:      config.Game.PebblesCount,
		MaxPebblesPerTurn: config.Game.MaxPebblesPerTurn,
		Seed:              config.Seed,
		Results:           stats.Summary(),
	}
}

// WriteReport writes report to path atomically, creating missing directories.
func WriteReport(path string, report Report) error {
	return fileutil.WriteJSONAtomic(path, report, 0o644, fileutil.WithParents(), fileutil.WithDirSync())
}

// PrintSummary prints a summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics, config Config) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== %s program vs %s opponent ===\n", config.Game.Difficulty, config.Opponent)
	fmt.Fprintf(w, "Games played: %d (%d pebbles, max %d per turn, seed %d)\n",
		stats.Games, config.Game.PebblesCount, config.Game.MaxPebblesPerTurn, config.Seed)

	fmt.Fprintf(w, "\n=== RESULTS ===\n")
	fmt.Fprintf(w, "Program wins: %d, user wins: %d\n", stats.ProgramWins, stats.UserWins)
	fmt.Fprintf(w, "Program win rate: %.2f%%\n", stats.WinRate()*100)
	fmt.Fprintf(w, "95%% CI: [%.2f%%, %.2f%%]\n", low*100, high*100)
	fmt.Fprintf(w, "Moves per game: mean %.2f, median %.1f, P95 %.1f\n",
		stats.MeanMoves(), stats.MedianMoves(), stats.PercentileMoves(0.95))

	fmt.Fprintf(w, "\n=== FIRST PLAYER ===\n")
	for _, p := range []game.Player{game.User, game.Program} {
		fs := stats.ByFirstPlayer[p]
		if fs.Games > 0 {
			fmt.Fprintf(w, "%s first: %d games, program wins %.2f%%\n", p, fs.Games, stats.WinRateWhenFirst(p)*100)
		}
	}
}
