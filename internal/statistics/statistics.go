package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/pebbles/internal/game"
)

// GameResult is the outcome of one simulated game
type GameResult struct {
	Seed         int64       // RNG seed for this game (for replay)
	FirstPlayer  game.Player // Who moved first
	Winner       game.Player
	UserMoves    int
	ProgramMoves int
}

// Moves returns the number of turns taken by both sides.
func (r GameResult) Moves() int {
	return r.UserMoves + r.ProgramMoves
}

// FirstPlayerStats tracks results for games opened by one player
type FirstPlayerStats struct {
	Games       int
	ProgramWins int
}

// Statistics accumulates simulation results from the Program's point of view
type Statistics struct {
	Games       int
	ProgramWins int
	UserWins    int
	Moves       []float64 // Moves per game for median/percentile calculation
	SumMoves    int

	// Indexed by game.Player
	ByFirstPlayer [2]FirstPlayerStats
}

// Add incorporates a new game result into the statistics
func (s *Statistics) Add(result GameResult) {
	s.Games++
	if result.Winner == game.Program {
		s.ProgramWins++
	} else {
		s.UserWins++
	}

	moves := result.Moves()
	s.SumMoves += moves
	s.Moves = append(s.Moves, float64(moves))

	if fp := result.FirstPlayer; fp == game.User || fp == game.Program {
		s.ByFirstPlayer[fp].Games++
		if result.Winner == game.Program {
			s.ByFirstPlayer[fp].ProgramWins++
		}
	}
}

// WinRate returns the fraction of games the Program won
func (s *Statistics) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.ProgramWins) / float64(s.Games)
}

// Variance returns the sample variance of the per-game win indicator
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	p := s.WinRate()
	// sum of squares equals the win count for a 0/1 variable
	return (float64(s.ProgramWins) - float64(s.Games)*p*p) / float64(s.Games-1)
}

// StdError returns the standard error of the win rate
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return math.Sqrt(s.Variance()) / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the win rate,
// clamped to [0, 1]
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	p := s.WinRate()
	margin := 1.96 * s.StdError()
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

// WinRateWhenFirst returns the Program's win rate over games opened by p
func (s *Statistics) WinRateWhenFirst(p game.Player) float64 {
	if p != game.User && p != game.Program {
		return 0
	}
	fs := s.ByFirstPlayer[p]
	if fs.Games == 0 {
		return 0
	}
	return float64(fs.ProgramWins) / float64(fs.Games)
}

// MeanMoves returns the average number of turns per game
func (s *Statistics) MeanMoves() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.SumMoves) / float64(s.Games)
}

// MedianMoves returns the median number of turns per game
func (s *Statistics) MedianMoves() float64 {
	return s.PercentileMoves(0.5)
}

// PercentileMoves returns the moves-per-game value at percentile p (0.0 to 1.0)
func (s *Statistics) PercentileMoves(p float64) float64 {
	if len(s.Moves) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Moves))
	copy(sorted, s.Moves)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks the counters agree with each other
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if s.ProgramWins+s.UserWins != s.Games {
		return fmt.Errorf("wins (%d program + %d user) do not match games (%d)",
			s.ProgramWins, s.UserWins, s.Games)
	}
	if len(s.Moves) != s.Games {
		return fmt.Errorf("moves length (%d) does not match games count (%d)", len(s.Moves), s.Games)
	}

	firstGames := s.ByFirstPlayer[game.User].Games + s.ByFirstPlayer[game.Program].Games
	if firstGames != s.Games {
		return fmt.Errorf("first player games total (%d) does not match games (%d)", firstGames, s.Games)
	}
	return nil
}

// Summary is the serialisable form of a Statistics.
type Summary struct {
	Games              int        `json:"games"`
	ProgramWins        int        `json:"program_wins"`
	UserWins           int        `json:"user_wins"`
	WinRate            float64    `json:"program_win_rate"`
	ConfidenceInterval [2]float64 `json:"program_win_rate_ci95"`
	MeanMoves          float64    `json:"mean_moves"`
	MedianMoves        float64    `json:"median_moves"`
	UserFirst          FirstSplit `json:"user_first"`
	ProgramFirst       FirstSplit `json:"program_first"`
}

// FirstSplit summarises games opened by one player.
type FirstSplit struct {
	Games          int     `json:"games"`
	ProgramWinRate float64 `json:"program_win_rate"`
}

// Summary returns the headline numbers.
func (s *Statistics) Summary() Summary {
	low, high := s.ConfidenceInterval95()
	return Summary{
		Games:              s.Games,
		ProgramWins:        s.ProgramWins,
		UserWins:           s.UserWins,
		WinRate:            s.WinRate(),
		ConfidenceInterval: [2]float64{low, high},
		MeanMoves:          s.MeanMoves(),
		MedianMoves:        s.MedianMoves(),
		UserFirst: FirstSplit{
			Games:          s.ByFirstPlayer[game.User].Games,
			ProgramWinRate: s.WinRateWhenFirst(game.User),
		},
		ProgramFirst: FirstSplit{
			Games:          s.ByFirstPlayer[game.Program].Games,
			ProgramWinRate: s.WinRateWhenFirst(game.Program),
		},
	}
}
