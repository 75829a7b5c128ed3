package game

import (
	"fmt"
	"strings"
)

// Difficulty selects the policy the Program uses to pick its moves.
type Difficulty int

const (
	Easy Difficulty = iota
	Hard
)

// String returns the wire name of the difficulty.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty accepts "easy" or "hard" in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "hard":
		return Hard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q", s)
	}
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if d != Easy && d != Hard {
		return nil, fmt.Errorf("unknown difficulty %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Player identifies one side of the game.
type Player int

const (
	User Player = iota
	Program
)

// String returns the wire name of the player.
func (p Player) String() string {
	switch p {
	case User:
		return "user"
	case Program:
		return "program"
	default:
		return fmt.Sprintf("player(%d)", int(p))
	}
}

// Opponent returns the other side.
func (p Player) Opponent() Player {
	if p == User {
		return Program
	}
	return User
}

// ParsePlayer accepts "user" or "program" in any case.
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return User, nil
	case "program":
		return Program, nil
	default:
		return 0, fmt.Errorf("unknown player %q", s)
	}
}

func (p Player) MarshalText() ([]byte, error) {
	if p != User && p != Program {
		return nil, fmt.Errorf("unknown player %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayer(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Status is the coarse position of the game in its lifecycle.
type Status int

const (
	Uninitialized Status = iota
	InProgress
	Concluded
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case InProgress:
		return "in_progress"
	case Concluded:
		return "concluded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Config holds the parameters a game is started or restarted with.
type Config struct {
	PebblesCount      uint32
	MaxPebblesPerTurn uint32
	Difficulty        Difficulty
}

// Validate rejects zero counts and unknown difficulties.
func (c Config) Validate() error {
	if c.PebblesCount == 0 {
		return fmt.Errorf("%w: pebbles_count must be at least 1", ErrInvalidConfiguration)
	}
	if c.MaxPebblesPerTurn == 0 {
		return fmt.Errorf("%w: max_pebbles_per_turn must be at least 1", ErrInvalidConfiguration)
	}
	if c.Difficulty != Easy && c.Difficulty != Hard {
		return fmt.Errorf("%w: unknown difficulty %d", ErrInvalidConfiguration, int(c.Difficulty))
	}
	return nil
}
