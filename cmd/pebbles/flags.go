package main

import (
	"fmt"

	"github.com/lox/pebbles/internal/game"
)

// GameFlags describe the game a command starts.
type GameFlags struct {
	Count      uint32 `default:"21" help:"Pebbles in the pool"`
	Max        uint32 `default:"3" help:"Maximum pebbles per turn"`
	Difficulty string `short:"d" default:"easy" enum:"easy,hard" help:"Program difficulty (easy, hard)"`
}

// Config converts the flags into a validated game configuration.
func (f GameFlags) Config() (game.Config, error) {
	d, err := game.ParseDifficulty(f.Difficulty)
	if err != nil {
		return game.Config{}, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
	}
	cfg := game.Config{
		PebblesCount:      f.Count,
		MaxPebblesPerTurn: f.Max,
		Difficulty:        d,
	}
	return cfg, cfg.Validate()
}

// LogFlags configure the root logger.
type LogFlags struct {
	LogLevel  string `default:"info" help:"Log level (debug, info, warn, error)"`
	LogFormat string `default:"text" enum:"text,json,logfmt" help:"Log format (text, json, logfmt)"`
	NoColor   bool   `help:"Disable coloured output"`
}
