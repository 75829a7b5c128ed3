package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"

	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/gameid"
	"github.com/lox/pebbles/internal/tui"
)

// LocalCmd plays against an in-process Sequencer.
type LocalCmd struct {
	GameFlags `embed:""`

	Seed     *int64 `help:"Deterministic RNG seed (optional)"`
	LogFile  string `default:"pebbles.log" type:"path" help:"Log file path"`
	LogLevel string `default:"info" help:"Log level (debug, info, warn, error)"`
	NoColor  bool   `help:"Disable coloured output"`
}

func (c *LocalCmd) Run() error {
	gameCfg, err := c.Config()
	if err != nil {
		return err
	}

	logger, closeLog, err := shared.SetupFileLogger(c.LogFile, c.LogLevel, c.NoColor)
	if err != nil {
		return err
	}
	defer closeLog()

	var requested int64
	if c.Seed != nil {
		requested = *c.Seed
	}
	rng, seed, err := shared.NewRand(requested)
	if err != nil {
		return err
	}
	logger.Info("Starting local game", "seed", seed)

	seq := game.NewSequencer(game.NewStore(), bot.NewEngine(rng, logger), rng, logger)
	local := tui.NewLocalGame(seq, gameid.NewGenerator(quartz.NewReal(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.NewTUIModel(ctx, local, gameCfg, logger)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
