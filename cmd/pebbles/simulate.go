package main

import (
	"os"
	"time"

	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/simulator"
)

// SimulateCmd plays many games between the Program and a scripted user.
type SimulateCmd struct {
	GameFlags `embed:""`
	LogFlags  `embed:""`

	Games    int           `short:"n" default:"1000" help:"Number of games to play"`
	Opponent string        `default:"easy" enum:"easy,rand,hard,optimal" help:"Policy standing in for the user"`
	Seed     int64         `default:"1" help:"Seed for the first game; game i uses seed+i"`
	Workers  int           `default:"0" help:"Games played in parallel (0 uses GOMAXPROCS)"`
	Timeout  time.Duration `default:"5s" help:"Per-game timeout"`
	Out      string        `short:"o" type:"path" help:"Write a JSON report to this file"`
}

func (c *SimulateCmd) Run() error {
	gameCfg, err := c.Config()
	if err != nil {
		return err
	}

	logger, err := shared.SetupLogger(os.Stderr, c.LogLevel, c.LogFormat, c.NoColor)
	if err != nil {
		return err
	}

	config := simulator.Config{
		Games:    c.Games,
		Game:     gameCfg,
		Opponent: c.Opponent,
		Seed:     c.Seed,
		Workers:  c.Workers,
		Timeout:  c.Timeout,
		Logger:   logger,
	}

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	start := time.Now()
	stats, err := simulator.New(config).Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Simulation finished", "games", stats.Games, "duration", time.Since(start).Round(time.Millisecond))

	simulator.PrintSummary(os.Stdout, stats, config)

	if c.Out != "" {
		if err := simulator.WriteReport(c.Out, simulator.NewReport(config, stats)); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", c.Out)
	}
	return nil
}
