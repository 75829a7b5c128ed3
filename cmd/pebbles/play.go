package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"

	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/client"
	"github.com/lox/pebbles/internal/tui"
)

// PlayCmd connects to a server and plays in the terminal. If the server
// already has a game the TUI joins it instead of starting one.
type PlayCmd struct {
	GameFlags `embed:""`

	Server   string        `short:"s" default:"http://localhost:8080" env:"PEBBLES_SERVER" help:"Server URL"`
	Timeout  time.Duration `default:"10s" help:"Request timeout"`
	LogFile  string        `default:"pebbles.log" type:"path" help:"Log file path"`
	LogLevel string        `default:"info" help:"Log level (debug, info, warn, error)"`
	NoColor  bool          `help:"Disable coloured output"`
}

func (c *PlayCmd) Run() error {
	gameCfg, err := c.Config()
	if err != nil {
		return err
	}

	logger, closeLog, err := shared.SetupFileLogger(c.LogFile, c.LogLevel, c.NoColor)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := quartz.NewReal()
	waitCtx, cancelWait := context.WithTimeout(ctx, c.Timeout)
	err = client.WaitForHealthy(waitCtx, c.Server, clock)
	cancelWait()
	if err != nil {
		return fmt.Errorf("server not ready: %w", err)
	}

	cl := client.NewClient(c.Server, logger, clock, c.Timeout)
	if err := cl.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", c.Server, err)
	}
	defer func() { _ = cl.Close() }()

	logger.Info("Starting pebbles client", "server", c.Server)

	model := tui.NewTUIModel(ctx, cl, gameCfg, logger)
	model.SetUpdates(cl.Updates())
	model.AddLogEntry("Connected to " + c.Server)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
