package main

import (
	"context"
	"os"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/server"
)

// ServerCmd runs the WebSocket and HTTP server. Flags override the
// environment, which overrides the config file.
type ServerCmd struct {
	Config    string `short:"c" type:"path" help:"Path to HCL configuration file (default: search XDG config dirs for pebbles/server.hcl)"`
	Addr      string `short:"a" help:"Server address to bind to (overrides config)"`
	Port      int    `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel  string `short:"l" help:"Log level (overrides config)"`
	LogFormat string `help:"Log format: text, json or logfmt (overrides config)"`
	Seed      *int64 `help:"Deterministic RNG seed (overrides config)"`
	AutoStart bool   `help:"Start a game from the config's game block at startup"`
	NoColor   bool   `help:"Disable coloured output"`
}

func (c *ServerCmd) Run() error {
	path := c.Config
	if path == "" {
		path = server.FindServerConfig()
	}

	cfg, err := server.LoadServerConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := shared.SetupLogger(os.Stderr, cfg.Server.LogLevel, cfg.Server.LogFormat, c.NoColor)
	if err != nil {
		return err
	}
	if path != "" {
		logger.Info("Loaded config", "path", path)
	}

	rng, seed, err := shared.NewRand(cfg.Game.Seed)
	if err != nil {
		return err
	}
	logger.Info("Using seed", "seed", seed, "deterministic", cfg.Game.Seed != 0)

	clock := quartz.NewReal()
	gameService := server.NewGameService(logger, rng, clock)

	if cfg.Game.AutoStart {
		gameCfg, err := cfg.GameConfig()
		if err != nil {
			return err
		}
		result, err := gameService.Initialize(gameCfg, nil)
		if err != nil {
			return err
		}
		logger.Info("Started game",
			"gameId", result.State.GameID,
			"pebbles", gameCfg.PebblesCount,
			"maxPerTurn", gameCfg.MaxPebblesPerTurn,
			"difficulty", gameCfg.Difficulty,
			"first", result.State.FirstPlayer)
	}

	srv := server.NewServer(cfg.GetServerAddress(), gameService, logger, clock)

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (c *ServerCmd) applyOverrides(cfg *server.ServerConfig) {
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Server.LogFormat = c.LogFormat
	}
	if c.Seed != nil {
		cfg.Game.Seed = *c.Seed
	}
	if c.AutoStart {
		cfg.Game.AutoStart = true
	}
}
