package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pebbles/internal/game"
)

// ConfigFileName is searched for under the XDG config directories.
const ConfigFileName = "pebbles/server.hcl"

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PEBBLES_"

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	LogFormat string `hcl:"log_format,optional"`
}

// GameSettings describes the game the server starts with when AutoStart is
// set, and the seed for the server's random source.
type GameSettings struct {
	PebblesCount      int    `hcl:"pebbles_count,optional"`
	MaxPebblesPerTurn int    `hcl:"max_pebbles_per_turn,optional"`
	Difficulty        string `hcl:"difficulty,optional"`
	Seed              int64  `hcl:"seed,optional"`
	AutoStart         bool   `hcl:"auto_start,optional"`
}

// envOverrides is filled from PEBBLES_* variables; nil means unset.
type envOverrides struct {
	Address           *string `env:"ADDRESS"`
	Port              *int    `env:"PORT"`
	LogLevel          *string `env:"LOG_LEVEL"`
	LogFormat         *string `env:"LOG_FORMAT"`
	PebblesCount      *int    `env:"COUNT"`
	MaxPebblesPerTurn *int    `env:"MAX_PER_TURN"`
	Difficulty        *string `env:"DIFFICULTY"`
	Seed              *int64  `env:"SEED"`
	AutoStart         *bool   `env:"AUTO_START"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: &ServerSettings{
			Address:   "localhost",
			Port:      8080,
			LogLevel:  "info",
			LogFormat: "text",
		},
		Game: &GameSettings{
			PebblesCount:      21,
			MaxPebblesPerTurn: 3,
			Difficulty:        "easy",
		},
	}
}

// FindServerConfig returns the first pebbles/server.hcl in the XDG config
// search path, or "" if there is none.
func FindServerConfig() string {
	path, err := xdg.SearchConfigFile(ConfigFileName)
	if err != nil {
		return ""
	}
	return path
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if filename == "" {
		return DefaultServerConfig(), nil
	}

	src, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultServerConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseServerConfig(src, filename)
}

// ParseServerConfig decodes HCL source and fills in defaults for anything
// left unset.
func ParseServerConfig(src []byte, filename string) (*ServerConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills zero values from DefaultServerConfig.
func (c *ServerConfig) applyDefaults() {
	def := DefaultServerConfig()
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Game == nil {
		c.Game = def.Game
	}

	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = def.Server.LogFormat
	}

	if c.Game.PebblesCount == 0 {
		c.Game.PebblesCount = def.Game.PebblesCount
	}
	if c.Game.MaxPebblesPerTurn == 0 {
		c.Game.MaxPebblesPerTurn = def.Game.MaxPebblesPerTurn
	}
	if c.Game.Difficulty == "" {
		c.Game.Difficulty = def.Game.Difficulty
	}
}

// ApplyEnv overrides file values with PEBBLES_* variables. A nil environ
// reads the process environment.
func (c *ServerConfig) ApplyEnv(environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Address != nil {
		c.Server.Address = *o.Address
	}
	if o.Port != nil {
		c.Server.Port = *o.Port
	}
	if o.LogLevel != nil {
		c.Server.LogLevel = *o.LogLevel
	}
	if o.LogFormat != nil {
		c.Server.LogFormat = *o.LogFormat
	}
	if o.PebblesCount != nil {
		c.Game.PebblesCount = *o.PebblesCount
	}
	if o.MaxPebblesPerTurn != nil {
		c.Game.MaxPebblesPerTurn = *o.MaxPebblesPerTurn
	}
	if o.Difficulty != nil {
		c.Game.Difficulty = *o.Difficulty
	}
	if o.Seed != nil {
		c.Game.Seed = *o.Seed
	}
	if o.AutoStart != nil {
		c.Game.AutoStart = *o.AutoStart
	}
	return nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.Server.LogLevel)
	}
	switch strings.ToLower(c.Server.LogFormat) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log_format %q", c.Server.LogFormat)
	}

	if _, err := c.GameConfig(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	return nil
}

// GameConfig converts the game block for Sequencer.Initialize.
func (c *ServerConfig) GameConfig() (game.Config, error) {
	g := c.Game
	if g.PebblesCount < 1 || int64(g.PebblesCount) > int64(^uint32(0)) {
		return game.Config{}, fmt.Errorf("%w: pebbles_count %d out of range", game.ErrInvalidConfiguration, g.PebblesCount)
	}
	if g.MaxPebblesPerTurn < 1 || int64(g.MaxPebblesPerTurn) > int64(^uint32(0)) {
		return game.Config{}, fmt.Errorf("%w: max_pebbles_per_turn %d out of range", game.ErrInvalidConfiguration, g.MaxPebblesPerTurn)
	}
	d, err := game.ParseDifficulty(g.Difficulty)
	if err != nil {
		return game.Config{}, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
	}

	cfg := game.Config{
		PebblesCount:      uint32(g.PebblesCount),
		MaxPebblesPerTurn: uint32(g.MaxPebblesPerTurn),
		Difficulty:        d,
	}
	return cfg, cfg.Validate()
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
