package main

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pebbles/internal/game"
)

func TestGameFlagsConfig(t *testing.T) {
	cfg, err := GameFlags{Count: 15, Max: 4, Difficulty: "hard"}.Config()
	require.NoError(t, err)
	assert.Equal(t, game.Config{PebblesCount: 15, MaxPebblesPerTurn: 4, Difficulty: game.Hard}, cfg)

	_, err = GameFlags{Count: 0, Max: 4, Difficulty: "easy"}.Config()
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)

	_, err = GameFlags{Count: 5, Max: 4, Difficulty: "medium"}.Config()
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
}

func TestCLIParsing(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"simulate", "-n", "50", "--count", "20", "--max", "3", "-d", "hard", "--opponent", "optimal"})
	require.NoError(t, err)
	assert.Equal(t, "simulate", ctx.Command())
	assert.Equal(t, 50, cli.Simulate.Games)
	assert.Equal(t, uint32(20), cli.Simulate.Count)
	assert.Equal(t, "hard", cli.Simulate.Difficulty)
	assert.Equal(t, "info", cli.Simulate.LogLevel)

	_, err = parser.Parse([]string{"local", "-d", "medium"})
	assert.Error(t, err)

	ctx, err = parser.Parse([]string{"server", "--port", "9000", "--seed", "7"})
	require.NoError(t, err)
	assert.Equal(t, "server", ctx.Command())
	require.NotNil(t, cli.Server.Seed)
	assert.Equal(t, int64(7), *cli.Server.Seed)
}
