package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/pebbles/internal/game"
)

// CommandKind identifies what the player typed.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandTake
	CommandGiveUp
	CommandRestart
	CommandState
	CommandHelp
	CommandQuit
)

// Command is a parsed input line.
type Command struct {
	Kind    CommandKind
	Pebbles uint32      // CommandTake
	Config  game.Config // CommandRestart
}

// ErrUnknownCommand is returned for input that matches no command.
var ErrUnknownCommand = errors.New("unknown command")

// HelpText lists the commands accepted at the prompt.
const HelpText = `Commands:
  take N | N                         take N pebbles
  giveup                             concede the game
  restart <easy|hard> <count> <max>  start a new game
  state                              show the current game
  help                               show this help
  quit                               leave`

// ParseCommand parses one line of input. Empty input yields CommandNone.
func ParseCommand(input string) (Command, error) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return Command{Kind: CommandNone}, nil
	}

	action, args := parts[0], parts[1:]

	// a bare number is a take
	if n, err := parsePebbles(action); err == nil && len(args) == 0 {
		return Command{Kind: CommandTake, Pebbles: n}, nil
	}

	switch action {
	case "take", "t":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: take N")
		}
		n, err := parsePebbles(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CommandTake, Pebbles: n}, nil

	case "giveup", "give-up", "forfeit":
		return noArgs(CommandGiveUp, action, args)

	case "restart", "new":
		if len(args) != 3 {
			return Command{}, fmt.Errorf("usage: restart <easy|hard> <count> <max>")
		}
		d, err := game.ParseDifficulty(args[0])
		if err != nil {
			return Command{}, err
		}
		count, err := parsePebbles(args[1])
		if err != nil {
			return Command{}, fmt.Errorf("count: %w", err)
		}
		maxPerTurn, err := parsePebbles(args[2])
		if err != nil {
			return Command{}, fmt.Errorf("max: %w", err)
		}
		return Command{Kind: CommandRestart, Config: game.Config{
			PebblesCount:      count,
			MaxPebblesPerTurn: maxPerTurn,
			Difficulty:        d,
		}}, nil

	case "state", "status", "s":
		return noArgs(CommandState, action, args)

	case "help", "h", "?":
		return noArgs(CommandHelp, action, args)

	case "quit", "exit", "q":
		return noArgs(CommandQuit, action, args)

	default:
		return Command{}, fmt.Errorf("%w %q, type 'help'", ErrUnknownCommand, action)
	}
}

func noArgs(kind CommandKind, action string, args []string) (Command, error) {
	if len(args) > 0 {
		return Command{}, fmt.Errorf("%s takes no arguments", action)
	}
	return Command{Kind: kind}, nil
}

func parsePebbles(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a pebble count", s)
	}
	return uint32(n), nil
}
