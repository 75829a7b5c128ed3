package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the pebbles server"`
	Play     PlayCmd          `cmd:"" help:"Play against a server in the terminal"`
	Local    LocalCmd         `cmd:"" help:"Play an in-process game in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate many games and report Program win rates"`
}

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pebbles"),
		kong.Description("A two-player pebble counting game against the Program"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
