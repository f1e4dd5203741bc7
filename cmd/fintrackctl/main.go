// Command fintrackctl is the operator CLI for a FinTrack data directory.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/fintrack/fintrack/internal/cli"
)

func main() {
	// exits when invoked by the shell for completion
	cli.Completion().Complete("fintrackctl")

	commander := subcommands.NewCommander(flag.CommandLine, "fintrackctl")
	cli.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background(), cli.NewApp())))
}
