// Package cli implements the fintrackctl subcommands.
//
// Every command receives an *App as the first Execute argument. The App owns
// the output stream and knows how to open the wired databases, so commands
// never read global state.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/di"
	"github.com/fintrack/fintrack/pkg/logger"
)

// App carries what commands share
type App struct {
	Out  io.Writer
	Err  io.Writer
	Open func(ctx context.Context) (*di.Container, *config.Config, error)
}

// NewApp returns an App that loads configuration from the environment and logs warnings to stderr
func NewApp() *App {
	return &App{
		Out: os.Stdout,
		Err: os.Stderr,
		Open: func(ctx context.Context) (*di.Container, *config.Config, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, nil, err
			}
			log := logger.New(logger.Config{Level: "warn", Pretty: true, Output: os.Stderr})
			container, err := di.Wire(ctx, cfg, log)
			if err != nil {
				return nil, nil, err
			}
			return container, cfg, nil
		},
	}
}

// Register adds every command to c
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&migrateCmd{}, "maintenance")

	c.Register(&calcLoanCmd{}, "calculators")
	c.Register(&calcDepositCmd{}, "calculators")

	c.Register(&verifyIBANCmd{}, "accounts")
	c.Register(&portfolioCmd{}, "accounts")
}

func appFrom(args []interface{}) *App {
	for _, a := range args {
		if app, ok := a.(*App); ok {
			return app
		}
	}
	return NewApp()
}

func (a *App) failf(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, format+"\n", args...)
	return subcommands.ExitFailure
}

// open wires the databases for the duration of a command; the caller must call the returned close
func (a *App) open(ctx context.Context) (*di.Container, *config.Config, func(), error) {
	container, cfg, err := a.Open(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return container, cfg, container.Close, nil
}
