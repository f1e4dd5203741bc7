package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/reports"
)

// verifyIBANCmd checks IBAN checksums and, with -lookup, resolves the holder
type verifyIBANCmd struct {
	lookup bool
}

func (*verifyIBANCmd) Name() string     { return "verify-iban" }
func (*verifyIBANCmd) Synopsis() string { return "validate IBANs and show the masked account holder" }
func (*verifyIBANCmd) Usage() string {
	return `fintrackctl verify-iban [-lookup] <iban>...

  Validates the mod-97 checksum of each IBAN. With -lookup, the ledger is
  searched for an active account and the holder's masked name is printed.
`
}

func (c *verifyIBANCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.lookup, "lookup", false, "search the ledger for the account holder")
}

func (c *verifyIBANCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() == 0 {
		fmt.Fprintln(app.Err, "at least one IBAN is required")
		return subcommands.ExitUsageError
	}

	var lookup func(string) string
	if c.lookup {
		container, _, closeAll, err := app.open(ctx)
		if err != nil {
			return app.failf("Error opening databases: %v", err)
		}
		defer closeAll()

		lookup = func(iban string) string {
			recipient, err := container.TransferService.VerifyRecipientByIBAN(ctx, iban)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return "not registered"
			case err != nil:
				return "lookup failed: " + domain.Message(err)
			}
			return fmt.Sprintf("%s (%s)", recipient.MaskedName, recipient.Currency)
		}
	}

	status := subcommands.ExitSuccess
	for _, raw := range f.Args() {
		iban := accounts.NormalizeIBAN(raw)
		if !accounts.ValidIBAN(iban) {
			fmt.Fprintf(app.Out, "%s\tinvalid\n", iban)
			status = subcommands.ExitFailure
			continue
		}
		if lookup == nil {
			fmt.Fprintf(app.Out, "%s\tvalid\n", iban)
			continue
		}
		fmt.Fprintf(app.Out, "%s\tvalid\t%s\n", iban, lookup(iban))
	}
	return status
}

// portfolioCmd prints a user's valued portfolio
type portfolioCmd struct {
	userID int64
	format string
	width  int
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "display the valued portfolio of a user" }
func (*portfolioCmd) Usage() string {
	return `fintrackctl portfolio -user <id> [-format terminal|markdown] [-width <columns>]

  Values every open position through the price oracle and prints a report.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.userID, "user", 0, "user id")
	f.StringVar(&c.format, "format", "terminal", "output format: terminal or markdown")
	f.IntVar(&c.width, "width", 100, "word wrap width for terminal output")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if c.userID <= 0 {
		fmt.Fprintln(app.Err, "-user is required")
		return subcommands.ExitUsageError
	}
	if c.format != "terminal" && c.format != "markdown" {
		fmt.Fprintf(app.Err, "unknown -format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	container, _, closeAll, err := app.open(ctx)
	if err != nil {
		return app.failf("Error opening databases: %v", err)
	}
	defer closeAll()

	summary, err := container.Valuator.Summary(ctx, c.userID)
	if err != nil {
		return app.failf("Error valuing portfolio: %s", domain.Message(err))
	}

	md, err := reports.PortfolioMarkdown(summary)
	if err != nil {
		return app.failf("Error rendering report: %v", err)
	}
	if c.format == "terminal" {
		if md, err = reports.Terminal(md, c.width); err != nil {
			return app.failf("Error rendering report: %v", err)
		}
	}

	fmt.Fprint(app.Out, md)
	return subcommands.ExitSuccess
}

// migrateCmd creates or upgrades the databases
type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or upgrade the ledger, config and cache databases" }
func (*migrateCmd) Usage() string {
	return `fintrackctl migrate

  Opens every database under FINTRACK_DATA_DIR and applies the embedded schemas.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)

	container, _, closeAll, err := app.open(ctx)
	if err != nil {
		return app.failf("Error migrating databases: %v", err)
	}
	defer closeAll()

	for _, db := range container.Databases() {
		if err := db.HealthCheck(ctx); err != nil {
			return app.failf("Database %s failed its health check: %v", db.Name(), err)
		}
		fmt.Fprintf(app.Out, "%s\t%s\tok\n", db.Name(), db.Path())
	}
	return subcommands.ExitSuccess
}
