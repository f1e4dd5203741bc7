package cli

import (
	"bytes"
	"context"
	"flag"
	"strconv"
	"testing"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/di"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/settings"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

type harness struct {
	app     *App
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	dataDir string
}

func newHarness(t *testing.T) *harness {
	h := &harness{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}, dataDir: t.TempDir()}
	h.app = &App{
		Out: h.out,
		Err: h.errOut,
		Open: func(ctx context.Context) (*di.Container, *config.Config, error) {
			cfg := &config.Config{DataDir: h.dataDir, Port: 8080, HomeCurrency: "TRY"}
			c, err := di.Wire(ctx, cfg, zerolog.Nop())
			return c, cfg, err
		},
	}
	return h
}

// seed opens the data directory once so a test can insert fixtures
func (h *harness) seed(t *testing.T, fn func(c *di.Container)) {
	c, _, err := h.app.Open(context.Background())
	require.NoError(t, err)
	defer c.Close()
	fn(c)
}

func (h *harness) run(args ...string) subcommands.ExitStatus {
	fs := flag.NewFlagSet("fintrackctl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "fintrackctl")
	commander.Output = h.errOut
	commander.Error = h.errOut
	Register(commander)
	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	return commander.Execute(context.Background(), h.app)
}

func TestCalcLoan(t *testing.T) {
	h := newHarness(t)

	status := h.run("calc-loan", "-type", "Mortgage", "-amount", "100000", "-term", "12")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())

	out := h.out.String()
	assert.Contains(t, out, "Mortgage")
	assert.Contains(t, out, "45.00%")
	assert.Contains(t, out, "Monthly payment")
}

func TestCalcLoan_Rejections(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, subcommands.ExitUsageError, h.run("calc-loan", "-amount", "lots"))

	h = newHarness(t)
	assert.Equal(t, subcommands.ExitFailure, h.run("calc-loan", "-amount", "10", "-term", "12"))
	assert.Contains(t, h.errOut.String(), "loan amount must be between")
}

func TestCalcDeposit_WithOverride(t *testing.T) {
	h := newHarness(t)

	status := h.run("calc-deposit", "-amount", "10000", "-term", "12", "-rate", "0.40")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())

	out := h.out.String()
	assert.Contains(t, out, "40.00%")
	assert.Contains(t, out, "Maturity amount")
}

func TestCalcDeposit_UsesStoredPolicyRate(t *testing.T) {
	h := newHarness(t)
	h.seed(t, func(c *di.Container) {
		require.NoError(t, c.SettingsRepo.Set(settings.KeyPolicyRateOverride, "50"))
	})

	status := h.run("calc-deposit", "-amount", "10000", "-term", "1")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	assert.Contains(t, h.out.String(), "50.00%")
}

func TestCalcDeposit_NoRateSource(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, subcommands.ExitFailure, h.run("calc-deposit", "-amount", "10000", "-term", "3"))
}

func TestVerifyIBAN(t *testing.T) {
	h := newHarness(t)
	valid := accounts.BuildIBAN(42)

	status := h.run("verify-iban", valid, "TR000000100000000000000001")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, h.out.String(), valid+"\tvalid")
	assert.Contains(t, h.out.String(), "TR000000100000000000000001\tinvalid")

	h.out.Reset()
	assert.Equal(t, subcommands.ExitUsageError, h.run("verify-iban"))
}

func TestVerifyIBAN_Lookup(t *testing.T) {
	h := newHarness(t)
	var iban string
	h.seed(t, func(c *di.Container) {
		userID := testutil.InsertUser(t, c.LedgerDB.Conn(), "mehmet", "Mehmet", "Demir")
		iban = accounts.BuildIBAN(7)
		testutil.InsertAccount(t, c.LedgerDB.Conn(), userID, "TRY", "0", iban)
	})

	status := h.run("verify-iban", "-lookup", iban, accounts.BuildIBAN(8))
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	assert.Contains(t, h.out.String(), "Me**** De***")
	assert.Contains(t, h.out.String(), "not registered")
}

func TestPortfolio_Markdown(t *testing.T) {
	h := newHarness(t)
	var userID int64
	h.seed(t, func(c *di.Container) {
		userID = testutil.InsertUser(t, c.LedgerDB.Conn(), "zeynep", "Zeynep", "Kaya")
	})

	status := h.run("portfolio", "-user", itoa(userID), "-format", "markdown")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	assert.Contains(t, h.out.String(), "TRY")

	assert.Equal(t, subcommands.ExitUsageError, h.run("portfolio"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("portfolio", "-user", "1", "-format", "pdf"))
}

func TestMigrate(t *testing.T) {
	h := newHarness(t)

	status := h.run("migrate")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	for _, name := range []string{"ledger", "config", "cache"} {
		assert.Contains(t, h.out.String(), name+"\t")
	}
}

func TestCompletionCoversEveryCommand(t *testing.T) {
	tree := Completion()
	fs := flag.NewFlagSet("fintrackctl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "fintrackctl")
	Register(commander)

	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		assert.Contains(t, tree.Sub, c.Name())
	})
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
