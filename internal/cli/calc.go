package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/deposits"
	"github.com/fintrack/fintrack/internal/modules/loans"
)

// calcLoanCmd previews a loan without touching any database
type calcLoanCmd struct {
	loanType string
	amount   string
	term     int
	currency string
}

func (*calcLoanCmd) Name() string     { return "calc-loan" }
func (*calcLoanCmd) Synopsis() string { return "preview the monthly payment and total cost of a loan" }
func (*calcLoanCmd) Usage() string {
	return `fintrackctl calc-loan -type <Mortgage|Auto|Personal> -amount <amount> -term <months>

  Prices a loan with the same rules used at origination.
`
}

func (c *calcLoanCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.loanType, "type", string(domain.LoanPersonal), "loan product: Mortgage, Auto or Personal")
	f.StringVar(&c.amount, "amount", "", "principal")
	f.IntVar(&c.term, "term", 12, "term in months")
	f.StringVar(&c.currency, "c", "TRY", "currency used to format amounts")
}

func (c *calcLoanCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)

	principal, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(app.Err, "invalid -amount %q\n", c.amount)
		return subcommands.ExitUsageError
	}

	quote, err := loans.Calculate(domain.ParseLoanType(c.loanType), principal, c.term)
	if err != nil {
		return app.failf("Error: %s", domain.Message(err))
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Loan type\t%s\n", quote.Type)
	fmt.Fprintf(w, "Principal\t%s\n", domain.FormatAmount(quote.Principal, c.currency))
	fmt.Fprintf(w, "Term\t%d months\n", quote.TermMonths)
	fmt.Fprintf(w, "Annual rate\t%s%%\n", quote.InterestRatePercent.StringFixed(2))
	fmt.Fprintf(w, "Monthly payment\t%s\n", domain.FormatAmount(quote.MonthlyPayment, c.currency))
	fmt.Fprintf(w, "Total repayment\t%s\n", domain.FormatAmount(quote.TotalRepayment, c.currency))
	fmt.Fprintf(w, "Total interest\t%s\n", domain.FormatAmount(quote.TotalInterest, c.currency))
	if err := w.Flush(); err != nil {
		return app.failf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// calcDepositCmd previews a time deposit. Without -rate the policy-rate provider is consulted.
type calcDepositCmd struct {
	amount   string
	term     int
	rate     string
	currency string
}

func (*calcDepositCmd) Name() string     { return "calc-deposit" }
func (*calcDepositCmd) Synopsis() string { return "preview interest and maturity of a time deposit" }
func (*calcDepositCmd) Usage() string {
	return `fintrackctl calc-deposit -amount <amount> -term <months> [-rate <fraction>]

  Prices a time deposit. -rate is an annual fraction (0.45 = 45%); when omitted
  the rate is derived from the central-bank policy rate.
`
}

func (c *calcDepositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "amount to deposit")
	f.IntVar(&c.term, "term", 3, "term in months")
	f.StringVar(&c.rate, "rate", "", "annual rate override as a fraction")
	f.StringVar(&c.currency, "c", "TRY", "currency used to format amounts")
}

func (c *calcDepositCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)

	req := deposits.CalculationRequest{TermMonths: c.term}
	var err error
	if req.Amount, err = decimal.NewFromString(c.amount); err != nil {
		fmt.Fprintf(app.Err, "invalid -amount %q\n", c.amount)
		return subcommands.ExitUsageError
	}
	if c.rate != "" {
		if req.AnnualRate, err = decimal.NewFromString(c.rate); err != nil {
			fmt.Fprintf(app.Err, "invalid -rate %q\n", c.rate)
			return subcommands.ExitUsageError
		}
	}

	container, _, closeAll, err := app.open(ctx)
	if err != nil {
		return app.failf("Error opening databases: %v", err)
	}
	defer closeAll()

	preview, err := container.DepositService.CalculateDeposit(ctx, req)
	if err != nil {
		return app.failf("Error: %s", domain.Message(err))
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Amount\t%s\n", domain.FormatAmount(preview.Amount, c.currency))
	fmt.Fprintf(w, "Term\t%d months\n", preview.TermMonths)
	fmt.Fprintf(w, "Annual rate\t%s%%\n", preview.AnnualInterestRatePercent.StringFixed(2))
	fmt.Fprintf(w, "Total interest\t%s\n", domain.FormatAmount(preview.TotalInterest, c.currency))
	fmt.Fprintf(w, "Maturity amount\t%s\n", domain.FormatAmount(preview.MaturityAmount, c.currency))
	fmt.Fprintf(w, "Ends\t%s\n", preview.EndDate.Format("2006-01-02"))
	if err := w.Flush(); err != nil {
		return app.failf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}
