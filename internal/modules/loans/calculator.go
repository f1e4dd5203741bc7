package loans

import (
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// Origination limits
const (
	MinTermMonths = 3
	MaxTermMonths = 120
)

var (
	minPrincipal = decimal.NewFromInt(1000)
	maxPrincipal = decimal.NewFromInt(5000000)
	rateFloor    = decimal.RequireFromString("0.20")
	longTermCut  = decimal.RequireFromString("0.05")
	midTermCut   = decimal.RequireFromString("0.03")
)

// baseRates is the annual rate per product before the term adjustment
var baseRates = map[domain.LoanType]decimal.Decimal{
	domain.LoanMortgage: decimal.RequireFromString("0.45"),
	domain.LoanAuto:     decimal.RequireFromString("0.55"),
	domain.LoanPersonal: decimal.RequireFromString("0.65"),
}

// Quote is the priced schedule of a loan. InterestRatePercent is the annual rate as a percentage.
type Quote struct {
	Type                domain.LoanType `json:"loan_type"`
	Principal           decimal.Decimal `json:"principal"`
	TermMonths          int             `json:"term_months"`
	InterestRate        decimal.Decimal `json:"-"`
	InterestRatePercent decimal.Decimal `json:"annual_interest_rate"`
	MonthlyPayment      decimal.Decimal `json:"monthly_payment"`
	TotalRepayment      decimal.Decimal `json:"total_repayment"`
	TotalInterest       decimal.Decimal `json:"total_interest"`
}

// AnnualRate returns the rate fraction for a product and term.
// Terms over 60 months take 5 points off, over 36 months 3 points; the result never drops below 20%.
func AnnualRate(loanType domain.LoanType, termMonths int) decimal.Decimal {
	rate, ok := baseRates[loanType]
	if !ok {
		rate = baseRates[domain.LoanPersonal]
	}
	switch {
	case termMonths > 60:
		rate = rate.Sub(longTermCut)
	case termMonths > 36:
		rate = rate.Sub(midTermCut)
	}
	if rate.LessThan(rateFloor) {
		rate = rateFloor
	}
	return domain.RoundRate(rate)
}

// MonthlyPayment is the annuity payment for principal over termMonths at annualRate
func MonthlyPayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	term := decimal.NewFromInt(int64(termMonths))
	r := domain.MonthlyRate(annualRate)
	if !r.IsPositive() {
		return domain.RoundMoney(principal.Div(term))
	}
	factor := decimal.NewFromInt(1).Add(r).Pow(term)
	return domain.RoundMoney(principal.Mul(r.Mul(factor)).Div(factor.Sub(decimal.NewFromInt(1))))
}

// Calculate prices a loan without persisting anything
func Calculate(loanType domain.LoanType, principal decimal.Decimal, termMonths int) (*Quote, error) {
	principal = domain.RoundMoney(principal)
	if principal.LessThan(minPrincipal) || principal.GreaterThan(maxPrincipal) {
		return nil, domain.InvalidState("loan amount must be between %s and %s", minPrincipal, maxPrincipal)
	}
	if termMonths < MinTermMonths || termMonths > MaxTermMonths {
		return nil, domain.InvalidState("loan term must be between %d and %d months", MinTermMonths, MaxTermMonths)
	}

	rate := AnnualRate(loanType, termMonths)
	payment := MonthlyPayment(principal, rate, termMonths)
	total := domain.RoundMoney(payment.Mul(decimal.NewFromInt(int64(termMonths))))

	return &Quote{
		Type:                loanType,
		Principal:           principal,
		TermMonths:          termMonths,
		InterestRate:        rate,
		InterestRatePercent: domain.Percent(rate),
		MonthlyPayment:      payment,
		TotalRepayment:      total,
		TotalInterest:       total.Sub(principal),
	}, nil
}
