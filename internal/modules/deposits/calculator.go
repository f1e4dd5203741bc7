package deposits

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// Term limits in months
const (
	MinTermMonths = 1
	MaxTermMonths = 60
)

var (
	// totalDrop is how many points the 12-month rate sits below the 1-month rate
	totalDrop   = decimal.NewFromInt(16)
	dropSteps   = decimal.NewFromInt(11)
	two         = decimal.NewFromInt(2)
	twelve      = decimal.NewFromInt(12)
	minAmount   = decimal.NewFromInt(1)
	minOverride = decimal.RequireFromString("0.01")
	maxOverride = decimal.NewFromInt(1)
)

// Preview is the priced outcome of a deposit
type Preview struct {
	Amount                    decimal.Decimal `json:"amount"`
	TermMonths                int             `json:"term_months"`
	InterestRate              decimal.Decimal `json:"-"`
	AnnualInterestRatePercent decimal.Decimal `json:"annual_interest_rate"`
	TotalInterest             decimal.Decimal `json:"total_interest"`
	MaturityAmount            decimal.Decimal `json:"maturity_amount"`
	StartDate                 time.Time       `json:"start_date"`
	EndDate                   time.Time       `json:"end_date"`
}

// RateFromPolicy derives the annual rate fraction for a term from the policy rate (a percentage).
// The rate falls linearly by 16 points from 1 to 12 months and is rounded to the nearest half point.
func RateFromPolicy(policyPercent decimal.Decimal, termMonths int) decimal.Decimal {
	drop := totalDrop.Mul(decimal.NewFromInt(int64(termMonths - 1))).Div(dropSteps)
	raw := policyPercent.Sub(drop)
	halfSteps := raw.Mul(two).Round(0)
	return domain.RoundRate(domain.Fraction(halfSteps.Div(two)))
}

// Price computes simple interest over the term: amount × rate × term/12
func Price(amount, rate decimal.Decimal, termMonths int, start time.Time) Preview {
	term := decimal.NewFromInt(int64(termMonths))
	interest := domain.RoundMoney(amount.Mul(rate).Mul(term).Div(twelve))
	return Preview{
		Amount:                    amount,
		TermMonths:                termMonths,
		InterestRate:              rate,
		AnnualInterestRatePercent: domain.Percent(rate),
		TotalInterest:             interest,
		MaturityAmount:            amount.Add(interest),
		StartDate:                 start,
		EndDate:                   start.AddDate(0, termMonths, 0),
	}
}

func validate(amount decimal.Decimal, termMonths int) error {
	if amount.LessThan(minAmount) {
		return domain.InvalidState("deposit amount must be at least %s", minAmount)
	}
	if termMonths < MinTermMonths || termMonths > MaxTermMonths {
		return domain.InvalidState("deposit term must be between %d and %d months", MinTermMonths, MaxTermMonths)
	}
	return nil
}

func validateOverride(rate decimal.Decimal) error {
	if rate.LessThan(minOverride) || rate.GreaterThan(maxOverride) {
		return domain.InvalidState("annual interest rate must be between %s and %s", minOverride, maxOverride)
	}
	return nil
}
