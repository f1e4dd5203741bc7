package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Persisted precisions
const (
	MoneyPlaces    int32 = 2
	QuantityPlaces int32 = 8
	RatePlaces     int32 = 4
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// RoundMoney rounds to the stored precision of balances and amounts
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundQuantity rounds to the stored precision of positions
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}

// RoundRate rounds an interest rate fraction to its stored precision
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RatePlaces)
}

// Percent converts a fraction to a percentage (0.45 -> 45)
func Percent(fraction decimal.Decimal) decimal.Decimal {
	return fraction.Mul(hundred)
}

// Fraction converts a percentage to a fraction (45 -> 0.45)
func Fraction(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}

// MonthlyRate returns annual/12
func MonthlyRate(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(twelve)
}

// NormalizeCurrency upper-cases a code and checks it against the ISO-4217 table
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 || money.GetCurrency(code) == nil {
		return "", InvalidState("unsupported currency code %q", code)
	}
	return code, nil
}

// FormatAmount renders an amount with the currency's symbol and grouping, e.g. "₺1.250,00"
func FormatAmount(amount decimal.Decimal, currency string) string {
	c := money.GetCurrency(currency)
	if c == nil {
		return amount.StringFixed(MoneyPlaces) + " " + currency
	}
	minor := RoundMoney(amount).Shift(int32(c.Fraction)).IntPart()
	return money.New(minor, c.Code).Display()
}
