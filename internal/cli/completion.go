package cli

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/fintrack/fintrack/internal/domain"
)

// Completion describes the command tree for shell completion.
// Install with COMP_INSTALL=1 fintrackctl.
func Completion() *complete.Command {
	currencies := predict.Set{"TRY", "USD", "EUR", "GBP"}

	return &complete.Command{
		Sub: map[string]*complete.Command{
			"migrate": {},
			"calc-loan": {
				Flags: map[string]complete.Predictor{
					"type":   predict.Set{string(domain.LoanMortgage), string(domain.LoanAuto), string(domain.LoanPersonal)},
					"amount": predict.Something,
					"term":   predict.Set{"12", "24", "36", "48", "60", "120"},
					"c":      currencies,
				},
			},
			"calc-deposit": {
				Flags: map[string]complete.Predictor{
					"amount": predict.Something,
					"term":   predict.Set{"1", "3", "6", "12"},
					"rate":   predict.Something,
					"c":      currencies,
				},
			},
			"verify-iban": {
				Flags: map[string]complete.Predictor{
					"lookup": predict.Nothing,
				},
				Args: predict.Something,
			},
			"portfolio": {
				Flags: map[string]complete.Predictor{
					"user":   predict.Something,
					"format": predict.Set{"terminal", "markdown"},
					"width":  predict.Something,
				},
			},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
	}
}
