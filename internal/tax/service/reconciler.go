package service

import (
	"math"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

// ReconcileLine back-computes the pre-tax money breakdown from the
// tax-inclusive final price the user entered:
//
//	preTaxUnitRate = finalPrice / (1 + percent/100)
//	unitTaxAmount  = finalPrice - preTaxUnitRate
//	lineTaxAmount  = unitTaxAmount * quantity
//	lineSubtotal   = preTaxUnitRate * quantity
//
// The math stays in float64 with no intermediate rounding; compounding
// rounding error across recalculations is worse than carrying the extra
// digits. Callers round with RoundCurrency at display or submission time.
// An unknown or NO_TAX selection reconciles at 0%.
func (e *Engine) ReconcileLine(line taxdomain.LineItem, catalog *taxdomain.Catalog) taxdomain.Amounts {
	percent := 0.0
	if line.HasTax() {
		if rec, ok := catalog.ByID(line.TaxID); ok {
			percent = rec.TaxPercentage
		}
	}

	preTax := line.FinalPrice
	if percent > 0 {
		preTax = line.FinalPrice / (1 + percent/100)
	}
	unitTax := line.FinalPrice - preTax

	return taxdomain.Amounts{
		PreTaxUnitRate: preTax,
		UnitTaxAmount:  unitTax,
		LineTaxAmount:  unitTax * line.Quantity,
		LineSubtotal:   preTax * line.Quantity,
	}
}

// RoundCurrency rounds to 2 decimals for display and submission payloads.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
