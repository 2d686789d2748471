package service

import (
	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

// Validator messages, displayed as per-line blocking errors.
const (
	MsgIGSTIntrastate    = "IGST cannot be applied as this is an intrastate transaction."
	MsgCGSTSGSTInterstate = "For interstate orders, IGST should be applied instead of CGST/SGST for this rate."
)

// ValidateOrder re-checks every line immediately before submission and
// returns the mismatches that escaped auto-correction. An empty result
// means the order may be submitted.
//
// The two rules are asymmetric: IGST on an intrastate order is always wrong,
// while CGST/SGST on an interstate order is only flagged when the catalog
// actually offers an IGST record at the same rate. A missing catalog option
// is not the line's fault.
func (e *Engine) ValidateOrder(lines []taxdomain.LineItem, catalog *taxdomain.Catalog, isInterstate bool) []taxdomain.Issue {
	issues := make([]taxdomain.Issue, 0)
	for i, line := range lines {
		if !line.HasTax() {
			continue
		}
		rec, ok := catalog.ByID(line.TaxID)
		if !ok || rec.TaxPercentage <= 0 {
			continue
		}

		switch rec.Family {
		case taxdomain.FamilyInterstate:
			if !isInterstate {
				issues = append(issues, taxdomain.Issue{Index: i, Message: MsgIGSTIntrastate})
			}
		case taxdomain.FamilyIntrastate:
			if isInterstate && catalog.FindByRateAndFamily(rec.TaxPercentage, taxdomain.FamilyInterstate) != nil {
				issues = append(issues, taxdomain.Issue{Index: i, Message: MsgCGSTSGSTInterstate})
			}
		}
	}
	return issues
}
