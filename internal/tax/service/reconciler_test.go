package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

func TestReconcileLineBackCalculation(t *testing.T) {
	// Scenario A: 118 inclusive at 18% is 100 + 18.
	e := newTestEngine(nil)
	line := taxdomain.LineItem{TaxID: "GST18", Quantity: 1, FinalPrice: 118}

	a := e.ReconcileLine(line, testCatalog())

	assert.InDelta(t, 100, a.PreTaxUnitRate, 1e-9)
	assert.InDelta(t, 18, a.UnitTaxAmount, 1e-9)
	assert.InDelta(t, 18, a.LineTaxAmount, 1e-9)
	assert.InDelta(t, 100, a.LineSubtotal, 1e-9)
}

func TestReconcileLineQuantityScaling(t *testing.T) {
	e := newTestEngine(nil)
	line := taxdomain.LineItem{TaxID: "GST18", Quantity: 3, FinalPrice: 118}

	a := e.ReconcileLine(line, testCatalog())

	assert.InDelta(t, 54, a.LineTaxAmount, 1e-9)
	assert.InDelta(t, 300, a.LineSubtotal, 1e-9)
}

func TestReconcileLineNoTax(t *testing.T) {
	e := newTestEngine(nil)
	catalog := testCatalog()

	for _, taxID := range []string{"", taxdomain.TaxCodeNoTax, "GST0", "unknown-id"} {
		line := taxdomain.LineItem{TaxID: taxID, Quantity: 2, FinalPrice: 99.5}

		a := e.ReconcileLine(line, catalog)

		assert.InDelta(t, 99.5, a.PreTaxUnitRate, 1e-9, "tax %q", taxID)
		assert.InDelta(t, 0, a.UnitTaxAmount, 1e-9, "tax %q", taxID)
		assert.InDelta(t, 199, a.LineSubtotal, 1e-9, "tax %q", taxID)
	}
}

func TestReconcileLineRoundTrip(t *testing.T) {
	// Recombining the breakdown must land back on the entered price.
	e := newTestEngine(nil)
	catalog := taxdomain.NewCatalog([]taxdomain.TaxRecord{
		{TaxID: "T0.25", TaxName: "GST0.25", TaxPercentage: 0.25},
		{TaxID: "T3", TaxName: "GST3", TaxPercentage: 3},
		{TaxID: "T18", TaxName: "IGST18", TaxPercentage: 18},
	})

	prices := []float64{0, 0.01, 1, 99.99, 118, 2499, 123456.78}
	quantities := []float64{0, 1, 2, 7}
	for _, rec := range catalog.Records() {
		for _, price := range prices {
			for _, qty := range quantities {
				line := taxdomain.LineItem{TaxID: rec.TaxID, Quantity: qty, FinalPrice: price}

				a := e.ReconcileLine(line, catalog)

				recombined := a.PreTaxUnitRate * (1 + rec.TaxPercentage/100)
				assert.InDelta(t, price, recombined, 1e-9)
				assert.InDelta(t, price, a.PreTaxUnitRate+a.UnitTaxAmount, 1e-9)
			}
		}
	}
}

func TestRoundCurrency(t *testing.T) {
	assert.Equal(t, 100.0, RoundCurrency(99.99999999))
	assert.Equal(t, 16.95, RoundCurrency(16.949999999))
	assert.Equal(t, 0.0, RoundCurrency(0))
}
