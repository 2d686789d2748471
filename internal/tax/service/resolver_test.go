package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

type staticRates struct {
	table *taxdomain.RateTable
}

func (s staticRates) Table() *taxdomain.RateTable { return s.table }

func newTestEngine(overrides map[string]taxdomain.FamilyTaxIDs) *Engine {
	table := taxdomain.NewRateTable(map[string]float64{
		"83062990": 18,
		"71131910": 3,
		"14049070": 0,
		"999591":   0,
	}, overrides)
	return NewEngine(EngineParams{Log: zap.NewNop(), Rates: staticRates{table: table}})
}

func testCatalog() *taxdomain.Catalog {
	return taxdomain.NewCatalog([]taxdomain.TaxRecord{
		{TaxID: "GST18", TaxName: "GST18 (9% + 9%)", TaxPercentage: 18, TaxType: "tax_group"},
		{TaxID: "IGST18", TaxName: "IGST18", TaxPercentage: 18, TaxType: "tax"},
		{TaxID: "GST3", TaxName: "GST3 (1.5% + 1.5%)", TaxPercentage: 3, TaxType: "tax_group"},
		{TaxID: "IGST3", TaxName: "IGST3", TaxPercentage: 3, TaxType: "tax"},
		{TaxID: "GST0", TaxName: "GST0", TaxPercentage: 0, TaxType: "tax"},
	})
}

func TestNewCatalogClassifiesFamilies(t *testing.T) {
	catalog := testCatalog()

	igst, ok := catalog.ByID("IGST18")
	require.True(t, ok)
	assert.Equal(t, taxdomain.FamilyInterstate, igst.Family)

	gst, ok := catalog.ByID("GST18")
	require.True(t, ok)
	assert.Equal(t, taxdomain.FamilyIntrastate, gst.Family)
}

func TestResolveLineIntrastateSelectsGroupRecord(t *testing.T) {
	// Scenario A: 18% code on an intrastate order must land on GST18.
	e := newTestEngine(nil)
	line := taxdomain.LineItem{
		HSNOrSAC:      "83062990",
		CatalogItemID: "item-1",
		TaxID:         "IGST18",
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: false}, testCatalog())

	assert.Equal(t, "GST18", res.TaxID)
	assert.True(t, res.AutoCorrected)
	assert.Contains(t, res.Note, "CGST/SGST")
}

func TestResolveLineInterstateSwitchesToIGST(t *testing.T) {
	// Scenario B: previously GST18, order flips to interstate.
	e := newTestEngine(nil)
	line := taxdomain.LineItem{
		HSNOrSAC:      "83062990",
		CatalogItemID: "item-1",
		TaxID:         "GST18",
		ResolvedHSN:   "83062990",
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: true}, testCatalog())

	assert.Equal(t, "IGST18", res.TaxID)
	assert.True(t, res.AutoCorrected)
	assert.Contains(t, res.Note, "IGST")
}

func TestResolveLineZeroRatedForcesNoTax(t *testing.T) {
	// Scenario C: zero-rated code with any prior tax selected.
	e := newTestEngine(nil)
	for _, prior := range []string{"GST18", "IGST18", "GST0"} {
		line := taxdomain.LineItem{
			HSNOrSAC:      "14049070",
			CatalogItemID: "item-2",
			TaxID:         prior,
		}

		res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: true}, testCatalog())

		assert.Equal(t, taxdomain.TaxCodeNoTax, res.TaxID, "prior %s", prior)
		assert.True(t, res.AutoCorrected, "prior %s", prior)
		assert.Equal(t, NoteZeroRated, res.Note, "prior %s", prior)
	}
}

func TestResolveLineZeroRatedAlreadyNoTax(t *testing.T) {
	e := newTestEngine(nil)
	line := taxdomain.LineItem{
		HSNOrSAC:      "999591",
		CatalogItemID: "item-3",
		TaxID:         taxdomain.TaxCodeNoTax,
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: false}, testCatalog())

	assert.Equal(t, taxdomain.TaxCodeNoTax, res.TaxID)
	assert.False(t, res.AutoCorrected)
	assert.Empty(t, res.Note)
}

func TestResolveLineUnknownCodeUnchanged(t *testing.T) {
	e := newTestEngine(nil)
	line := taxdomain.LineItem{
		HSNOrSAC:      "00000000",
		CatalogItemID: "item-4",
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: true}, testCatalog())

	assert.Empty(t, res.TaxID)
	assert.False(t, res.AutoCorrected)
}

func TestResolveLineEmptyCatalogNoOp(t *testing.T) {
	e := newTestEngine(nil)
	line := taxdomain.LineItem{HSNOrSAC: "83062990", TaxID: "GST18"}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: true}, taxdomain.NewCatalog(nil))

	assert.Equal(t, "GST18", res.TaxID)
	assert.False(t, res.AutoCorrected)
}

func TestResolveLineSystemChargeSkipped(t *testing.T) {
	e := newTestEngine(nil)
	line := taxdomain.LineItem{
		Name:          "COD charges",
		CatalogItemID: taxdomain.ItemLinkSystem,
		TaxID:         "GST18",
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: true}, testCatalog())

	assert.Equal(t, "GST18", res.TaxID)
	assert.False(t, res.AutoCorrected)
}

func TestResolveLineBlankNewLineFilledSilently(t *testing.T) {
	// A fresh line with a code but nothing selected is "filling a blank",
	// not "correcting a mistake".
	e := newTestEngine(nil)
	line := taxdomain.LineItem{HSNOrSAC: "71131910"}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: false}, testCatalog())

	assert.Equal(t, "GST3", res.TaxID)
	assert.False(t, res.AutoCorrected)
	assert.Empty(t, res.Note)
}

func TestResolveLineNoPreferredRecordUnchanged(t *testing.T) {
	// Catalog has no IGST record at 3%; the resolver must not invent one.
	catalog := taxdomain.NewCatalog([]taxdomain.TaxRecord{
		{TaxID: "GST3", TaxName: "GST3", TaxPercentage: 3},
	})
	e := newTestEngine(nil)
	line := taxdomain.LineItem{
		HSNOrSAC:      "71131910",
		CatalogItemID: "item-5",
		TaxID:         "GST3",
		ResolvedHSN:   "71131910",
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: true}, catalog)

	assert.Equal(t, "GST3", res.TaxID)
	assert.False(t, res.AutoCorrected)
}

func TestResolveLineIdempotent(t *testing.T) {
	e := newTestEngine(nil)
	catalog := testCatalog()
	octx := taxdomain.OrderContext{IsInterstate: true}
	line := taxdomain.LineItem{
		HSNOrSAC:      "83062990",
		CatalogItemID: "item-1",
		TaxID:         "GST18",
	}

	first := e.ResolveLine(line, octx, catalog)
	require.True(t, first.AutoCorrected)
	line = line.WithResolution(first)

	second := e.ResolveLine(line, octx, catalog)
	assert.Equal(t, first.TaxID, second.TaxID)
	assert.False(t, second.AutoCorrected)
	assert.Empty(t, second.Note)
}

func TestResolveLinePinnedFamilyIDsWin(t *testing.T) {
	e := newTestEngine(map[string]taxdomain.FamilyTaxIDs{
		"83062990": {Interstate: "IGST18", Intrastate: "GST18"},
	})
	// Even with a second 18% group record earlier in the catalog, the
	// pinned id is used.
	catalog := taxdomain.NewCatalog([]taxdomain.TaxRecord{
		{TaxID: "GST18-LEGACY", TaxName: "GST18 old", TaxPercentage: 18},
		{TaxID: "GST18", TaxName: "GST18", TaxPercentage: 18},
		{TaxID: "IGST18", TaxName: "IGST18", TaxPercentage: 18},
	})
	line := taxdomain.LineItem{
		HSNOrSAC:      "83062990",
		CatalogItemID: "item-1",
		TaxID:         "GST18-LEGACY",
		ResolvedHSN:   "83062990",
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: false}, catalog)

	assert.Equal(t, "GST18", res.TaxID)
	assert.True(t, res.AutoCorrected)
	// Same family, no flip: no direction note even though the id changed.
	assert.Empty(t, res.Note)
}

func TestResolveLineKeepsUserRateOverride(t *testing.T) {
	// The live percentage of the selected tax wins over the code rate, so a
	// deliberate 18% selection on a 3% code stays put while the family fits.
	e := newTestEngine(nil)
	line := taxdomain.LineItem{
		HSNOrSAC:      "71131910",
		CatalogItemID: "item-6",
		TaxID:         "GST18",
		ResolvedHSN:   "71131910",
	}

	res := e.ResolveLine(line, taxdomain.OrderContext{IsInterstate: false}, testCatalog())

	assert.Equal(t, "GST18", res.TaxID)
	assert.False(t, res.AutoCorrected)
}

func TestRecalculateLinesBulkPass(t *testing.T) {
	e := newTestEngine(nil)
	catalog := testCatalog()
	lines := []taxdomain.LineItem{
		{HSNOrSAC: "83062990", CatalogItemID: "item-1", TaxID: "GST18", Quantity: 1, FinalPrice: 118},
		{HSNOrSAC: "14049070", CatalogItemID: "item-2", TaxID: "GST18", Quantity: 2, FinalPrice: 50},
		{Name: "Delivery charges", CatalogItemID: taxdomain.ItemLinkSystem, Quantity: 1, FinalPrice: 80},
	}

	out := e.RecalculateLines(lines, taxdomain.OrderContext{IsInterstate: true}, catalog)

	require.Len(t, out, 3)
	assert.Equal(t, "IGST18", out[0].TaxID)
	assert.InDelta(t, 100, out[0].Rate, 1e-9)
	assert.InDelta(t, 18, out[0].TaxAmount, 1e-9)

	assert.Equal(t, taxdomain.TaxCodeNoTax, out[1].TaxID)
	assert.InDelta(t, 50, out[1].Rate, 1e-9)
	assert.InDelta(t, 0, out[1].TaxAmount, 1e-9)
	assert.InDelta(t, 100, out[1].ItemTotal, 1e-9)

	assert.Empty(t, out[2].TaxID)
	assert.InDelta(t, 80, out[2].Rate, 1e-9)

	// Inputs stay untouched.
	assert.Equal(t, "GST18", lines[0].TaxID)
}

func TestNewOrderContext(t *testing.T) {
	home := taxdomain.HomeState{Name: "Karnataka", Code: "KA"}

	tests := []struct {
		name        string
		destination string
		interstate  bool
	}{
		{"empty destination is interstate", "", true},
		{"home state name", "Karnataka", false},
		{"home state name case-insensitive", "karnataka", false},
		{"home state code", "KA", false},
		{"other state", "Maharashtra", true},
		{"other state code", "MH", true},
		{"whitespace only is interstate", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			octx := taxdomain.NewOrderContext(tt.destination, home)
			assert.Equal(t, tt.interstate, octx.IsInterstate)
		})
	}
}
