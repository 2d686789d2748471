// Package domain contains the tax catalog, line item and order context types
// used by the tax normalization engine.
package domain

import "strings"

// TaxCodeNoTax is the sentinel tax id for zero-rated lines.
// It is an ENGINE-CONSTANT; do not rename once used in submitted orders.
const TaxCodeNoTax = "NO_TAX"

// ItemLinkSystem marks generated charge lines (delivery fee, COD fee).
// System lines are exempt from tax auto-correction and catalog creation.
const ItemLinkSystem = "system"

// RateTolerance is the maximum percentage delta treated as "the same rate".
const RateTolerance = 0.01

// TaxFamily tells which side of the interstate boundary a tax record serves.
type TaxFamily string

const (
	// FamilyInterstate covers IGST records.
	FamilyInterstate TaxFamily = "interstate"
	// FamilyIntrastate covers the combined CGST+SGST group records.
	FamilyIntrastate TaxFamily = "intrastate"
)

// TaxRecord is one tax option offered by the billing provider.
// Family is attached once during catalog classification, never re-derived.
type TaxRecord struct {
	TaxID         string    `json:"tax_id"`
	TaxName       string    `json:"tax_name"`
	TaxPercentage float64   `json:"tax_percentage"`
	TaxType       string    `json:"tax_type"`
	Family        TaxFamily `json:"family"`
}

// Catalog is the immutable, family-classified set of tax records for a
// wizard session. Safe for concurrent reads after construction.
type Catalog struct {
	records []TaxRecord
	byID    map[string]*TaxRecord
}

// NewCatalog classifies raw provider records and indexes them by id.
// A record whose display name contains "IGST" belongs to the interstate
// family; everything else is treated as an intrastate group record.
func NewCatalog(records []TaxRecord) *Catalog {
	c := &Catalog{
		records: make([]TaxRecord, len(records)),
		byID:    make(map[string]*TaxRecord, len(records)),
	}
	copy(c.records, records)
	for i := range c.records {
		rec := &c.records[i]
		if rec.Family == "" {
			rec.Family = classifyFamily(rec.TaxName)
		}
		c.byID[rec.TaxID] = rec
	}
	return c
}

func classifyFamily(name string) TaxFamily {
	if strings.Contains(strings.ToUpper(name), "IGST") {
		return FamilyInterstate
	}
	return FamilyIntrastate
}

// Empty reports whether the catalog has no records (not yet loaded).
func (c *Catalog) Empty() bool {
	return c == nil || len(c.records) == 0
}

// ByID returns the record for a tax id. The empty id and the NO_TAX
// sentinel are never present.
func (c *Catalog) ByID(id string) (*TaxRecord, bool) {
	if c == nil || id == "" {
		return nil, false
	}
	rec, ok := c.byID[id]
	return rec, ok
}

// Records returns the classified records in provider order.
func (c *Catalog) Records() []TaxRecord {
	if c == nil {
		return nil
	}
	out := make([]TaxRecord, len(c.records))
	copy(out, c.records)
	return out
}

// FindByRateAndFamily returns the first record matching the desired
// percentage within RateTolerance and the desired family. When the desired
// percentage is exactly zero the family is ignored: any zero-rate record is
// acceptable. Returns nil rather than guessing when nothing matches.
func (c *Catalog) FindByRateAndFamily(percent float64, family TaxFamily) *TaxRecord {
	if c == nil {
		return nil
	}
	for i := range c.records {
		rec := &c.records[i]
		if !rateEquals(rec.TaxPercentage, percent) {
			continue
		}
		if percent == 0 || rec.Family == family {
			return rec
		}
	}
	return nil
}

func rateEquals(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < RateTolerance
}

// LineItem is the mutable unit of work in the order wizard. Derived fields
// (Rate, TaxAmount, ItemTotal and the correction flags) are a pure function
// of quantity, final price and the selected tax at the moment of the last
// recalculation; they are never authoritative on their own.
type LineItem struct {
	Name          string  `json:"name,omitempty"`
	HSNOrSAC      string  `json:"hsn_or_sac,omitempty"`
	CatalogItemID string  `json:"catalog_item_id,omitempty"`
	Quantity      float64 `json:"quantity"`
	FinalPrice    float64 `json:"final_price,omitempty"`
	TaxID         string  `json:"tax_id,omitempty"`

	// Derived, recomputed on every relevant edit.
	Rate              float64 `json:"rate"`
	TaxAmount         float64 `json:"tax_amount"`
	ItemTotal         float64 `json:"item_total"`
	ResolvedHSN       string  `json:"resolved_hsn,omitempty"`
	TaxAutoCorrected  bool    `json:"tax_auto_corrected,omitempty"`
	TaxCorrectionNote string  `json:"tax_correction_note,omitempty"`
}

// IsSystemCharge reports whether the line is a generated system charge.
func (l LineItem) IsSystemCharge() bool {
	return l.CatalogItemID == ItemLinkSystem
}

// HasTax reports whether the line carries a real tax selection.
func (l LineItem) HasTax() bool {
	return l.TaxID != "" && l.TaxID != TaxCodeNoTax
}

// WithResolution returns a copy of the line with the resolver decision
// applied. Lines are treated as immutable values; callers replace, never
// mutate in place.
func (l LineItem) WithResolution(res Resolution) LineItem {
	l.TaxID = res.TaxID
	l.TaxAutoCorrected = res.AutoCorrected
	l.TaxCorrectionNote = res.Note
	l.ResolvedHSN = l.HSNOrSAC
	return l
}

// WithAmounts returns a copy of the line with reconciled amounts applied.
func (l LineItem) WithAmounts(a Amounts) LineItem {
	l.Rate = a.PreTaxUnitRate
	l.TaxAmount = a.LineTaxAmount
	l.ItemTotal = a.LineSubtotal
	return l
}

// Resolution is the resolver decision for one line. AutoCorrected and Note
// are informational only; the engine never fails on a business mismatch.
type Resolution struct {
	TaxID         string `json:"tax_id"`
	AutoCorrected bool   `json:"auto_corrected"`
	Note          string `json:"note,omitempty"`
}

// Amounts is the reconciled money breakdown for one line. Values stay
// unrounded; rounding to currency precision happens at display or
// submission time only.
type Amounts struct {
	PreTaxUnitRate float64 `json:"pre_tax_unit_rate"`
	UnitTaxAmount  float64 `json:"unit_tax_amount"`
	LineTaxAmount  float64 `json:"line_tax_amount"`
	LineSubtotal   float64 `json:"line_subtotal"`
}

// Issue is one blocking validation finding, addressed to a line by index.
type Issue struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// HomeState is the selling business's registered state.
type HomeState struct {
	Name string
	Code string
}

// OrderContext carries the single order-level input the engine needs.
type OrderContext struct {
	IsInterstate bool
}

// Family returns the tax family the order context requires.
func (o OrderContext) Family() TaxFamily {
	if o.IsInterstate {
		return FamilyInterstate
	}
	return FamilyIntrastate
}

// NewOrderContext derives the interstate flag by comparing the destination
// state (name or code, case-insensitive) against the home state. An unknown
// or empty destination resolves to interstate, the stricter case.
func NewOrderContext(destinationState string, home HomeState) OrderContext {
	dest := strings.TrimSpace(destinationState)
	if dest == "" {
		return OrderContext{IsInterstate: true}
	}
	if strings.EqualFold(dest, home.Name) || strings.EqualFold(dest, home.Code) {
		return OrderContext{IsInterstate: false}
	}
	return OrderContext{IsInterstate: true}
}
