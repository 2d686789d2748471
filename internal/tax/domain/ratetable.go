package domain

import "strings"

// FamilyTaxIDs pins explicit provider tax ids for a classification code,
// one per family. When set for a code they win over catalog search.
type FamilyTaxIDs struct {
	Interstate string `json:"interstate" mapstructure:"interstate"`
	Intrastate string `json:"intrastate" mapstructure:"intrastate"`
}

// ForFamily returns the pinned id for the requested family.
func (f FamilyTaxIDs) ForFamily(family TaxFamily) string {
	if family == FamilyInterstate {
		return f.Interstate
	}
	return f.Intrastate
}

// RateTable maps HSN/SAC classification codes to their canonical tax
// percentage, plus optional per-family id overrides. Immutable after
// construction; a code absent from the table yields "unknown rate" and the
// resolver leaves such lines untouched.
type RateTable struct {
	rates     map[string]float64
	overrides map[string]FamilyTaxIDs
}

// NewRateTable builds a table from raw maps. Codes are trimmed; negative
// percentages are dropped.
func NewRateTable(rates map[string]float64, overrides map[string]FamilyTaxIDs) *RateTable {
	t := &RateTable{
		rates:     make(map[string]float64, len(rates)),
		overrides: make(map[string]FamilyTaxIDs, len(overrides)),
	}
	for code, rate := range rates {
		code = strings.TrimSpace(code)
		if code == "" || rate < 0 {
			continue
		}
		t.rates[code] = rate
	}
	for code, ids := range overrides {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		t.overrides[code] = ids
	}
	return t
}

// Rate returns the canonical percentage for a classification code.
func (t *RateTable) Rate(code string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	rate, ok := t.rates[strings.TrimSpace(code)]
	return rate, ok
}

// FamilyIDs returns the pinned per-family tax ids for a code, if any.
func (t *RateTable) FamilyIDs(code string) (FamilyTaxIDs, bool) {
	if t == nil {
		return FamilyTaxIDs{}, false
	}
	ids, ok := t.overrides[strings.TrimSpace(code)]
	if !ok || (ids.Interstate == "" && ids.Intrastate == "") {
		return FamilyTaxIDs{}, false
	}
	return ids, ok
}

// DefaultRates is the compiled-in classification table for the catalog the
// sales team actually sells from. Overridden by the hsnrates config file.
func DefaultRates() map[string]float64 {
	return map[string]float64{
		// Brass and metal decor
		"83062990": 18,
		"83062110": 18,
		// Dried botanicals and vegetable-fibre products
		"14049070": 0,
		"14041990": 0,
		// Gold jewellery
		"71131910": 3,
		// Unworked diamonds
		"71023910": 0.25,
		// Zero-rated support services
		"999591": 0,
		// Packaging and courier service accessorials
		"998540": 18,
	}
}
