// Package service implements the tax normalization and price resolution
// engine: resolver, reconciler and order validator.
package service

import (
	"math"

	"go.uber.org/fx"
	"go.uber.org/zap"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

// Correction notes surfaced inline next to a corrected line.
const (
	NoteZeroRated    = "Converted to 0% tax for this HSN."
	NoteToIntrastate = "Changed IGST to CGST/SGST because this is an intrastate order."
	NoteToInterstate = "Changed CGST/SGST to IGST because this is an interstate order."
)

// RateSource supplies the current classification rate table. The config
// holder behind it hot-reloads, so the engine reads it per resolution.
type RateSource interface {
	Table() *taxdomain.RateTable
}

type EngineParams struct {
	fx.In

	Log   *zap.Logger
	Rates RateSource
}

// Engine is the pure, synchronous tax engine. It holds no per-order state;
// every method is safe for concurrent use.
type Engine struct {
	log   *zap.Logger
	rates RateSource
}

// NewEngine wires the engine with its rate table source.
func NewEngine(p EngineParams) *Engine {
	return &Engine{
		log:   p.Log.Named("tax.engine"),
		rates: p.Rates,
	}
}

// ResolveLine decides which tax id applies to one line under the given
// order context and catalog. It is total: mismatches are reported through
// the Resolution fields, never as errors, and an undecidable line comes
// back unchanged.
func (e *Engine) ResolveLine(line taxdomain.LineItem, octx taxdomain.OrderContext, catalog *taxdomain.Catalog) taxdomain.Resolution {
	unchanged := taxdomain.Resolution{TaxID: line.TaxID}

	// No catalog yet, or a generated charge line: not ours to touch.
	if catalog.Empty() || line.IsSystemCharge() {
		return unchanged
	}

	table := e.rates.Table()
	codeRate, codeKnown := table.Rate(line.HSNOrSAC)
	if line.HSNOrSAC == "" {
		codeKnown = false
	}
	current, currentOK := catalog.ByID(line.TaxID)

	// Effective rate: live percentage of the current selection wins, the
	// classification table is the fallback.
	var effRate float64
	switch {
	case currentOK:
		effRate = current.TaxPercentage
	case codeKnown:
		effRate = codeRate
	default:
		// Code not in table and no resolvable tax: never guess.
		return unchanged
	}

	// Zero-rated by code or by the current selection: force the sentinel.
	if (codeKnown && codeRate == 0) || (currentOK && current.TaxPercentage == 0) {
		if line.TaxID == taxdomain.TaxCodeNoTax {
			return unchanged
		}
		return taxdomain.Resolution{
			TaxID:         taxdomain.TaxCodeNoTax,
			AutoCorrected: true,
			Note:          NoteZeroRated,
		}
	}

	preferred, pinned := e.preferredRecord(line.HSNOrSAC, effRate, octx.Family(), catalog)
	if preferred == nil {
		return unchanged
	}

	if line.TaxID == preferred.TaxID && line.ResolvedHSN == line.HSNOrSAC {
		return unchanged
	}

	// A per-family pin is authoritative: an id that merely matches on rate
	// and family still yields to the pinned record.
	needSwitch := !currentOK ||
		line.ResolvedHSN != line.HSNOrSAC ||
		math.Abs(current.TaxPercentage-preferred.TaxPercentage) >= taxdomain.RateTolerance ||
		current.Family != preferred.Family ||
		(pinned && current.TaxID != preferred.TaxID)
	if !needSwitch {
		return unchanged
	}

	// A brand-new line with a classification code but nothing selected yet
	// is filled in silently; that is not a correction.
	if line.TaxID == "" && line.CatalogItemID == "" && line.HSNOrSAC != "" {
		return taxdomain.Resolution{TaxID: preferred.TaxID}
	}

	// The note names the direction only when the family actually flipped,
	// not on a plain percentage change.
	var note string
	if currentOK && current.Family != preferred.Family {
		if preferred.Family == taxdomain.FamilyInterstate {
			note = NoteToInterstate
		} else {
			note = NoteToIntrastate
		}
	}

	return taxdomain.Resolution{
		TaxID:         preferred.TaxID,
		AutoCorrected: true,
		Note:          note,
	}
}

// preferredRecord looks up the tax record the line should carry: a pinned
// per-family id for the code wins; otherwise the catalog is searched by
// rate and family. The second return reports whether the record came from
// a pin.
func (e *Engine) preferredRecord(code string, rate float64, family taxdomain.TaxFamily, catalog *taxdomain.Catalog) (*taxdomain.TaxRecord, bool) {
	if ids, ok := e.rates.Table().FamilyIDs(code); ok {
		id := ids.ForFamily(family)
		if id != "" {
			if rec, found := catalog.ByID(id); found {
				return rec, true
			}
			// Pinned id not in this session's catalog; honor the pin.
			return &taxdomain.TaxRecord{
				TaxID:         id,
				TaxPercentage: rate,
				Family:        family,
			}, true
		}
	}
	return catalog.FindByRateAndFamily(rate, family), false
}

// RecalculateLines runs the full resolve-then-reconcile pass over an
// ordered line set. No line depends on another, so the pass is a plain
// sequential loop. Input lines are not mutated.
func (e *Engine) RecalculateLines(lines []taxdomain.LineItem, octx taxdomain.OrderContext, catalog *taxdomain.Catalog) []taxdomain.LineItem {
	out := make([]taxdomain.LineItem, len(lines))
	for i, line := range lines {
		resolved := line.WithResolution(e.ResolveLine(line, octx, catalog))
		out[i] = resolved.WithAmounts(e.ReconcileLine(resolved, catalog))
	}
	return out
}
