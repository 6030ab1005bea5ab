package cda

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel groups records published without a holding category.
const UncategorizedLabel = "Não Classificado"

// Composition is one period's market value by holding category.
type Composition struct {
	Period Period
	// Competency is the earliest competency date among the records. It
	// decides the row label and may differ from the requested Period.
	Competency time.Time
	Label      string
	Values     map[string]float64
}

// Empty reports whether no category was observed.
func (c Composition) Empty() bool {
	return len(c.Values) == 0
}

// Aggregate sums market value by category. Missing or unparseable values
// count as zero and are reported as KindDataQuality notes, as are records
// with an undefined application percentage. An empty view yields an empty
// composition.
func Aggregate(p Period, view []Record) (Composition, []Diagnostic) {
	comp := Composition{
		Period: p,
		Label:  p.Label(),
		Values: make(map[string]float64),
	}
	if len(view) == 0 {
		return comp, nil
	}

	sums := make(map[string]decimal.Decimal)
	var missing, uncategorized, zeroNAV int
	for _, r := range view {
		if t, ok := r.CompetencyDate(); ok && (comp.Competency.IsZero() || t.Before(comp.Competency)) {
			comp.Competency = t
		}

		if r.HasApplicationPct && math.IsNaN(r.ApplicationPct) {
			zeroNAV++
		}

		category := r.Category()
		if category == "" {
			category = UncategorizedLabel
			uncategorized++
		}

		mv, ok := r.MarketValue()
		if !ok {
			missing++
			mv = decimal.Zero
		}
		sums[category] = sums[category].Add(mv)
	}

	for category, sum := range sums {
		comp.Values[category] = sum.InexactFloat64()
	}
	if !comp.Competency.IsZero() {
		comp.Label = MonthLabel(comp.Competency)
	}

	var diags []Diagnostic
	if missing > 0 {
		diags = append(diags, newDiagnostic(KindDataQuality, p, "",
			"%d records without a numeric market value counted as 0", missing))
	}
	if uncategorized > 0 {
		diags = append(diags, newDiagnostic(KindDataQuality, p, "",
			"%d records without a holding category grouped as %q", uncategorized, UncategorizedLabel))
	}
	if zeroNAV > 0 {
		diags = append(diags, newDiagnostic(KindDataQuality, p, "",
			"%d records with zero net asset value; application percentage undefined", zeroNAV))
	}
	return comp, diags
}
