package cda

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one disclosure line projected onto the canonical schema. Fields
// holds only the canonical fields that carried a value upstream.
type Record struct {
	Fields map[string]string

	// ApplicationPct is market value ÷ net asset value × 100. It is NaN when
	// the net asset value is zero and meaningful only if HasApplicationPct.
	ApplicationPct    float64
	HasApplicationPct bool
}

// Get returns a canonical field and whether it is present.
func (r Record) Get(field string) (string, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// FundID returns the fund identifier (CNPJ) exactly as published.
func (r Record) FundID() string { return r.Fields[FieldFundID] }

// FundName returns the fund's registered name.
func (r Record) FundName() string { return r.Fields[FieldFundName] }

// Category returns the holding category.
func (r Record) Category() string { return r.Fields[FieldCategory] }

// MarketValue parses the final-position market value.
func (r Record) MarketValue() (decimal.Decimal, bool) {
	return parseAmount(r.Fields[FieldMarketValue])
}

// NetAssetValue parses the fund's net asset value.
func (r Record) NetAssetValue() (decimal.Decimal, bool) {
	return parseAmount(r.Fields[FieldNetAssetValue])
}

// CompetencyDate parses the competency date (YYYY-MM-DD).
func (r Record) CompetencyDate() (time.Time, bool) {
	s := r.Fields[FieldCompetency]
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r Record) clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	r.Fields = fields
	return r
}

// parseAmount reads CVM amounts. The open-data files use a dot decimal
// separator; comma-decimal values ("1.234,56") are accepted as well.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
