package cda

import (
	"math"
	"time"
)

// FundInfo summarizes the fund behind a set of records.
type FundInfo struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Type          string    `json:"type" yaml:"type"`
	NetAssetValue float64   `json:"net_asset_value" yaml:"net_asset_value"`
	Competency    time.Time `json:"competency" yaml:"competency"`
	// AllocatedPct sums the defined application percentages. Records whose
	// percentage is undefined (zero NAV) are left out.
	AllocatedPct float64 `json:"allocated_pct" yaml:"allocated_pct"`
}

// FundInfoFrom describes the fund using its latest-competency records.
// It returns false for an empty view.
func FundInfoFrom(view []Record) (FundInfo, bool) {
	if len(view) == 0 {
		return FundInfo{}, false
	}

	latest := view[0]
	latestDate, _ := latest.CompetencyDate()
	for _, r := range view[1:] {
		if t, ok := r.CompetencyDate(); ok && t.After(latestDate) {
			latest, latestDate = r, t
		}
	}

	info := FundInfo{
		ID:         latest.FundID(),
		Name:       latest.FundName(),
		Type:       latest.Fields[FieldFundType],
		Competency: latestDate,
	}
	if nav, ok := latest.NetAssetValue(); ok {
		info.NetAssetValue = nav.InexactFloat64()
	}
	for _, r := range view {
		if t, _ := r.CompetencyDate(); !t.Equal(latestDate) {
			continue
		}
		if info.Name == "" {
			info.Name = r.FundName()
		}
		if r.HasApplicationPct && !math.IsNaN(r.ApplicationPct) {
			info.AllocatedPct += r.ApplicationPct
		}
	}
	return info, true
}
