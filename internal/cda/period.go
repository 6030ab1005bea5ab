// Package cda ingests the CVM monthly portfolio disclosures ("Composição e
// Diversificação das Aplicações") and turns one fund's holdings into
// per-category compositions.
package cda

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// MaxYear bounds Period.Validate from above.
const MaxYear = 2100

// Period identifies one monthly disclosure batch.
type Period struct {
	Year  int
	Month int
}

// NewPeriod builds a Period without validating it.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

// ParsePeriod accepts "2024-03" or "202403".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	var ys, ms string
	switch {
	case len(s) == 7 && s[4] == '-':
		ys, ms = s[:4], s[5:]
	case len(s) == 6:
		ys, ms = s[:4], s[4:]
	default:
		return Period{}, eris.Errorf("cda: invalid period %q (want YYYY-MM)", s)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Period{}, eris.Wrapf(err, "cda: invalid period year %q", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return Period{}, eris.Wrapf(err, "cda: invalid period month %q", s)
	}
	return Period{Year: y, Month: m}, nil
}

// YearPeriods returns the twelve periods of a year in order.
func YearPeriods(year int) []Period {
	periods := make([]Period, 0, 12)
	for m := 1; m <= 12; m++ {
		periods = append(periods, Period{Year: year, Month: m})
	}
	return periods
}

// Validate checks the month range and that the year falls in [minYear, MaxYear].
func (p Period) Validate(minYear int) error {
	if p.Month < 1 || p.Month > 12 {
		return eris.Errorf("cda: month %d out of range 1-12", p.Month)
	}
	if p.Year < minYear || p.Year > MaxYear {
		return eris.Errorf("cda: year %d out of range %d-%d", p.Year, minYear, MaxYear)
	}
	return nil
}

// String returns "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Code returns "YYYYMM", the form used in archive names.
func (p Period) Code() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// Start returns the first day of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// Label returns the display label of the period, e.g. "Mar 2024".
func (p Period) Label() string {
	return MonthLabel(p.Start())
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MonthLabel formats a competency date as a row label.
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// PeriodOf returns the period a competency date falls in.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}
