package cda

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{in: "2024-03", want: Period{2024, 3}},
		{in: "202412", want: Period{2024, 12}},
		{in: " 2023-01 ", want: Period{2023, 1}},
		{in: "2024/03", wantErr: true},
		{in: "24-03", wantErr: true},
		{in: "abcd-ef", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodValidate(t *testing.T) {
	assert.NoError(t, NewPeriod(2024, 3).Validate(2005))
	assert.ErrorContains(t, NewPeriod(2024, 0).Validate(2005), "month 0 out of range")
	assert.ErrorContains(t, NewPeriod(2024, 13).Validate(2005), "month 13")
	assert.ErrorContains(t, NewPeriod(2004, 1).Validate(2005), "year 2004 out of range")
	assert.Error(t, NewPeriod(MaxYear+1, 1).Validate(2005))
}

func TestPeriodFormatting(t *testing.T) {
	p := NewPeriod(2024, 3)
	assert.Equal(t, "2024-03", p.String())
	assert.Equal(t, "202403", p.Code())
	assert.Equal(t, "Mar 2024", p.Label())
	assert.True(t, NewPeriod(2023, 12).Before(p))
	assert.False(t, p.Before(p))
}

func TestYearPeriods(t *testing.T) {
	periods := YearPeriods(2024)
	require.Len(t, periods, 12)
	assert.Equal(t, NewPeriod(2024, 1), periods[0])
	assert.Equal(t, NewPeriod(2024, 12), periods[11])
}

func TestPeriodJSON(t *testing.T) {
	data, err := json.Marshal(Diagnostic{Kind: KindRecordParse, Period: NewPeriod(2024, 3), Message: "m"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"period":"2024-03"`)

	var d Diagnostic
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, NewPeriod(2024, 3), d.Period)
}
