package cda

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march = NewPeriod(2024, 3)

func TestNormalize_RenamesAndDecodes(t *testing.T) {
	records, diags, err := Normalizer{}.Normalize(context.Background(), march, scenarioArchive(t))
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, records, 3)

	r := records[0]
	assert.Equal(t, fundA, r.FundID())
	assert.Equal(t, "FUNDO AÇÕES", r.FundName(), "Latin-1 must decode to UTF-8")
	assert.Equal(t, "A", r.Category())
	assert.Equal(t, "FI", r.Fields[FieldFundType])
	assert.Equal(t, "10", r.Fields["Quantidade Posição Final"])

	_, hasRaw := r.Fields["CNPJ_FUNDO"]
	assert.False(t, hasRaw, "raw names are replaced")
	_, hasUnmapped := r.Fields["COLUNA_NOVA"]
	assert.False(t, hasUnmapped, "unmapped columns are dropped")
	_, hasEmpty := r.Fields[FieldPublicSecurityType]
	assert.False(t, hasEmpty, "empty values are absent")

	require.True(t, r.HasApplicationPct)
	assert.InDelta(t, 50.0, r.ApplicationPct, 1e-9)
}

func TestNormalize_ZeroNAV(t *testing.T) {
	archive := buildArchive(t, testMember{name: "blc_1.csv", lines: []string{
		testHeader,
		row(fundA, "F", "2024-03-31", "0", "A", "100", ""),
		row(fundA, "F", "2024-03-31", "0", "B", "10", ""),
	}})

	records, diags, err := Normalizer{}.Normalize(context.Background(), march, archive)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.HasApplicationPct)
		assert.True(t, math.IsNaN(r.ApplicationPct))
	}

	require.Len(t, diags, 1)
	assert.Equal(t, KindDataQuality, diags[0].Kind)
	assert.Equal(t, "blc_1.csv", diags[0].Member)
	assert.Contains(t, diags[0].Message, "2 records with zero net asset value")
}

func TestNormalize_MissingValueLeavesPctUndefined(t *testing.T) {
	archive := buildArchive(t, testMember{name: "blc_1.csv", lines: []string{
		testHeader,
		row(fundA, "F", "2024-03-31", "200", "A", "", ""),
	}})

	records, _, err := Normalizer{}.Normalize(context.Background(), march, archive)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].HasApplicationPct)
}

func TestNormalize_MemberFailureIsolated(t *testing.T) {
	archive := buildArchive(t,
		testMember{name: "good.csv", lines: []string{
			testHeader,
			row(fundA, "F", "2024-03-31", "200", "A", "100", ""),
		}},
		testMember{name: "broken.csv", corrupt: true, lines: []string{
			testHeader,
			row(fundA, "F", "2024-03-31", "200", "B", "50", ""),
		}},
	)

	records, diags, err := Normalizer{}.Normalize(context.Background(), march, archive)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Category())

	require.Len(t, diags, 1)
	assert.Equal(t, KindRecordParse, diags[0].Kind)
	assert.Equal(t, "broken.csv", diags[0].Member)
	assert.Equal(t, march, diags[0].Period)
}

func TestNormalize_MalformedArchive(t *testing.T) {
	_, _, err := Normalizer{}.Normalize(context.Background(), march, []byte("PK not really"))
	require.Error(t, err)

	var pe *PeriodError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindMalformedArchive, pe.Kind)
}

func TestNormalize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Normalizer{}.Normalize(ctx, march, scenarioArchive(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize_Projection(t *testing.T) {
	n := Normalizer{Columns: []string{FieldCategory, FieldMarketValue}}
	records, _, err := n.Normalize(context.Background(), march, scenarioArchive(t))
	require.NoError(t, err)
	require.NotEmpty(t, records)

	for _, r := range records {
		assert.Len(t, r.Fields, 2)
		assert.NotEmpty(t, r.Category())
		assert.False(t, r.HasApplicationPct, "NAV projected away")
	}
}

func TestNormalize_PushdownMatchesPostFilter(t *testing.T) {
	archive := scenarioArchive(t)
	ctx := context.Background()

	all, _, err := Normalizer{Columns: DefaultColumns}.Normalize(ctx, march, archive)
	require.NoError(t, err)
	post := FilterByEntity(all, fundA)

	pushed, _, err := Normalizer{Columns: DefaultColumns, FundID: fundA}.Normalize(ctx, march, archive)
	require.NoError(t, err)

	require.Len(t, post, 2)
	assert.Equal(t, post, pushed)
}

func TestNormalize_PushdownUnknownFund(t *testing.T) {
	records, diags, err := Normalizer{FundID: "00.000.000/0000-00"}.Normalize(context.Background(), march, scenarioArchive(t))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, diags)
}

func TestMapHeader_StripsBOM(t *testing.T) {
	columns, fundCol := mapHeader([]string{"\ufeffCNPJ_FUNDO", "TP_APLIC", "XYZ"}, nil)
	assert.Equal(t, []string{FieldFundID, FieldCategory, ""}, columns)
	assert.Equal(t, 0, fundCol)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{" 10 ", "10", true},
		{"", "0", false},
		{"n/a", "0", false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}
