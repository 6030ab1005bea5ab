package cda

import (
	"archive/zip"
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/fundcomp/internal/fetcher"
)

var hundred = decimal.NewFromInt(100)

// Normalizer turns an archive into canonical records.
type Normalizer struct {
	// Columns restricts records to these canonical fields. Nil keeps every
	// mapped field. The fund identifier is always kept when FundID is set.
	Columns []string

	// FundID, when set, drops other funds' rows while each member is read
	// instead of after the whole archive is loaded.
	FundID string
}

// Normalize reads every member table of archive. A member that fails to parse
// is reported as a KindRecordParse diagnostic and skipped; the returned error
// is non-nil only when the archive cannot be opened or ctx is done.
func (n Normalizer) Normalize(ctx context.Context, p Period, archive []byte) ([]Record, []Diagnostic, error) {
	zr, err := fetcher.OpenZIP(archive)
	if err != nil {
		return nil, nil, &PeriodError{Period: p, Kind: KindMalformedArchive, Err: err}
	}

	keep := n.projection()
	log := zap.L().With(zap.String("component", "cda.normalizer"), zap.String("period", p.String()))

	var records []Record
	var diags []Diagnostic
	for _, member := range fetcher.ZIPMembers(zr) {
		rows, memberDiags, err := n.normalizeMember(ctx, p, member, keep)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, eris.Wrapf(ctx.Err(), "cda: normalize %s", p)
			}
			diags = append(diags, newDiagnostic(KindRecordParse, p, member.Name, "%v", err))
			continue
		}
		diags = append(diags, memberDiags...)
		records = append(records, rows...)
		log.Debug("member normalized", zap.String("member", member.Name), zap.Int("records", len(rows)))
	}

	log.Info("archive normalized",
		zap.Int("records", len(records)),
		zap.Int("diagnostics", len(diags)),
		zap.Bool("pushdown_filter", n.FundID != ""),
	)
	return records, diags, nil
}

func (n Normalizer) projection() map[string]bool {
	if n.Columns == nil {
		return nil
	}
	keep := make(map[string]bool, len(n.Columns)+1)
	for _, c := range n.Columns {
		keep[c] = true
	}
	if n.FundID != "" {
		keep[FieldFundID] = true
	}
	return keep
}

// normalizeMember parses one member. On error none of its rows are returned.
func (n Normalizer) normalizeMember(ctx context.Context, p Period, member *zip.File, keep map[string]bool) ([]Record, []Diagnostic, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, nil, eris.Wrap(err, "open member")
	}
	defer rc.Close() //nolint:errcheck

	memberCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(memberCtx, rc, fetcher.CSVOptions{
		Delimiter:  ';',
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		Encoding:   charmap.ISO8859_1,
	})

	var (
		columns  []string
		fundCol  = -1
		records  []Record
		zeroNAV  int
		noHeader = true
	)
	for row := range rowCh {
		if noHeader {
			noHeader = false
			columns, fundCol = mapHeader(<-headerCh, keep)
		}
		if n.FundID != "" && (fundCol < 0 || fundCol >= len(row) || strings.TrimSpace(row[fundCol]) != n.FundID) {
			continue
		}
		rec := buildRecord(row, columns)
		if rec.HasApplicationPct && math.IsNaN(rec.ApplicationPct) {
			zeroNAV++
		}
		records = append(records, rec)
	}
	for err := range errCh {
		if err != nil {
			return nil, nil, err
		}
	}

	var diags []Diagnostic
	if zeroNAV > 0 {
		diags = append(diags, newDiagnostic(KindDataQuality, p, member.Name,
			"%d records with zero net asset value; application percentage undefined", zeroNAV))
	}
	return records, diags, nil
}

// mapHeader resolves each raw column to its canonical name, or "" when the
// column is unmapped or projected away. It also reports the fund-id column.
func mapHeader(header []string, keep map[string]bool) ([]string, int) {
	columns := make([]string, len(header))
	fundCol := -1
	for i, raw := range header {
		raw = strings.TrimSpace(raw)
		if i == 0 {
			raw = strings.TrimPrefix(strings.TrimPrefix(raw, "\ufeff"), "ï»¿")
		}
		name, ok := CanonicalName(raw)
		if !ok {
			continue
		}
		if name == FieldFundID {
			fundCol = i
		}
		if keep != nil && !keep[name] {
			continue
		}
		columns[i] = name
	}
	return columns, fundCol
}

func buildRecord(row []string, columns []string) Record {
	rec := Record{Fields: make(map[string]string, len(columns))}
	for i, name := range columns {
		if name == "" || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			rec.Fields[name] = v
		}
	}
	computeApplicationPct(&rec)
	return rec
}

// computeApplicationPct derives market value ÷ NAV × 100 when both are present.
func computeApplicationPct(rec *Record) {
	mv, okMV := rec.MarketValue()
	nav, okNAV := rec.NetAssetValue()
	if !okMV || !okNAV {
		return
	}
	rec.HasApplicationPct = true
	if nav.IsZero() {
		rec.ApplicationPct = math.NaN()
		return
	}
	rec.ApplicationPct = mv.Div(nav).Mul(hundred).InexactFloat64()
}
