package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/fundcomp/internal/composition"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	SheetPercent     = "Percent"
	SheetValues      = "Values"
	SheetDiagnostics = "Diagnostics"
)

// WriteXLSX writes a workbook with the percentage matrix, the market values
// and the diagnostics on separate sheets.
func WriteXLSX(w io.Writer, res *pipeline.YearResult) error {
	f := xlsx.NewFile()

	if err := addMatrixSheet(f, SheetPercent, res.Percent.Matrix, "0.0"); err != nil {
		return err
	}
	if err := addMatrixSheet(f, SheetValues, res.Matrix, "#,##0.00"); err != nil {
		return err
	}

	sheet, err := f.AddSheet(SheetDiagnostics)
	if err != nil {
		return eris.Wrap(err, "export: add diagnostics sheet")
	}
	addStrings(sheet.AddRow(), "period", "kind", "member", "message")
	for _, d := range res.Diagnostics {
		addStrings(sheet.AddRow(), d.Period.String(), string(d.Kind), d.Member, d.Message)
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func addMatrixSheet(f *xlsx.File, name string, m composition.Matrix, format string) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	addStrings(sheet.AddRow(), append([]string{"period"}, m.Columns...)...)
	for i, label := range m.Rows {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		for _, v := range m.Cells[i] {
			row.AddCell().SetFloatWithFormat(v, format)
		}
	}
	return nil
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
