// Package export renders pipeline results for people and other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fundcomp/internal/pipeline"
)

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatCSV, FormatJSON, FormatYAML, FormatXLSX}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// Write renders res in format f.
func Write(w io.Writer, res *pipeline.YearResult, f Format) error {
	switch f {
	case FormatTable:
		return WriteTable(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatYAML:
		return WriteYAML(w, res)
	case FormatXLSX:
		return WriteXLSX(w, res)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// WriteTable prints the percentage matrix, fund summary and diagnostics as
// aligned text.
func WriteTable(out io.Writer, res *pipeline.YearResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)

	if res.Fund != nil {
		_, _ = fmt.Fprintf(w, "Fund:\t%s\t\n", res.Fund.Name)
		_, _ = fmt.Fprintf(w, "CNPJ:\t%s\t\n", res.Fund.ID)
		_, _ = fmt.Fprintf(w, "Net assets:\t%s\t\n", strconv.FormatFloat(res.Fund.NetAssetValue, 'f', 2, 64))
		_, _ = fmt.Fprintln(w)
	}

	if res.Percent.Empty() {
		_, _ = fmt.Fprintf(w, "No holdings found for %s.\t\n", res.FundID)
	} else {
		_, _ = fmt.Fprintf(w, "PERIOD\t%s\t\n", strings.Join(res.Percent.Columns, "\t"))
		for i, label := range res.Percent.Rows {
			cells := make([]string, len(res.Percent.Cells[i]))
			for j, v := range res.Percent.Cells[i] {
				cells[j] = strconv.FormatFloat(v, 'f', 1, 64)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t\n", label, strings.Join(cells, "\t"))
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "export: write table")
	}

	if len(res.Diagnostics) > 0 {
		_, _ = fmt.Fprintf(out, "\n%d diagnostics:\n", len(res.Diagnostics))
		for _, d := range res.Diagnostics {
			_, _ = fmt.Fprintf(out, "  %s\n", d)
		}
	}
	return nil
}

// WriteCSV writes the percentage matrix with a period column first.
func WriteCSV(w io.Writer, res *pipeline.YearResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"period"}, res.Percent.Columns...)); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i, label := range res.Percent.Rows {
		record := make([]string, 0, len(res.Percent.Columns)+1)
		record = append(record, label)
		for _, v := range res.Percent.Cells[i] {
			record = append(record, strconv.FormatFloat(v, 'f', 2, 64))
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteJSON writes the whole result as indented JSON.
func WriteJSON(w io.Writer, res *pipeline.YearResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "export: encode json")
}

// WriteYAML writes the whole result as YAML.
func WriteYAML(w io.Writer, res *pipeline.YearResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	return eris.Wrap(enc.Close(), "export: close yaml encoder")
}
