// Package composition builds period × category tables and converts them to
// percentages with one column order shared by every row.
package composition

import (
	"sort"
	"time"

	"github.com/sells-group/fundcomp/internal/cda"
)

// Matrix is a period × category table. Rows are chronological period labels,
// Columns are category labels, Cells[i][j] is the value of Columns[j] in
// Rows[i].
type Matrix struct {
	Rows    []string    `json:"rows" yaml:"rows"`
	Columns []string    `json:"columns" yaml:"columns"`
	Cells   [][]float64 `json:"cells" yaml:"cells"`
}

// Empty reports whether the matrix has no rows.
func (m Matrix) Empty() bool {
	return len(m.Rows) == 0
}

// Value returns the cell at row label and column label.
func (m Matrix) Value(row, column string) (float64, bool) {
	i, j := indexOf(m.Rows, row), indexOf(m.Columns, column)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Cells[i][j], true
}

// RowTotal sums row i.
func (m Matrix) RowTotal(i int) float64 {
	var total float64
	for _, v := range m.Cells[i] {
		total += v
	}
	return total
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	out := Matrix{
		Rows:    append([]string(nil), m.Rows...),
		Columns: append([]string(nil), m.Columns...),
		Cells:   make([][]float64, len(m.Cells)),
	}
	for i, row := range m.Cells {
		out.Cells[i] = append([]float64(nil), row...)
	}
	return out
}

// Build folds period compositions into a matrix. Rows follow competency date
// (the requested period when a composition has none). When several
// compositions share a label the one from the latest requested period is
// kept, so a republished month is not counted twice. Empty compositions
// contribute no row. Columns are the union of categories in name order,
// missing cells are 0.
func Build(comps []cda.Composition) Matrix {
	type row struct {
		label  string
		at     time.Time
		values map[string]float64
	}

	byLabel := make(map[string]cda.Composition)
	for _, c := range comps {
		if c.Empty() {
			continue
		}
		if prev, ok := byLabel[c.Label]; ok && !prev.Period.Before(c.Period) {
			continue
		}
		byLabel[c.Label] = c
	}

	rows := make([]*row, 0, len(byLabel))
	columns := make(map[string]bool)
	for label, c := range byLabel {
		at := c.Competency
		if at.IsZero() {
			at = c.Period.Start()
		}
		rows = append(rows, &row{label: label, at: at, values: c.Values})
		for category := range c.Values {
			columns[category] = true
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if !rows[a].at.Equal(rows[b].at) {
			return rows[a].at.Before(rows[b].at)
		}
		return rows[a].label < rows[b].label
	})

	m := Matrix{Columns: make([]string, 0, len(columns))}
	for c := range columns {
		m.Columns = append(m.Columns, c)
	}
	sort.Strings(m.Columns)

	for _, r := range rows {
		cells := make([]float64, len(m.Columns))
		for j, c := range m.Columns {
			cells[j] = r.values[c]
		}
		m.Rows = append(m.Rows, r.label)
		m.Cells = append(m.Cells, cells)
	}
	return m
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
