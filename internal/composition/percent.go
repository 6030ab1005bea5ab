package composition

import (
	"sort"
)

// DefaultSuppressBelow is the smallest percentage kept for display.
const DefaultSuppressBelow = 0.5

// PercentMatrix is a Matrix whose rows are percentages of the row total.
type PercentMatrix struct {
	Matrix `yaml:",inline"`
}

// Normalize converts values to percentages of each row's total.
//
// Only positive cells take part; other cells become 0. A row with no positive
// total stays all zero. Cells under threshold are zeroed and their share is
// not redistributed, so a row may sum to slightly less than 100. Columns are
// ordered by descending total across all rows, ties by name, and columns
// that end up all zero are removed. The result shares no memory with m.
func Normalize(m Matrix, threshold float64) PercentMatrix {
	pct := make([][]float64, len(m.Cells))
	totals := make([]float64, len(m.Columns))
	for i, row := range m.Cells {
		pct[i] = make([]float64, len(m.Columns))

		var total float64
		for _, v := range row {
			if v > 0 {
				total += v
			}
		}
		if total == 0 {
			continue
		}
		for j, v := range row {
			if v <= 0 {
				continue
			}
			p := v / total * 100
			if p < threshold {
				continue
			}
			pct[i][j] = p
			totals[j] += p
		}
	}

	order := make([]int, 0, len(m.Columns))
	for j := range m.Columns {
		if totals[j] > 0 {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ja, jb := order[a], order[b]
		if totals[ja] != totals[jb] {
			return totals[ja] > totals[jb]
		}
		return m.Columns[ja] < m.Columns[jb]
	})

	out := PercentMatrix{Matrix{
		Rows:    append([]string(nil), m.Rows...),
		Columns: make([]string, len(order)),
		Cells:   make([][]float64, len(m.Cells)),
	}}
	for k, j := range order {
		out.Columns[k] = m.Columns[j]
	}
	for i := range pct {
		out.Cells[i] = make([]float64, len(order))
		for k, j := range order {
			out.Cells[i][k] = pct[i][j]
		}
	}
	return out
}
