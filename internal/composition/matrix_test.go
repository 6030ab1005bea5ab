package composition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fundcomp/internal/cda"
)

func comp(year, month int, competency string, values map[string]float64) cda.Composition {
	p := cda.NewPeriod(year, month)
	c := cda.Composition{Period: p, Label: p.Label(), Values: values}
	if competency != "" {
		t, err := time.Parse("2006-01-02", competency)
		if err != nil {
			panic(err)
		}
		c.Competency = t
		c.Label = cda.MonthLabel(t)
	}
	return c
}

func TestBuild_ChronologicalUnionZeroFill(t *testing.T) {
	m := Build([]cda.Composition{
		comp(2024, 3, "2024-03-31", map[string]float64{"B": 5}),
		comp(2024, 1, "2024-01-31", map[string]float64{"A": 1, "C": 2}),
		comp(2024, 2, "", nil),
	})

	assert.Equal(t, []string{"Jan 2024", "Mar 2024"}, m.Rows)
	assert.Equal(t, []string{"A", "B", "C"}, m.Columns)
	assert.Equal(t, [][]float64{{1, 0, 2}, {0, 5, 0}}, m.Cells)

	v, ok := m.Value("Mar 2024", "B")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	_, ok = m.Value("Feb 2024", "B")
	assert.False(t, ok)
	assert.Equal(t, 3.0, m.RowTotal(0))
}

func TestBuild_CompetencyIsAuthoritative(t *testing.T) {
	// The April archive carries March competency data.
	m := Build([]cda.Composition{
		comp(2024, 4, "2024-03-31", map[string]float64{"A": 1}),
		comp(2024, 2, "2024-02-29", map[string]float64{"A": 1}),
	})

	assert.Equal(t, []string{"Feb 2024", "Mar 2024"}, m.Rows)
	assert.Equal(t, [][]float64{{1}, {1}}, m.Cells)
}

func TestBuild_RepublishedMonthKeepsLatestArchive(t *testing.T) {
	march := comp(2024, 3, "2024-03-31", map[string]float64{"A": 2, "B": 1})
	republished := comp(2024, 4, "2024-03-31", map[string]float64{"A": 5})

	for _, comps := range [][]cda.Composition{{march, republished}, {republished, march}} {
		m := Build(comps)
		assert.Equal(t, []string{"Mar 2024"}, m.Rows)
		assert.Equal(t, []string{"A"}, m.Columns)
		assert.Equal(t, [][]float64{{5}}, m.Cells)
	}
}

func TestBuild_Empty(t *testing.T) {
	m := Build(nil)
	assert.True(t, m.Empty())
	assert.Empty(t, m.Columns)
	assert.True(t, Normalize(m, DefaultSuppressBelow).Empty())
}

func TestBuild_OrderIndependent(t *testing.T) {
	a := []cda.Composition{
		comp(2024, 1, "2024-01-31", map[string]float64{"A": 1}),
		comp(2024, 2, "2024-02-29", map[string]float64{"B": 1}),
		comp(2024, 3, "2024-03-31", map[string]float64{"C": 1, "A": 2}),
	}
	b := []cda.Composition{a[2], a[0], a[1]}
	assert.Equal(t, Build(a), Build(b))
}

func TestClone(t *testing.T) {
	m := Build([]cda.Composition{comp(2024, 1, "2024-01-31", map[string]float64{"A": 1})})
	c := m.Clone()
	c.Cells[0][0] = 99
	c.Rows[0] = "x"
	assert.Equal(t, 1.0, m.Cells[0][0])
	assert.Equal(t, "Jan 2024", m.Rows[0])
	require.Len(t, c.Columns, 1)
}
