// Package inference composes the per-kind R_t pipeline (outlier removal,
// Gaussian smoothing, sequential Bayesian posterior, credible intervals) and
// merges the per-kind results into one combined table with a composite
// estimate.
package inference

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/ts"
)

// Column name builders, one namespace per observation kind.
func MAPColumn(kind epimodel.ObservationKind) string {
	return "Rt_MAP__" + string(kind)
}

func SmoothedColumn(kind epimodel.ObservationKind) string {
	return string(kind)
}

func LagColumn(kind epimodel.ObservationKind) string {
	return "lag_days__" + string(kind)
}

// CILowColumn and CIHighColumn name interval bounds by percent mass, e.g.
// ci5/ci95 for the 95% level. The floor of the scaled level is used, so the
// binary representation of a level decides edge names (0.68 yields ci31).
func CILowColumn(kind epimodel.ObservationKind, ci float64) string {
	return fmt.Sprintf("Rt_ci%d__%s", int(math.Floor(100*(1-ci))), kind)
}

func CIHighColumn(kind epimodel.ObservationKind, ci float64) string {
	return fmt.Sprintf("Rt_ci%d__%s", int(math.Floor(100*ci)), kind)
}

// Composite column names.
const (
	CompositeMAPColumn    = "Rt_MAP_composite"
	CompositeCILowColumn  = "Rt_ci5_composite"
	CompositeCIHighColumn = "Rt_ci95_composite"
)

// ResultTable is a date-indexed table of named float columns, outer-joined
// on date as per-kind results are merged in. Missing cells are NaN.
type ResultTable struct {
	dates   []time.Time
	columns map[string][]float64
	order   []string
}

// NewResultTable .
func NewResultTable() *ResultTable {
	return &ResultTable{columns: make(map[string][]float64)}
}

// Dates .
func (t *ResultTable) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// NumRows .
func (t *ResultTable) NumRows() int {
	return len(t.dates)
}

// ColumnNames in insertion order.
func (t *ResultTable) ColumnNames() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Column returns a copy of the named column.
func (t *ResultTable) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, true
}

// HasColumn .
func (t *ResultTable) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// At returns the cell for the given date and column, NaN when absent.
func (t *ResultTable) At(date time.Time, name string) float64 {
	col, ok := t.columns[name]
	if !ok {
		return math.NaN()
	}
	i := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(date) })
	if i == len(t.dates) || !t.dates[i].Equal(date) {
		return math.NaN()
	}
	return col[i]
}

// MergeColumn outer-joins a column into the table: the date index becomes
// the sorted union of the existing index and the given dates, existing
// columns are padded with NaN on new dates, and the new column is placed on
// its dates.
func (t *ResultTable) MergeColumn(name string, dates []time.Time, vals []float64) {
	union := t.dates
	added := false
	for _, d := range dates {
		if !containsDate(union, d) {
			union = append(union, d)
			added = true
		}
	}
	if added {
		sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })
		for cname, col := range t.columns {
			t.columns[cname] = reindex(col, t.dates, union)
		}
		t.dates = union
	}

	col := make([]float64, len(t.dates))
	for i := range col {
		col[i] = math.NaN()
	}
	for i, d := range dates {
		col[indexOfDate(t.dates, d)] = vals[i]
	}

	if _, ok := t.columns[name]; !ok {
		t.order = append(t.order, name)
	}
	t.columns[name] = col
}

// SetConstantColumn fills a column with one value on every date.
func (t *ResultTable) SetConstantColumn(name string, val float64) {
	col := make([]float64, len(t.dates))
	for i := range col {
		col[i] = val
	}
	if _, ok := t.columns[name]; !ok {
		t.order = append(t.order, name)
	}
	t.columns[name] = col
}

// ShiftColumn moves a column's values by the given number of days along the
// date index (positive = later), padding vacated cells with NaN.
func (t *ResultTable) ShiftColumn(name string, days int) {
	col, ok := t.columns[name]
	if !ok || days == 0 {
		return
	}
	shifted := make([]float64, len(col))
	for i := range shifted {
		j := i - days
		if j < 0 || j >= len(col) {
			shifted[i] = math.NaN()
		} else {
			shifted[i] = col[j]
		}
	}
	t.columns[name] = shifted
}

// InterpolateColumn fills interior NaN gaps linearly and extends the last
// valid value forward to the end. Leading NaNs are left alone: values are
// never extrapolated backward.
func (t *ResultTable) InterpolateColumn(name string) {
	col, ok := t.columns[name]
	if !ok {
		return
	}

	first := -1
	for i, v := range col {
		if !math.IsNaN(v) {
			first = i
			break
		}
	}
	if first < 0 {
		return
	}

	prev := first
	for i := first + 1; i < len(col); i++ {
		if math.IsNaN(col[i]) {
			continue
		}
		if i > prev+1 {
			step := (col[i] - col[prev]) / float64(i-prev)
			for k := prev + 1; k < i; k++ {
				col[k] = col[prev] + step*float64(k-prev)
			}
		}
		prev = i
	}
	for i := prev + 1; i < len(col); i++ {
		col[i] = col[prev]
	}
}

// TailColumn returns up to n trailing values of the column.
func (t *ResultTable) TailColumn(name string, n int) []float64 {
	col, ok := t.columns[name]
	if !ok {
		return nil
	}
	if n > len(col) {
		n = len(col)
	}
	out := make([]float64, n)
	copy(out, col[len(col)-n:])
	return out
}

func containsDate(dates []time.Time, d time.Time) bool {
	for _, x := range dates {
		if x.Equal(d) {
			return true
		}
	}
	return false
}

func indexOfDate(dates []time.Time, d time.Time) int {
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(d) })
	return i
}

func reindex(col []float64, oldDates, newDates []time.Time) []float64 {
	out := make([]float64, len(newDates))
	for i := range out {
		out[i] = math.NaN()
	}
	for i, d := range oldDates {
		out[indexOfDate(newDates, d)] = col[i]
	}
	return out
}

// KindRow is one persisted row of the combined table for one observation
// kind on one date.
type KindRow struct {
	Date     time.Time
	Kind     epimodel.ObservationKind
	RtMAP    float64
	Smoothed float64
	LagDays  float64
	// CIs maps confidence level to (low, high) bounds.
	CIs map[float64][2]float64
}

// KindRows extracts the per-kind rows for the given confidence levels,
// skipping dates where the kind has no MAP estimate.
func (t *ResultTable) KindRows(kind epimodel.ObservationKind, levels []float64) []KindRow {
	mapCol, ok := t.columns[MAPColumn(kind)]
	if !ok {
		return nil
	}

	rows := make([]KindRow, 0, len(t.dates))
	for i, date := range t.dates {
		if math.IsNaN(mapCol[i]) {
			continue
		}
		row := KindRow{
			Date:     date,
			Kind:     kind,
			RtMAP:    mapCol[i],
			Smoothed: t.At(date, SmoothedColumn(kind)),
			LagDays:  t.At(date, LagColumn(kind)),
			CIs:      make(map[float64][2]float64, len(levels)),
		}
		for _, ci := range levels {
			row.CIs[ci] = [2]float64{
				t.At(date, CILowColumn(kind, ci)),
				t.At(date, CIHighColumn(kind, ci)),
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Smoothed series values used elsewhere are stored as columns; expose the
// dates covered by a column as a Series for convenience.
func (t *ResultTable) ColumnSeries(name string) (ts.Series, bool) {
	col, ok := t.columns[name]
	if !ok {
		return ts.Series{}, false
	}
	points := make(ts.Points, 0, len(col))
	for i, d := range t.dates {
		if math.IsNaN(col[i]) {
			continue
		}
		points = append(points, ts.NewPoint(d, col[i]))
	}
	return ts.NewSeries(points), true
}
