package preprocess

import (
	"math"
	"testing"
	"time"

	"github.com/covid-projections/covid-data-model/ts"
)

var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func constantSeries(val float64, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = val
	}
	return vals
}

func TestReplaceOutliersSpike(t *testing.T) {
	// Baseline 6 keeps the trailing mean strictly above the guard of 5.
	vals := constantSeries(6, 30)
	vals[14] = 600
	vals[15] = 7
	s := ts.FromValues(epoch, vals)

	out := ReplaceOutliers(s, DefaultOutlierFilterOptions(), nil)
	got := out.Values()
	if math.Abs(got[14]-6.5) > 1e-12 {
		t.Fatalf("spike replaced with %v, want 6.5 (neighbor average)", got[14])
	}
	// input series untouched
	if s.Values()[14] != 600 {
		t.Fatal("source series was mutated")
	}
}

func TestReplaceOutliersGuardIsStrict(t *testing.T) {
	// With a baseline of exactly 5 the trailing mean equals the guard, and
	// the guard requires mean strictly greater than 5: the spike survives.
	vals := constantSeries(5, 30)
	vals[14] = 500
	vals[15] = 6
	s := ts.FromValues(epoch, vals)

	out := ReplaceOutliers(s, DefaultOutlierFilterOptions(), nil)
	if out.Values()[14] != 500 {
		t.Fatal("mean at the guard boundary must not trigger a replacement")
	}
}

func TestReplaceOutliersLastPoint(t *testing.T) {
	vals := constantSeries(10, 20)
	vals[19] = 5000
	s := ts.FromValues(epoch, vals)

	out := ReplaceOutliers(s, DefaultOutlierFilterOptions(), nil)
	if out.Values()[19] != 10 {
		t.Fatalf("last point must fall back to the left neighbor, got %v", out.Values()[19])
	}
}

func TestReplaceOutliersIdempotent(t *testing.T) {
	vals := constantSeries(20, 40)
	vals[17] = 9999
	vals[30] = 8888
	s := ts.FromValues(epoch, vals)
	op := DefaultOutlierFilterOptions()

	once := ReplaceOutliers(s, op, nil)
	twice := ReplaceOutliers(once, op, nil)

	a, b := once.Values(), twice.Values()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("second pass changed index %v: %v -> %v", i, a[i], b[i])
		}
	}
}

func TestReplaceOutliersShortSeriesPassesThrough(t *testing.T) {
	vals := []float64{1, 2, 3, 1000}
	s := ts.FromValues(epoch, vals)
	out := ReplaceOutliers(s, DefaultOutlierFilterOptions(), nil)
	for i, v := range out.Values() {
		if v != vals[i] {
			t.Fatal("series shorter than the window must pass through unmodified")
		}
	}
}
