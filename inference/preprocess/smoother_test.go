package preprocess

import (
	"testing"

	"github.com/covid-projections/covid-data-model/ts"
)

func TestSmoothEmptyInput(t *testing.T) {
	out := Smooth(ts.Series{}, DefaultSmootherOptions())
	if out.N() != 0 {
		t.Fatal("err")
	}
}

func TestSmoothConstantSeries(t *testing.T) {
	s := ts.FromValues(epoch, constantSeries(100, 30))
	out := Smooth(s, DefaultSmootherOptions())
	if out.N() != 30 {
		t.Fatalf("n = %v, want 30 (no truncation for a constant series)", out.N())
	}
	for _, v := range out.Values() {
		if v != 100 {
			t.Fatalf("smoothed constant series value = %v, want 100", v)
		}
	}
}

func TestSmoothBelowMaxThreshold(t *testing.T) {
	// A series that never smooths above the threshold carries no signal.
	s := ts.FromValues(epoch, constantSeries(4, 30))
	out := Smooth(s, DefaultSmootherOptions())
	if out.N() != 0 {
		t.Fatal("series below the smoothed-max threshold must truncate to empty")
	}
}

func TestSmoothTruncatesLeadingZeros(t *testing.T) {
	vals := make([]float64, 30)
	for i := 10; i < 30; i++ {
		vals[i] = 100
	}
	s := ts.FromValues(epoch, vals)
	out := Smooth(s, DefaultSmootherOptions())

	if out.N() == 0 || out.N() >= 30 {
		t.Fatalf("n = %v, want leading truncation", out.N())
	}
	if out.Values()[0] == 0 {
		t.Fatal("output must begin at the first non-zero smoothed value")
	}
	// the centered window sees ahead, so the start lands before day 10
	if !out.Begin().Before(epoch.Add(10 * ts.Day)) {
		t.Fatal("centered window should pull the start before the raw onset")
	}
	// dates are a contiguous suffix of the source
	if !out.End().Equal(s.End()) || !out.Contiguous() {
		t.Fatal("err")
	}
}

func TestSmoothCenteredWindowLeansLeft(t *testing.T) {
	// Single spike on day 15. The even window at index i spans [i-7, i+6],
	// so the spike first enters a window on day 9 and leaves after day 22.
	vals := make([]float64, 30)
	vals[15] = 1000
	out := Smooth(ts.FromValues(epoch, vals), DefaultSmootherOptions())

	if !out.Begin().Equal(epoch.Add(9 * ts.Day)) {
		t.Fatalf("begin = %v, want day 9", out.Begin())
	}
	v := out.Values()
	if v[22-9] == 0 {
		t.Fatal("day 22 must still see the spike in its window")
	}
	if v[23-9] != 0 {
		t.Fatalf("day 23 = %v, want 0 once the spike falls out of the window", v[23-9])
	}
}

func TestSmoothRoundsHalfToEven(t *testing.T) {
	// A window of one has a unit kernel, so values reach the rounding step
	// untouched and x.5 ties must land on the even count.
	op := SmootherOptions{WindowSize: 1, KernelStd: 1, SmoothedMaxThreshold: 5}
	out := Smooth(ts.FromValues(epoch, []float64{4.5, 5.5, 6.5, 7.5}), op)
	want := []float64{4, 6, 6, 8}
	for i, v := range out.Values() {
		if v != want[i] {
			t.Fatalf("smoothed[%v] = %v, want %v", i, v, want[i])
		}
	}

	// A constant 4.5 rounds down to 4 and falls below the usable threshold.
	out = Smooth(ts.FromValues(epoch, constantSeries(4.5, 10)), op)
	if out.N() != 0 {
		t.Fatal("err")
	}
}

func TestSmoothTinySeries(t *testing.T) {
	// Fewer valid points than the kernel std everywhere: no usable data.
	s := ts.FromValues(epoch, []float64{50, 60})
	out := Smooth(s, DefaultSmootherOptions())
	if out.N() != 0 {
		t.Fatal("err")
	}
}
