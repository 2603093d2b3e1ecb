package preprocess

import (
	"math"

	"github.com/covid-projections/covid-data-model/ts"
)

// SmootherOptions .
type SmootherOptions struct {
	// WindowSize is the centered rolling window, in days.
	WindowSize int
	// KernelStd is the standard deviation of the Gaussian kernel weights. It
	// doubles as the minimum number of valid points a window needs before a
	// smoothed value is produced.
	KernelStd int
	// SmoothedMaxThreshold drops an entire series whose smoothed maximum
	// stays below it; low-level constant series otherwise get an outsized
	// weight in the combined estimate.
	SmoothedMaxThreshold float64
}

// DefaultSmootherOptions .
func DefaultSmootherOptions() SmootherOptions {
	return SmootherOptions{
		WindowSize:           14,
		KernelStd:            5,
		SmoothedMaxThreshold: 5,
	}
}

// Smooth applies a centered Gaussian-weighted rolling mean to the series,
// rounds to whole counts, and truncates to the suffix starting at the first
// non-zero smoothed value. A series whose smoothed maximum never reaches
// SmoothedMaxThreshold is truncated to empty: the caller treats that kind as
// having no usable data.
func Smooth(s ts.Series, op SmootherOptions) ts.Series {
	n := s.N()
	if n == 0 {
		return ts.Series{}
	}

	vals := s.Values()
	kernel := ts.GaussianKernel(op.WindowSize, float64(op.KernelStd))

	smoothed := make([]float64, n)
	for i := 0; i < n; i++ {
		// the extra element of an even centered window falls on the left
		lo := i - op.WindowSize/2
		var acc, norm float64
		valid := 0
		for k := 0; k < op.WindowSize; k++ {
			j := lo + k
			if j < 0 || j >= n || math.IsNaN(vals[j]) {
				continue
			}
			acc += kernel[k] * vals[j]
			norm += kernel[k]
			valid++
		}
		if valid < op.KernelStd || norm == 0 {
			smoothed[i] = math.NaN()
		} else {
			// banker's rounding, so x.5 ties go to the even count
			smoothed[i] = math.RoundToEven(acc / norm)
		}
	}

	maxVal := math.NaN()
	firstNonzero := -1
	for i, v := range smoothed {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(maxVal) || v > maxVal {
			maxVal = v
		}
		if firstNonzero < 0 && v != 0 {
			firstNonzero = i
		}
	}

	switch {
	case math.IsNaN(maxVal) || maxVal < op.SmoothedMaxThreshold:
		return ts.Series{}
	case firstNonzero < 0:
		return ts.Series{}
	}

	return s.Slice(firstNonzero, n).WithValues(smoothed[firstNonzero:])
}
