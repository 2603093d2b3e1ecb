package posterior

import "math"

// Interval is a credible interval on the R grid.
type Interval struct {
	Low  float64
	High float64
}

// CredibleInterval derives the interval at confidence level ci in (0, 1)
// from one day's posterior: the cumulative mass along the grid is scanned
// for the indices closest to (1-ci) and ci, which map back to grid values.
func CredibleInterval(d Distribution, ci float64) Interval {
	probs := d.Probs()
	grid := d.Grid()

	lowTarget := 1 - ci
	highTarget := ci

	var cum float64
	lowIdx, highIdx := 0, 0
	lowBest := math.Inf(1)
	highBest := math.Inf(1)
	for i, p := range probs {
		cum += p
		if diff := math.Abs(cum - lowTarget); diff < lowBest {
			lowBest = diff
			lowIdx = i
		}
		if diff := math.Abs(cum - highTarget); diff < highBest {
			highBest = diff
			highIdx = i
		}
	}

	return Interval{Low: grid.At(lowIdx), High: grid.At(highIdx)}
}

// CredibleIntervals computes one interval per day for each requested
// confidence level, keyed by level.
func CredibleIntervals(r *Result, levels []float64) map[float64][]Interval {
	out := make(map[float64][]Interval, len(levels))
	for _, ci := range levels {
		intervals := make([]Interval, len(r.Posteriors))
		for i, d := range r.Posteriors {
			intervals[i] = CredibleInterval(d, ci)
		}
		out[ci] = intervals
	}
	return out
}
