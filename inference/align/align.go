// Package align finds the integer day lag between two derived R_t series by
// maximizing the mean cross-correlation of their first differences. Deaths
// and hospitalizations trail cases by a data-dependent number of days; the
// lag found here is used to shift the trailing indicator before results are
// merged.
package align

import "math"

// Options .
type Options struct {
	// MinShift and MaxShift bound the candidate day shifts, inclusive.
	MinShift int
	MaxShift int
	// Seed makes the search reproducible with correlation backends that have
	// stochastic elements (e.g. FFT-based estimators). The direct correlation
	// used here is deterministic, so the seed only pins the contract.
	Seed int64
}

// DefaultOptions .
func DefaultOptions() Options {
	return Options{MinShift: -21, MaxShift: 4, Seed: 42}
}

// FindShift returns the shift applied to series b that best aligns it to
// series a. For every candidate shift, both series are differenced, indices
// where either difference is missing (NaN) are dropped, and the remaining
// points are scored by the mean of their full cross-correlation. The shift
// with the highest score wins; ties go to the smallest shift. Returns 0 when
// no candidate shift yields any valid overlapping points.
func FindShift(a, b []float64, op Options) int {
	da := diff(a)

	bestShift := 0
	bestScore := math.Inf(-1)
	found := false

	for s := op.MinShift; s <= op.MaxShift; s++ {
		db := diff(shift(b, s))

		var aValid, bValid []float64
		for i := range da {
			if math.IsNaN(da[i]) || math.IsNaN(db[i]) {
				continue
			}
			aValid = append(aValid, da[i])
			bValid = append(bValid, db[i])
		}
		if len(aValid) == 0 {
			continue
		}

		score := meanCrossCorrelation(aValid, bValid)
		if !found || score > bestScore {
			found = true
			bestScore = score
			bestShift = s
		}
	}

	if !found {
		return 0
	}
	return bestShift
}

// shift moves values forward by s days (backward for negative s), padding
// vacated positions with NaN.
func shift(vals []float64, s int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		j := i - s
		if j < 0 || j >= len(vals) {
			out[i] = math.NaN()
		} else {
			out[i] = vals[j]
		}
	}
	return out
}

func diff(vals []float64) []float64 {
	if len(vals) < 2 {
		return nil
	}
	out := make([]float64, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		out[i-1] = vals[i] - vals[i-1]
	}
	return out
}

// meanCrossCorrelation is the mean over all lags of the full
// cross-correlation of u and v.
func meanCrossCorrelation(u, v []float64) float64 {
	n := len(u) + len(v) - 1
	var total float64
	for lag := 0; lag < n; lag++ {
		// full correlation lag index: v slides across u
		offset := lag - (len(v) - 1)
		for i := 0; i < len(u); i++ {
			j := i - offset
			if j < 0 || j >= len(v) {
				continue
			}
			total += u[i] * v[j]
		}
	}
	return total / float64(n)
}
