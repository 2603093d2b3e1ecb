package ts

import "math"

// Sum .
func Sum(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum
}

// AVG .
func AVG(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return Sum(vals) / float64(len(vals))
}

// SD calculate population standard deviation
func SD(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}

	avg := AVG(vals)
	var diffSum float64
	for _, v := range vals {
		diffSum += (v - avg) * (v - avg)
	}

	return math.Sqrt(diffSum / float64(len(vals)))
}

// Diff returns first differences, one element shorter than the input.
// NaN inputs propagate into both neighboring differences.
func Diff(vals []float64) []float64 {
	if len(vals) < 2 {
		return nil
	}
	out := make([]float64, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		out[i-1] = vals[i] - vals[i-1]
	}
	return out
}

// RollingMean computes a trailing mean of the given window over vals.
// Positions with fewer than minPeriods prior values (including the current
// one) yield NaN.
func RollingMean(vals []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		n := 0
		sum := 0.0
		for j := lo; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				continue
			}
			sum += vals[j]
			n++
		}
		if n < minPeriods {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// GaussianKernel returns the weights of a symmetric Gaussian window of the
// given size, centered at (size-1)/2, with the given standard deviation.
func GaussianKernel(size int, std float64) []float64 {
	w := make([]float64, size)
	center := float64(size-1) / 2
	for k := 0; k < size; k++ {
		d := (float64(k) - center) / std
		w[k] = math.Exp(-0.5 * d * d)
	}
	return w
}

// EWMA smooths a series with a trailing exponential window of decay tau,
// normalized so the weights sum to one.
func EWMA(vals []float64, tau float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	width := int(2 * tau)
	if width < 1 {
		width = 1
	}
	weights := make([]float64, width)
	var wsum float64
	for k := 0; k < width; k++ {
		weights[k] = math.Exp(-float64(k) / tau)
		wsum += weights[k]
	}
	for k := range weights {
		weights[k] /= wsum
	}

	out := make([]float64, len(vals))
	for i := range vals {
		var acc, norm float64
		for k := 0; k < width && i-k >= 0; k++ {
			acc += weights[k] * vals[i-k]
			norm += weights[k]
		}
		out[i] = acc / norm
	}
	return out
}
