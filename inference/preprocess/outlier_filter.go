// Package preprocess conditions a raw daily count series before inference:
// it replaces locally anomalous points and applies a centered Gaussian
// rolling mean with leading-zero truncation.
package preprocess

import (
	"math"

	"github.com/covid-projections/covid-data-model/ts"
	"github.com/covid-projections/covid-data-model/utils"
)

// Small epsilon to prevent divide by 0 errors.
const epsilon = 1e-8

// OutlierFilterOptions .
type OutlierFilterOptions struct {
	// LookbackWindow is the trailing window used to baseline the z score.
	// The window must be full before any point is evaluated.
	LookbackWindow int
	// ZThreshold is the minimum z score needed to trigger a replacement.
	ZThreshold float64
	// MinMeanToConsider skips low-count baselines. The trailing mean must be
	// strictly greater than this value for a replacement to trigger, so a
	// long run of zeros followed by a one is never treated as an outlier.
	MinMeanToConsider float64
}

// DefaultOutlierFilterOptions .
func DefaultOutlierFilterOptions() OutlierFilterOptions {
	return OutlierFilterOptions{
		LookbackWindow:    14,
		ZThreshold:        10,
		MinMeanToConsider: 5,
	}
}

// ReplaceOutliers scans the series and replaces points whose z score against
// the trailing window mean and population std exceeds the threshold. Flagged
// points are replaced with the average of their two nearest neighbors, or the
// left neighbor alone for the last point. The mean and std baselines are
// computed once from the input series; replacements read neighbors from the
// working copy, so a replaced left neighbor feeds the next replacement.
func ReplaceOutliers(s ts.Series, op OutlierFilterOptions, logger utils.Logger) ts.Series {
	w := op.LookbackWindow
	x := s.Values()
	if len(x) <= w {
		return s
	}

	// Trailing mean and population std of the w points before each index.
	means := make([]float64, len(x))
	stds := make([]float64, len(x))
	for i := range x {
		if i < w {
			means[i] = math.NaN()
			stds[i] = math.NaN()
			continue
		}
		window := x[i-w : i]
		means[i] = ts.AVG(window)
		stds[i] = ts.SD(window)
	}

	var changedIdx []int
	var changedValue []float64
	var changedZ []float64
	var changedSnippets [][]float64

	for i := w; i < len(x); i++ {
		z := (x[i] - means[i]) / (stds[i] + epsilon)
		if z <= op.ZThreshold {
			continue
		}
		if !(means[i] > op.MinMeanToConsider) {
			continue
		}

		changedIdx = append(changedIdx, i)
		changedValue = append(changedValue, x[i])
		changedZ = append(changedZ, z)
		lo := i - w
		hi := i + w
		if hi > len(x) {
			hi = len(x)
		}
		snippet := make([]float64, hi-lo)
		copy(snippet, x[lo:hi])
		changedSnippets = append(changedSnippets, snippet)

		if i == len(x)-1 {
			x[i] = x[i-1]
		} else {
			x[i] = (x[i-1] + x[i+1]) / 2
		}
	}

	if len(changedIdx) > 0 && logger != nil {
		logger.Infof("replacing outliers: values=%v z_scores=%v where=%v snippets=%v",
			changedValue, changedZ, changedIdx, changedSnippets)
		utils.EmitCounter("preprocess.outliers_replaced", len(changedIdx), nil)
	}

	return s.WithValues(x)
}
