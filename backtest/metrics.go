// Package backtest scores forecasts against held-out observations by blinding
// a growing suffix of the series and projecting over it.
package backtest

import (
	"fmt"
	"math"
)

type ErrorType string

const (
	RMSE               ErrorType = "rmse"
	NRMSE              ErrorType = "nrmse"
	RelativeError      ErrorType = "relative_error"
	PercentageAbsError ErrorType = "percentage_abs_error"
	SymmetricAbsError  ErrorType = "symmetric_abs_error"
)

// AllErrorTypes .
func AllErrorTypes() []ErrorType {
	return []ErrorType{NRMSE, RMSE, RelativeError, PercentageAbsError, SymmetricAbsError}
}

// Scalar reports whether the error type aggregates the window into a single
// number instead of scoring day by day.
func (e ErrorType) Scalar() bool {
	return e == RMSE || e == NRMSE
}

// CalculateError scores predicted against observed. Scalar error types
// return one element, the others one element per day. Division by a zero
// observation yields NaN rather than an error, matching how missing data is
// carried elsewhere.
func CalculateError(observed, predicted []float64, et ErrorType) ([]float64, error) {
	if len(observed) != len(predicted) {
		return nil, fmt.Errorf("length mismatch: %v vs %v", len(observed), len(predicted))
	}
	if len(observed) == 0 {
		return nil, fmt.Errorf("empty window")
	}

	switch et {
	case RMSE:
		return []float64{rmse(observed, predicted)}, nil
	case NRMSE:
		span := maxOf(observed) - minOf(observed)
		if span == 0 {
			return []float64{math.NaN()}, nil
		}
		return []float64{rmse(observed, predicted) / span}, nil
	case RelativeError:
		return elementwise(observed, predicted, func(o, p float64) float64 {
			if o == 0 {
				return math.NaN()
			}
			return (p - o) / o
		}), nil
	case PercentageAbsError:
		return elementwise(observed, predicted, func(o, p float64) float64 {
			if o == 0 {
				return math.NaN()
			}
			return math.Abs(p-o) / math.Abs(o)
		}), nil
	case SymmetricAbsError:
		return elementwise(observed, predicted, func(o, p float64) float64 {
			denom := (math.Abs(o) + math.Abs(p)) / 2
			if denom == 0 {
				return math.NaN()
			}
			return math.Abs(p-o) / denom
		}), nil
	}

	return nil, fmt.Errorf("unknown error type %v", et)
}

func rmse(observed, predicted []float64) float64 {
	sum := 0.0
	for i := range observed {
		d := predicted[i] - observed[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(observed)))
}

func elementwise(observed, predicted []float64, f func(o, p float64) float64) []float64 {
	out := make([]float64, len(observed))
	for i := range observed {
		out[i] = f(observed[i], predicted[i])
	}
	return out
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals {
		if v < m {
			m = v
		}
	}
	return m
}
