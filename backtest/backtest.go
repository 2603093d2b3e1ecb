package backtest

import (
	"fmt"
	"time"

	"github.com/covid-projections/covid-data-model/ts"
	"github.com/covid-projections/covid-data-model/utils"
)

// Forecaster projects a series forward. Forecast receives only the unblinded
// prefix and must return one predicted value for each requested date.
type Forecaster interface {
	Forecast(observed ts.Series, dates []time.Time) ([]float64, error)
}

// Options .
type Options struct {
	// RollingWindow smooths both observation and projection before scoring.
	RollingWindow int
	// ProjectionWindow caps how many blinded days are scored.
	ProjectionWindow int
	// MaxDaysBlinded is the deepest blinding level walked through.
	MaxDaysBlinded int

	ErrorTypes []ErrorType
}

// DefaultOptions .
func DefaultOptions() Options {
	return Options{
		RollingWindow:    1,
		ProjectionWindow: 7,
		MaxDaysBlinded:   40,
		ErrorTypes:       AllErrorTypes(),
	}
}

// Record is one scored error of one blinding level.
type Record struct {
	ErrorType          ErrorType
	Error              float64
	DaysForward        int
	DaysBlinded        int
	ObservationEndDate time.Time
}

// Run blinds the last d observations for d = 1..MaxDaysBlinded, asks the
// forecaster to project over the blinded window, and scores the projection
// against what really happened. A blinding level where the forecaster fails
// is skipped.
func Run(s ts.Series, f Forecaster, op Options, logger utils.Logger) ([]Record, error) {
	if s.N() < 3 {
		return nil, fmt.Errorf("series too short to backtest")
	}
	if logger == nil {
		logger = utils.NewLogger("backtest")
	}

	n := s.N()
	maxBlinded := op.MaxDaysBlinded
	if maxBlinded > n-2 {
		maxBlinded = n - 2
	}

	obsRoll := ts.RollingMean(s.Values(), op.RollingWindow, 1)
	dates := s.Dates()

	var records []Record
	for d := 1; d <= maxBlinded; d++ {
		visible := s.Slice(0, n-d)
		predicted, err := f.Forecast(visible, dates)
		if err != nil {
			logger.Errorf("forecast with %v days blinded err=%v", d, err)
			utils.EmitCounter("backtest.forecast_err", 1, nil)
			continue
		}
		if len(predicted) != n {
			logger.Errorf("forecast with %v days blinded returned %v values, want %v",
				d, len(predicted), n)
			continue
		}
		predRoll := ts.RollingMean(predicted, op.RollingWindow, 1)

		window := d
		if window > op.ProjectionWindow {
			window = op.ProjectionWindow
		}
		obsW := obsRoll[n-d : n-d+window]
		predW := predRoll[n-d : n-d+window]
		endDate := dates[n-d]

		for _, et := range op.ErrorTypes {
			errs, err := CalculateError(obsW, predW, et)
			if err != nil {
				return nil, fmt.Errorf("calculate %v err: %v", et, err)
			}

			if et.Scalar() {
				records = append(records, Record{
					ErrorType:          et,
					Error:              errs[0],
					DaysForward:        window,
					DaysBlinded:        d,
					ObservationEndDate: endDate,
				})
				continue
			}
			for i, e := range errs {
				records = append(records, Record{
					ErrorType:          et,
					Error:              e,
					DaysForward:        i + 1,
					DaysBlinded:        d,
					ObservationEndDate: endDate,
				})
			}
		}
	}

	return records, nil
}

// PersistenceForecaster projects the last observed value flat over the
// horizon. It is the baseline any real forecaster has to beat.
type PersistenceForecaster struct{}

// Forecast .
func (PersistenceForecaster) Forecast(observed ts.Series, dates []time.Time) ([]float64, error) {
	if observed.N() == 0 {
		return nil, fmt.Errorf("no observations")
	}
	last := observed.Values()[observed.N()-1]

	out := make([]float64, len(dates))
	for i, d := range dates {
		if p, ok := observed.Get(d); ok {
			out[i] = p.Value
		} else {
			out[i] = last
		}
	}
	return out, nil
}
