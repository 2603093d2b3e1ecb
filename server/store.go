package server

import (
	"math"
	"time"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/inference"
)

var allKinds = []epimodel.ObservationKind{
	epimodel.NewCases,
	epimodel.NewDeaths,
	epimodel.NewHospitalizations,
}

// storeResult persists the combined table of one geography, replacing any
// rows from a previous run.
func storeResult(runName, fips string, table *inference.ResultTable) error {
	if err := DeleteEstimates(fips); err != nil {
		return err
	}

	var rows []RtEstimate
	for _, kind := range allKinds {
		for _, r := range table.KindRows(kind, infConfig.ConfidenceLevels) {
			ci68 := r.CIs[0.68]
			ci95 := r.CIs[0.95]
			rows = append(rows, RtEstimate{
				FIPS:     fips,
				Date:     r.Date,
				Kind:     string(r.Kind),
				RtMAP:    r.RtMAP,
				CiLow68:  ci68[0],
				CiHigh68: ci68[1],
				CiLow95:  ci95[0],
				CiHigh95: ci95[1],
				Smoothed: r.Smoothed,
				LagDays:  zeroIfNaN(r.LagDays),
			})
		}
	}
	if err := SaveEstimates(rows); err != nil {
		return err
	}

	composites := compositeRows(fips, table)
	if err := SaveComposites(composites); err != nil {
		return err
	}

	metricser.EmitStore("server.stored_rows", float64(len(rows)+len(composites)),
		map[string]string{"fips": fips})
	return nil
}

func compositeRows(fips string, table *inference.ResultTable) []RtComposite {
	var rows []RtComposite
	for _, date := range table.Dates() {
		rt := table.At(date, inference.CompositeMAPColumn)
		if math.IsNaN(rt) {
			continue
		}
		rows = append(rows, RtComposite{
			FIPS:     fips,
			Date:     date,
			RtMAP:    rt,
			CiLow95:  table.At(date, inference.CompositeCILowColumn),
			CiHigh95: table.At(date, inference.CompositeCIHighColumn),
		})
	}
	return rows
}

func reportError(runName, fips string, err error) {
	logger.Errorf("run=%v fips=%v err=%v", runName, fips, err)
	f := &RunFailure{
		RunName: runName,
		FIPS:    fips,
		Message: err.Error(),
		Stamp:   time.Now(),
	}
	if derr := SaveRunFailure(f); derr != nil {
		logger.Errorf("save run failure err=%v", derr)
	}
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
