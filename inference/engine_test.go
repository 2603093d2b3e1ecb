package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/ts"
	"github.com/covid-projections/covid-data-model/utils"
)

func constValues(val float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = val
	}
	return out
}

func testBundle(n int) epimodel.ObservationBundle {
	return epimodel.ObservationBundle{
		FIPS:      "36",
		RefDate:   day0,
		NewCases:  ts.FromValues(day0, constValues(100, n)),
		NewDeaths: ts.FromValues(day0, constValues(100, n)),
	}
}

func newTestInference(t *testing.T, bundle epimodel.ObservationBundle) *Engine {
	e, err := NewEngine(bundle, epimodel.DefaultParameters(), DefaultConfig(),
		utils.NewLogger("inference_test"))
	require.NoError(t, err)
	return e
}

func TestAvailableKinds(t *testing.T) {
	e := newTestInference(t, testBundle(80))
	require.Equal(t,
		[]epimodel.ObservationKind{epimodel.NewCases, epimodel.NewDeaths},
		e.AvailableKinds())

	// Totals at or below the gate do not qualify.
	tiny := epimodel.ObservationBundle{
		FIPS:      "56",
		RefDate:   day0,
		NewCases:  ts.FromValues(day0, []float64{1, 1, 1}),
		NewDeaths: ts.FromValues(day0, []float64{0, 0, 0}),
	}
	e = newTestInference(t, tiny)
	require.Empty(t, e.AvailableKinds())
}

func TestInferAllEmptyWhenNothingQualifies(t *testing.T) {
	e := newTestInference(t, epimodel.ObservationBundle{FIPS: "56", RefDate: day0})
	table, err := e.InferAll()
	require.NoError(t, err)
	require.Nil(t, table)
}

func TestInferAllSteadyEpidemic(t *testing.T) {
	e := newTestInference(t, testBundle(90))
	table, err := e.InferAll()
	require.NoError(t, err)
	require.NotNil(t, table)

	for _, col := range []string{
		MAPColumn(epimodel.NewCases),
		MAPColumn(epimodel.NewDeaths),
		CILowColumn(epimodel.NewCases, 0.95),
		CIHighColumn(epimodel.NewCases, 0.95),
		LagColumn(epimodel.NewDeaths),
		CompositeMAPColumn,
		CompositeCIHighColumn,
	} {
		require.True(t, table.HasColumn(col), "missing column %s", col)
	}

	// Identical series must not be lagged against each other.
	lag, _ := table.Column(LagColumn(epimodel.NewDeaths))
	require.Equal(t, 0.0, lag[len(lag)-1])

	// A long steady series pins R_t near 1.
	comp, _ := table.Column(CompositeMAPColumn)
	last := comp[len(comp)-1]
	require.InDelta(t, 1.0, last, 0.05)

	// The composite band comes from the cases posterior and brackets the MAP.
	low, _ := table.Column(CompositeCILowColumn)
	high, _ := table.Column(CompositeCIHighColumn)
	require.LessOrEqual(t, low[len(low)-1], last)
	require.GreaterOrEqual(t, high[len(high)-1], last)
}

func TestInferAllHospitalOccupancy(t *testing.T) {
	bundle := testBundle(90)
	bundle.Hospitalizations = ts.FromValues(day0, constValues(1000, 90))
	bundle.HospitalizationType = epimodel.HospitalizationCurrent

	e := newTestInference(t, bundle)
	table, err := e.InferAll()
	require.NoError(t, err)
	require.NotNil(t, table)

	require.True(t, table.HasColumn(MAPColumn(epimodel.NewHospitalizations)))
	require.True(t, table.HasColumn(LagColumn(epimodel.NewHospitalizations)))

	// Constant occupancy implies constant admissions, so R_t sits near 1
	// there too.
	hosp, _ := table.Column(MAPColumn(epimodel.NewHospitalizations))
	lastValid := math.NaN()
	for _, v := range hosp {
		if !math.IsNaN(v) {
			lastValid = v
		}
	}
	require.InDelta(t, 1.0, lastValid, 0.1)
}

func TestInferAllDropsFailingKind(t *testing.T) {
	bundle := testBundle(90)
	// Deaths qualify on total count but smooth to a max below the usable
	// threshold, so the kind is dropped while cases still report.
	bundle.NewDeaths = ts.FromValues(day0, constValues(1, 90))

	e := newTestInference(t, bundle)
	table, err := e.InferAll()
	require.NoError(t, err)
	require.NotNil(t, table)

	require.True(t, table.HasColumn(MAPColumn(epimodel.NewCases)))
	require.False(t, table.HasColumn(MAPColumn(epimodel.NewDeaths)))
	// Composite falls back to cases alone.
	comp, _ := table.Column(CompositeMAPColumn)
	cases, _ := table.Column(MAPColumn(epimodel.NewCases))
	require.Equal(t, cases, comp)
}
