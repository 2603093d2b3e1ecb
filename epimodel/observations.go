package epimodel

import (
	"time"

	"github.com/covid-projections/covid-data-model/ts"
)

// ObservationKind tags one of the daily count series used for inference.
type ObservationKind string

const (
	NewCases            ObservationKind = "new_cases"
	NewDeaths           ObservationKind = "new_deaths"
	NewHospitalizations ObservationKind = "new_hospitalizations"
)

// HospitalizationType distinguishes the two shapes hospitalization data
// arrives in.
type HospitalizationType string

const (
	HospitalizationNone       HospitalizationType = ""
	HospitalizationCumulative HospitalizationType = "cumulative"
	HospitalizationCurrent    HospitalizationType = "current"
)

// ObservationBundle is the immutable per-geography input to one inference
// run: the three aligned daily series anchored to a shared reference date.
type ObservationBundle struct {
	FIPS    string
	RefDate time.Time

	NewCases  ts.Series
	NewDeaths ts.Series

	Hospitalizations    ts.Series
	HospitalizationType HospitalizationType
}

// Series returns the series for the given observation kind. For
// hospitalizations the occupancy-to-admissions conversion must already have
// been applied (see NormalizeHospitalizations).
func (b *ObservationBundle) Series(kind ObservationKind) ts.Series {
	switch kind {
	case NewCases:
		return b.NewCases
	case NewDeaths:
		return b.NewDeaths
	case NewHospitalizations:
		return b.Hospitalizations
	}
	return ts.Series{}
}

// NormalizeHospitalizations returns a bundle whose hospitalization series is
// a daily new-admissions flow. Cumulative and absent series pass through
// unchanged; current-occupancy series are converted via
// ReconstructAdmissions.
func (b ObservationBundle) NormalizeHospitalizations(params Parameters) ObservationBundle {
	if b.HospitalizationType != HospitalizationCurrent {
		return b
	}
	b.Hospitalizations = ReconstructAdmissions(b.Hospitalizations, params)
	return b
}

// ReconstructAdmissions derives implied new admissions from a
// current-occupancy census. The day-over-day change in occupancy understates
// admissions by the discharge outflow, so the estimated outflow (driven by
// average length of stay, split between general beds and ICU) is added back.
// The first occupancy point has no predecessor and is dropped.
func ReconstructAdmissions(occupancy ts.Series, params Parameters) ts.Series {
	if occupancy.N() < 2 {
		return ts.Series{}
	}

	vals := occupancy.Values()
	icuRate := params.ICURate()
	outRate := (1-icuRate)/params.HospitalizationLengthOfStayGeneral +
		icuRate/params.HospitalizationLengthOfStayICU

	admissions := make([]float64, occupancy.N()-1)
	for i := 1; i < occupancy.N(); i++ {
		flowOut := vals[i-1] * outRate
		admissions[i-1] = vals[i] - vals[i-1] + flowOut
	}

	return occupancy.Slice(1, occupancy.N()).WithValues(admissions)
}
