// Package epimodel carries the disease natural-history parameters that the
// inference pipeline consumes, and the conversions between the raw observation
// shapes reported by data providers and the daily-flow series the pipeline
// expects.
package epimodel

// Parameters are the average disease parameters for one geography. Rates are
// per day, lengths of stay in days.
type Parameters struct {
	// Sigma is the incubation rate (1 / mean incubation period).
	Sigma float64
	// Delta is the recovery rate of infected cases (1 / mean infectious period).
	Delta float64

	HospitalizationLengthOfStayGeneral float64
	HospitalizationLengthOfStayICU     float64
	HospitalizationRateGeneral         float64
	HospitalizationRateICU             float64
}

// DefaultParameters .
func DefaultParameters() Parameters {
	return Parameters{
		Sigma:                              1.0 / 3.0,
		Delta:                              1.0 / 6.0,
		HospitalizationLengthOfStayGeneral: 7,
		HospitalizationLengthOfStayICU:     16,
		HospitalizationRateGeneral:         0.025,
		HospitalizationRateICU:             0.0075,
	}
}

// SerialPeriod is the mean generation interval of the transmission chain:
// incubation plus half of the infectious period.
func (p Parameters) SerialPeriod() float64 {
	return 1/p.Sigma + 0.5*1/p.Delta
}

// ICURate is the fraction of hospitalized cases that need intensive care.
func (p Parameters) ICURate() float64 {
	if p.HospitalizationRateGeneral == 0 {
		return 0
	}
	return p.HospitalizationRateICU / p.HospitalizationRateGeneral
}
