package epimodel

import (
	"math"
	"testing"
	"time"

	"github.com/covid-projections/covid-data-model/ts"
)

func TestSerialPeriod(t *testing.T) {
	p := Parameters{Sigma: 1.0 / 4.0, Delta: 1.0 / 6.0}
	if sp := p.SerialPeriod(); math.Abs(sp-7) > 1e-12 {
		t.Fatalf("serial period = %v, want 7", sp)
	}
}

func TestReconstructAdmissionsSteadyState(t *testing.T) {
	p := DefaultParameters()
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	// Constant occupancy: admissions must exactly offset the outflow.
	occ := ts.FromValues(epoch, []float64{100, 100, 100, 100})
	adm := ReconstructAdmissions(occ, p)
	if adm.N() != 3 {
		t.Fatalf("n = %v, want 3", adm.N())
	}
	if !adm.Begin().Equal(epoch.Add(ts.Day)) {
		t.Fatal("first occupancy point must be dropped")
	}

	icu := p.ICURate()
	wantOut := 100 * ((1-icu)/p.HospitalizationLengthOfStayGeneral + icu/p.HospitalizationLengthOfStayICU)
	for _, v := range adm.Values() {
		if math.Abs(v-wantOut) > 1e-9 {
			t.Fatalf("admissions = %v, want %v", v, wantOut)
		}
	}
}

func TestReconstructAdmissionsTooShort(t *testing.T) {
	p := DefaultParameters()
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if out := ReconstructAdmissions(ts.FromValues(epoch, []float64{50}), p); out.N() != 0 {
		t.Fatal("err")
	}
}

func TestNormalizeHospitalizations(t *testing.T) {
	p := DefaultParameters()
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	cumulative := ObservationBundle{
		Hospitalizations:    ts.FromValues(epoch, []float64{1, 2, 3}),
		HospitalizationType: HospitalizationCumulative,
	}
	if got := cumulative.NormalizeHospitalizations(p); got.Hospitalizations.N() != 3 {
		t.Fatal("cumulative series must pass through unchanged")
	}

	current := ObservationBundle{
		Hospitalizations:    ts.FromValues(epoch, []float64{100, 110, 120}),
		HospitalizationType: HospitalizationCurrent,
	}
	got := current.NormalizeHospitalizations(p)
	if got.Hospitalizations.N() != 2 {
		t.Fatal("current-occupancy series must be converted to admissions")
	}
	// diff is +10 and outflow is positive, so admissions exceed 10
	if got.Hospitalizations.Values()[0] <= 10 {
		t.Fatal("admissions must include the discharge outflow")
	}
}
