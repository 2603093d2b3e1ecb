package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/ts"
)

const sampleCSV = `date,new_cases,new_deaths,hospitalizations,hospitalization_type
2020-03-01,10,1,,
2020-03-02,12,0,130,current
2020-03-03,15,,135,
2020-03-04,,2,140,
`

func TestReadBundleCSV(t *testing.T) {
	bundle, err := ReadBundleCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal("err")
	}

	if bundle.RefDate != time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("ref date = %v", bundle.RefDate)
	}
	if bundle.NewCases.N() != 3 || bundle.NewDeaths.N() != 3 || bundle.Hospitalizations.N() != 3 {
		t.Fatalf("series lengths = %v %v %v",
			bundle.NewCases.N(), bundle.NewDeaths.N(), bundle.Hospitalizations.N())
	}
	if bundle.HospitalizationType != epimodel.HospitalizationCurrent {
		t.Fatalf("hosp type = %v", bundle.HospitalizationType)
	}

	p, ok := bundle.NewCases.Get(time.Date(2020, 3, 3, 0, 0, 0, 0, time.UTC))
	if !ok || p.Value != 15 {
		t.Fatalf("cases on 03-03 = %v %v", p, ok)
	}
	// 03-04 cases cell is empty, no point
	if _, ok := bundle.NewCases.Get(time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)); ok {
		t.Fatal("empty cell should not produce a point")
	}
}

func TestReadBundleCSVBadValue(t *testing.T) {
	bad := "date,new_cases,new_deaths,hospitalizations,hospitalization_type\n2020-03-01,ten,1,,\n"
	if _, err := ReadBundleCSV(strings.NewReader(bad)); err == nil {
		t.Fatal("err")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	bundle := epimodel.ObservationBundle{
		RefDate:             start,
		NewCases:            ts.FromValues(start, []float64{10, 12, 15}),
		NewDeaths:           ts.FromValues(start, []float64{1, 0, 2}),
		Hospitalizations:    ts.FromValues(start.Add(ts.Day), []float64{130, 135}),
		HospitalizationType: epimodel.HospitalizationCumulative,
	}

	var buf bytes.Buffer
	if err := WriteBundleCSV(&buf, bundle); err != nil {
		t.Fatal("err")
	}

	got, err := ReadBundleCSV(&buf)
	if err != nil {
		t.Fatal("err")
	}
	if got.NewCases.N() != 3 || got.Hospitalizations.N() != 2 {
		t.Fatalf("series lengths = %v %v", got.NewCases.N(), got.Hospitalizations.N())
	}
	if got.HospitalizationType != epimodel.HospitalizationCumulative {
		t.Fatalf("hosp type = %v", got.HospitalizationType)
	}
	p, _ := got.Hospitalizations.Get(start.Add(ts.Day))
	if p.Value != 130 {
		t.Fatalf("hosp on day 2 = %v", p.Value)
	}
}

func TestCSVLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "36.csv"), []byte(sampleCSV), 0666); err != nil {
		t.Fatal("err")
	}

	l := NewCSVLoader(dir)
	bundle, err := l.Load(context.Background(), "36")
	if err != nil {
		t.Fatal("err")
	}
	if bundle.FIPS != "36" {
		t.Fatalf("fips = %v", bundle.FIPS)
	}

	if _, err := l.Load(context.Background(), "99"); err == nil {
		t.Fatal("missing file should error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, "36"); err == nil {
		t.Fatal("cancelled context should error")
	}
}
