// Package loader reads per-geography observation series from disk.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/ts"
)

// Loader fetches the raw observation bundle for one geography.
type Loader interface {
	Load(ctx context.Context, fips string) (epimodel.ObservationBundle, error)
}

const csvHeader = "date,new_cases,new_deaths,hospitalizations,hospitalization_type"

// CSVLoader reads one file per geography from a directory, named
// <fips>.csv. Empty cells are missing observations and produce no point.
// The hospitalization type is taken from the first row that carries one.
type CSVLoader struct {
	Dir string
}

// NewCSVLoader .
func NewCSVLoader(dir string) *CSVLoader {
	return &CSVLoader{Dir: dir}
}

// Load .
func (l *CSVLoader) Load(ctx context.Context, fips string) (epimodel.ObservationBundle, error) {
	select {
	case <-ctx.Done():
		return epimodel.ObservationBundle{}, ctx.Err()
	default:
	}

	fpath := filepath.Join(l.Dir, fips+".csv")
	f, err := os.Open(fpath)
	if err != nil {
		return epimodel.ObservationBundle{}, fmt.Errorf("open file err: %v", err)
	}
	defer f.Close()

	bundle, err := ReadBundleCSV(f)
	if err != nil {
		return epimodel.ObservationBundle{}, fmt.Errorf("read %v err: %v", fpath, err)
	}
	bundle.FIPS = fips
	return bundle, nil
}

// ReadBundleCSV parses an observation csv stream.
//  format:
//   date(2006-01-02), new_cases, new_deaths, hospitalizations, hospitalization_type
func ReadBundleCSV(rd io.Reader) (epimodel.ObservationBundle, error) {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = 5

	var bundle epimodel.ObservationBundle
	var cases, deaths, hosp ts.Points

	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return bundle, fmt.Errorf("read csv err: %v", err)
		}

		if first {
			first = false
			continue
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			return bundle, fmt.Errorf("invalid date in the first column: %v", record[0])
		}
		if bundle.RefDate.IsZero() {
			bundle.RefDate = date
		}

		if p, ok, err := parseCell(date, record[1]); err != nil {
			return bundle, fmt.Errorf("invalid new_cases value: %v", record[1])
		} else if ok {
			cases = append(cases, p)
		}
		if p, ok, err := parseCell(date, record[2]); err != nil {
			return bundle, fmt.Errorf("invalid new_deaths value: %v", record[2])
		} else if ok {
			deaths = append(deaths, p)
		}
		if p, ok, err := parseCell(date, record[3]); err != nil {
			return bundle, fmt.Errorf("invalid hospitalizations value: %v", record[3])
		} else if ok {
			hosp = append(hosp, p)
		}

		if bundle.HospitalizationType == epimodel.HospitalizationNone {
			switch strings.TrimSpace(record[4]) {
			case string(epimodel.HospitalizationCumulative):
				bundle.HospitalizationType = epimodel.HospitalizationCumulative
			case string(epimodel.HospitalizationCurrent):
				bundle.HospitalizationType = epimodel.HospitalizationCurrent
			}
		}
	}

	bundle.NewCases = ts.NewSeries(cases)
	bundle.NewDeaths = ts.NewSeries(deaths)
	bundle.Hospitalizations = ts.NewSeries(hosp)
	return bundle, nil
}

// WriteBundleCSV writes a bundle in the format ReadBundleCSV parses.
func WriteBundleCSV(w io.Writer, bundle epimodel.ObservationBundle) error {
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return fmt.Errorf("write header err: %v", err)
	}

	dates := unionDates(bundle.NewCases, bundle.NewDeaths, bundle.Hospitalizations)
	hospType := string(bundle.HospitalizationType)
	for _, d := range dates {
		row := []string{
			d.Format("2006-01-02"),
			formatCell(bundle.NewCases, d),
			formatCell(bundle.NewDeaths, d),
			formatCell(bundle.Hospitalizations, d),
			hospType,
		}
		hospType = "" // only on the first row
		if _, err := fmt.Fprintln(w, strings.Join(row, ",")); err != nil {
			return fmt.Errorf("write row err: %v", err)
		}
	}
	return nil
}

func parseCell(date time.Time, cell string) (ts.Point, bool, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return ts.Point{}, false, nil
	}
	val, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return ts.Point{}, false, err
	}
	return ts.NewPoint(date, val), true, nil
}

func formatCell(s ts.Series, d time.Time) string {
	p, ok := s.Get(d)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

func unionDates(series ...ts.Series) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, s := range series {
		for _, d := range s.Dates() {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	for i := 1; i < len(dates); i++ {
		for j := i; j > 0 && dates[j].Before(dates[j-1]); j-- {
			dates[j], dates[j-1] = dates[j-1], dates[j]
		}
	}
	return dates
}
