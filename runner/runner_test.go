package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/inference"
	"github.com/covid-projections/covid-data-model/ts"
	"github.com/covid-projections/covid-data-model/utils"
)

func newTestRunner(p *Plugins) *runner {
	return &runner{
		O: &Options{
			MaxRuns:           4,
			MaxConcurrentGeos: 2,
			P:                 p,
			Inference:         inference.DefaultConfig(),
		},
		status:    _STATUS_INIT,
		runs:      make(map[string]*Run),
		contexts:  make(map[string]context.Context),
		cancels:   make(map[string]func()),
		exit:      make(chan struct{}),
		logger:    utils.NewLogger("runner_test"),
		metricser: utils.NewDefaultMetricser(),
	}
}

func steadyBundle(fips string) epimodel.ObservationBundle {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	vals := make([]float64, 90)
	for i := range vals {
		vals[i] = 100
	}
	return epimodel.ObservationBundle{
		FIPS:      fips,
		RefDate:   start,
		NewCases:  ts.FromValues(start, vals),
		NewDeaths: ts.FromValues(start, vals),
	}
}

func TestRunIsolatesGeoFailures(t *testing.T) {
	var mu sync.Mutex
	stored := make(map[string]*inference.ResultTable)
	reported := make(map[string]error)

	p := &Plugins{
		LoadObservations: func(ctx context.Context, fips string) (epimodel.ObservationBundle, error) {
			if fips == "99" {
				return epimodel.ObservationBundle{}, fmt.Errorf("no data for %v", fips)
			}
			return steadyBundle(fips), nil
		},
		Parameters: func(fips string) (epimodel.Parameters, error) {
			return epimodel.DefaultParameters(), nil
		},
		StoreResult: func(runName, fips string, table *inference.ResultTable) error {
			mu.Lock()
			defer mu.Unlock()
			stored[fips] = table
			return nil
		},
		ReportError: func(runName, fips string, err error) {
			mu.Lock()
			defer mu.Unlock()
			reported[fips] = err
		},
	}

	r := newTestRunner(p)
	run, err := newRun(RunMeta{Name: "test", FIPS: []string{"36", "06", "99"}})
	if err != nil {
		t.Fatal("err")
	}
	r.submitRun(run)

	if run.State() != RunDone {
		t.Fatalf("run state = %v, want done", run.State())
	}

	geos := run.Geos()
	if geos["36"].State() != GeoDone || geos["06"].State() != GeoDone {
		t.Fatal("healthy geos should be done")
	}
	if geos["99"].State() != GeoError {
		t.Fatalf("geo 99 state = %v, want error", geos["99"].State())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stored) != 2 || stored["36"] == nil || stored["06"] == nil {
		t.Fatal("results for healthy geos should be stored")
	}
	if _, ok := reported["99"]; !ok {
		t.Fatal("failing geo should be reported")
	}
	if geos["36"].Table() == nil {
		t.Fatal("geo should keep its table")
	}
}

func TestRunErrorWhenAllGeosFail(t *testing.T) {
	p := &Plugins{
		LoadObservations: func(ctx context.Context, fips string) (epimodel.ObservationBundle, error) {
			return epimodel.ObservationBundle{}, fmt.Errorf("down")
		},
		Parameters: func(fips string) (epimodel.Parameters, error) {
			return epimodel.DefaultParameters(), nil
		},
		StoreResult: func(runName, fips string, table *inference.ResultTable) error { return nil },
		ReportError: func(runName, fips string, err error) {},
	}

	r := newTestRunner(p)
	run, err := newRun(RunMeta{Name: "doomed", FIPS: []string{"36", "06"}})
	if err != nil {
		t.Fatal("err")
	}
	r.submitRun(run)

	if run.State() != RunError {
		t.Fatalf("run state = %v, want error", run.State())
	}
	if err, _ := run.Err(); err == nil {
		t.Fatal("run should carry an error")
	}
}

func TestRunRecoversFromPanic(t *testing.T) {
	p := &Plugins{
		LoadObservations: func(ctx context.Context, fips string) (epimodel.ObservationBundle, error) {
			if fips == "panic" {
				panic("boom")
			}
			return steadyBundle(fips), nil
		},
		Parameters: func(fips string) (epimodel.Parameters, error) {
			return epimodel.DefaultParameters(), nil
		},
		StoreResult: func(runName, fips string, table *inference.ResultTable) error { return nil },
		ReportError: func(runName, fips string, err error) {},
	}

	r := newTestRunner(p)
	run, err := newRun(RunMeta{Name: "mixed", FIPS: []string{"36", "panic"}})
	if err != nil {
		t.Fatal("err")
	}
	r.submitRun(run)

	if run.State() != RunDone {
		t.Fatalf("run state = %v, want done", run.State())
	}
	if run.Geos()["panic"].State() != GeoError {
		t.Fatal("panicking geo should be marked error")
	}
}

func TestStopClosesExitAndCancelsRuns(t *testing.T) {
	r := newTestRunner(&Plugins{})
	if err := r.stop(); err == nil {
		t.Fatal("stop before start must error")
	}
	if err := r.start(); err != nil {
		t.Fatal("err")
	}
	run, err := newRun(RunMeta{Name: "halt", FIPS: []string{"36"}})
	if err != nil {
		t.Fatal("err")
	}
	r.addRun(run)

	if err := r.stop(); err != nil {
		t.Fatalf("stop err=%v", err)
	}
	select {
	case <-r.exit:
	default:
		t.Fatal("exit must be closed so the heartbeat returns")
	}
	if !r.runHasDone(run) {
		t.Fatal("run contexts must be released on stop")
	}
	if err := r.stop(); err == nil {
		t.Fatal("second stop must error")
	}
}

func TestNewRunValidation(t *testing.T) {
	if _, err := newRun(RunMeta{Name: "", FIPS: []string{"36"}}); err == nil {
		t.Fatal("err")
	}
	if _, err := newRun(RunMeta{Name: "x"}); err == nil {
		t.Fatal("err")
	}
	if _, err := newRun(RunMeta{Name: "x", FIPS: []string{"36"}, Config: "{bad"}); err == nil {
		t.Fatal("err")
	}
}
