package inference

import (
	"fmt"
	"math"
	"time"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/inference/align"
	"github.com/covid-projections/covid-data-model/inference/posterior"
	"github.com/covid-projections/covid-data-model/inference/preprocess"
	"github.com/covid-projections/covid-data-model/ts"
	"github.com/covid-projections/covid-data-model/utils"
)

// Config collects every knob of the per-geography inference pipeline.
type Config struct {
	Grid     *posterior.RGrid
	Outlier  preprocess.OutlierFilterOptions
	Smoother preprocess.SmootherOptions
	Align    align.Options

	ProcessSigma      float64
	InitialPriorShape float64
	ReinitPriorShape  float64

	// ConfidenceLevels are the credible interval masses reported per day.
	ConfidenceLevels []float64

	// MinCases and MinDeaths gate a kind on its total observed count.
	MinCases  float64
	MinDeaths float64
	// MinHospPoints gates hospitalizations on series length.
	MinHospPoints int

	// HospDropPoints raw leading points removed from the hospitalization
	// series before smoothing. Early admission reports are unreliable.
	HospDropPoints int

	// AlignWindow is how many trailing days of the MAP series feed the lag
	// search between cases and a trailing indicator.
	AlignWindow int
}

// DefaultConfig .
func DefaultConfig() Config {
	return Config{
		Grid:              posterior.DefaultRGrid(),
		Outlier:           preprocess.DefaultOutlierFilterOptions(),
		Smoother:          preprocess.DefaultSmootherOptions(),
		Align:             align.DefaultOptions(),
		ProcessSigma:      0.05,
		InitialPriorShape: 2.5,
		ReinitPriorShape:  2.0,
		ConfidenceLevels:  []float64{0.68, 0.95},
		MinCases:          5,
		MinDeaths:         5,
		MinHospPoints:     3,
		HospDropPoints:    2,
		AlignWindow:       21,
	}
}

// Engine runs the full R_t pipeline for one geography: per-kind outlier
// removal, smoothing, posterior inference and credible intervals, then lag
// alignment against cases and the composite estimate.
type Engine struct {
	cfg    Config
	bundle epimodel.ObservationBundle
	params epimodel.Parameters
	post   *posterior.Engine

	logger utils.Logger
}

// NewEngine normalizes the bundle's hospitalization series and precomputes
// the posterior engine.
func NewEngine(bundle epimodel.ObservationBundle, params epimodel.Parameters, cfg Config, logger utils.Logger) (*Engine, error) {
	if cfg.Grid == nil {
		return nil, fmt.Errorf("no R grid")
	}
	if logger == nil {
		logger = utils.NewLogger("inference")
	}

	post, err := posterior.NewEngine(posterior.Options{
		Grid:              cfg.Grid,
		SerialPeriod:      params.SerialPeriod(),
		ProcessSigma:      cfg.ProcessSigma,
		InitialPriorShape: cfg.InitialPriorShape,
		ReinitPriorShape:  cfg.ReinitPriorShape,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build posterior engine, %v", err)
	}

	return &Engine{
		cfg:    cfg,
		bundle: bundle.NormalizeHospitalizations(params),
		params: params,
		post:   post,
		logger: logger,
	}, nil
}

// AvailableKinds returns the observation kinds with enough data to attempt
// inference on. Cases and deaths are gated on total count, hospitalizations
// on series length.
func (e *Engine) AvailableKinds() []epimodel.ObservationKind {
	var kinds []epimodel.ObservationKind
	if ts.Sum(e.bundle.NewCases.Values()) > e.cfg.MinCases {
		kinds = append(kinds, epimodel.NewCases)
	}
	if ts.Sum(e.bundle.NewDeaths.Values()) > e.cfg.MinDeaths {
		kinds = append(kinds, epimodel.NewDeaths)
	}
	if e.bundle.Hospitalizations.N() > e.cfg.MinHospPoints {
		kinds = append(kinds, epimodel.NewHospitalizations)
	}
	return kinds
}

// InferAll runs the pipeline on every available kind and merges the results.
// A kind that fails any stage is dropped, it never fails the run. Returns a
// nil table when no kind produced an estimate.
func (e *Engine) InferAll() (*ResultTable, error) {
	begin := time.Now()
	defer func() {
		utils.EmitTimer("inference.infer_all", int(time.Since(begin).Milliseconds()),
			map[string]string{"fips": e.bundle.FIPS})
	}()

	table := NewResultTable()
	inferred := make(map[epimodel.ObservationKind]bool)

	for _, kind := range e.AvailableKinds() {
		if err := e.inferKind(kind, table); err != nil {
			e.logger.Infof("fips %s kind %s dropped, %v", e.bundle.FIPS, kind, err)
			continue
		}
		inferred[kind] = true
	}

	if len(inferred) == 0 {
		e.logger.Warnf("fips %s, no observation kind produced an estimate", e.bundle.FIPS)
		utils.EmitCounter("inference.empty_result", 1, map[string]string{"fips": e.bundle.FIPS})
		return nil, nil
	}

	e.alignToCases(table, inferred)
	e.composite(table, inferred)
	return table, nil
}

// inferKind runs outlier removal, smoothing and posterior inference for one
// kind and merges its columns into the table.
func (e *Engine) inferKind(kind epimodel.ObservationKind, table *ResultTable) error {
	raw := e.bundle.Series(kind)
	if kind == epimodel.NewHospitalizations {
		if raw.N() <= e.cfg.HospDropPoints {
			return fmt.Errorf("only %d points", raw.N())
		}
		raw = raw.Slice(e.cfg.HospDropPoints, raw.N())
	}

	filtered := preprocess.ReplaceOutliers(raw, e.cfg.Outlier, e.logger)
	smoothed := preprocess.Smooth(filtered, e.cfg.Smoother)
	if smoothed.N() < 2 {
		return fmt.Errorf("smoothed series too short or too small")
	}

	res, err := e.post.Compute(smoothed)
	if err != nil {
		return fmt.Errorf("posterior, %v", err)
	}
	if res == nil {
		return fmt.Errorf("posterior produced no estimate")
	}

	maps := make([]float64, len(res.Posteriors))
	for i, d := range res.Posteriors {
		maps[i] = d.MAP()
	}
	table.MergeColumn(MAPColumn(kind), res.Dates, maps)

	intervals := posterior.CredibleIntervals(res, e.cfg.ConfidenceLevels)
	for _, ci := range e.cfg.ConfidenceLevels {
		lows := make([]float64, len(res.Posteriors))
		highs := make([]float64, len(res.Posteriors))
		for i, iv := range intervals[ci] {
			lows[i] = iv.Low
			highs[i] = iv.High
		}
		table.MergeColumn(CILowColumn(kind, ci), res.Dates, lows)
		table.MergeColumn(CIHighColumn(kind, ci), res.Dates, highs)
	}

	// The first smoothed day only seeds the prior, so the stored input
	// column starts at the second date like the estimates do.
	obs := smoothed.Slice(1, smoothed.N())
	table.MergeColumn(SmoothedColumn(kind), obs.Dates(), obs.Values())

	e.logger.Debugf("fips %s kind %s, %d days, loglik %.2f, %d reinits",
		e.bundle.FIPS, kind, len(res.Dates), res.LogLikelihood, res.Reinits)
	utils.EmitCounter("inference.kind_inferred", 1,
		map[string]string{"fips": e.bundle.FIPS, "kind": string(kind)})
	return nil
}

// alignToCases finds the lag of each trailing indicator relative to cases on
// a trailing window of the MAP series, then shifts and re-interpolates every
// column of that indicator.
func (e *Engine) alignToCases(table *ResultTable, inferred map[epimodel.ObservationKind]bool) {
	if !inferred[epimodel.NewCases] {
		return
	}
	caseTail := table.TailColumn(MAPColumn(epimodel.NewCases), e.cfg.AlignWindow)

	for _, kind := range []epimodel.ObservationKind{epimodel.NewDeaths, epimodel.NewHospitalizations} {
		if !inferred[kind] {
			continue
		}
		kindTail := table.TailColumn(MAPColumn(kind), e.cfg.AlignWindow)
		shift := align.FindShift(caseTail, kindTail, e.cfg.Align)
		e.logger.Infof("fips %s kind %s lags cases by %d days", e.bundle.FIPS, kind, shift)

		for _, col := range e.kindColumns(kind) {
			table.ShiftColumn(col, shift)
			table.InterpolateColumn(col)
		}
		table.SetConstantColumn(LagColumn(kind), float64(shift))
	}
}

// composite stores the mean of the cases and deaths MAP estimates, falling
// back to cases alone. Its uncertainty band is borrowed from the cases
// series.
func (e *Engine) composite(table *ResultTable, inferred map[epimodel.ObservationKind]bool) {
	if !inferred[epimodel.NewCases] {
		return
	}
	casesMAP, _ := table.Column(MAPColumn(epimodel.NewCases))

	comp := casesMAP
	if inferred[epimodel.NewDeaths] {
		deathsMAP, _ := table.Column(MAPColumn(epimodel.NewDeaths))
		comp = make([]float64, len(casesMAP))
		for i := range comp {
			comp[i] = nanMean(casesMAP[i], deathsMAP[i])
		}
	}
	table.MergeColumn(CompositeMAPColumn, table.Dates(), comp)

	if low, ok := table.Column(CILowColumn(epimodel.NewCases, 0.95)); ok {
		table.MergeColumn(CompositeCILowColumn, table.Dates(), low)
	}
	if high, ok := table.Column(CIHighColumn(epimodel.NewCases, 0.95)); ok {
		table.MergeColumn(CompositeCIHighColumn, table.Dates(), high)
	}
}

// kindColumns lists the table columns belonging to one kind, lag excluded.
func (e *Engine) kindColumns(kind epimodel.ObservationKind) []string {
	cols := []string{MAPColumn(kind), SmoothedColumn(kind)}
	for _, ci := range e.cfg.ConfidenceLevels {
		cols = append(cols, CILowColumn(kind, ci), CIHighColumn(kind, ci))
	}
	return cols
}

func nanMean(a, b float64) float64 {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return math.NaN()
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return (a + b) / 2
}
