package posterior

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/covid-projections/covid-data-model/ts"
	"github.com/covid-projections/covid-data-model/utils"
)

// Options .
type Options struct {
	Grid *RGrid
	// SerialPeriod is the mean generation interval τ, in days.
	SerialPeriod float64
	// ProcessSigma is the std of the Gaussian day-to-day random walk on R_t.
	ProcessSigma float64
	// InitialPriorShape is the Gamma shape of the day-zero prior.
	InitialPriorShape float64
	// ReinitPriorShape is the Gamma shape of the prior used to restart the
	// filter after a degenerate day.
	ReinitPriorShape float64
}

// DefaultOptions .
func DefaultOptions(serialPeriod float64) Options {
	return Options{
		Grid:              DefaultRGrid(),
		SerialPeriod:      serialPeriod,
		ProcessSigma:      0.05,
		InitialPriorShape: 2.5,
		ReinitPriorShape:  2.0,
	}
}

// Distribution is one day's probability mass over the R grid.
type Distribution struct {
	grid  *RGrid
	probs []float64
}

// Grid .
func (d Distribution) Grid() *RGrid {
	return d.grid
}

// Probs returns the probability mass. The slice is shared and must not be
// modified.
func (d Distribution) Probs() []float64 {
	return d.probs
}

// MAP returns the grid value with the highest mass, favoring the lowest
// index on ties.
func (d Distribution) MAP() float64 {
	best := 0
	for i, p := range d.probs {
		if p > d.probs[best] {
			best = i
		}
	}
	return d.grid.At(best)
}

// Sum .
func (d Distribution) Sum() float64 {
	return ts.Sum(d.probs)
}

// Result holds the posterior sequence for one observation series. The first
// smoothed day only seeds the prior, so Dates starts at the series' second
// date.
type Result struct {
	Dates         []time.Time
	Posteriors    []Distribution
	LogLikelihood float64
	// Reinits counts degenerate days recovered via the reinitialization
	// prior.
	Reinits int
}

// Engine computes posterior sequences over a fixed R grid. An Engine is
// immutable after construction and safe for concurrent use.
type Engine struct {
	op Options

	processMatrix *mat.Dense
	initialPrior  []float64
	reinitPrior   []float64

	logger utils.Logger
}

// NewEngine precomputes the process-model matrix and the two priors.
func NewEngine(op Options, logger utils.Logger) (*Engine, error) {
	if op.Grid == nil {
		return nil, fmt.Errorf("no R grid")
	}
	if op.SerialPeriod <= 0 {
		return nil, fmt.Errorf("invalid serial period %v", op.SerialPeriod)
	}
	if op.ProcessSigma <= 0 {
		return nil, fmt.Errorf("invalid process sigma %v", op.ProcessSigma)
	}

	e := &Engine{
		op:            op,
		processMatrix: processMatrix(op.Grid, op.ProcessSigma),
		initialPrior:  gammaPrior(op.Grid, op.InitialPriorShape),
		reinitPrior:   gammaPrior(op.Grid, op.ReinitPriorShape),
		logger:        logger,
	}
	return e, nil
}

// processMatrix discretizes a Gaussian transition kernel over the grid.
// Entry (i, j) is the density of moving from grid value j to grid value i;
// each "from" column is normalized to sum to 1.
func processMatrix(grid *RGrid, sigma float64) *mat.Dense {
	n := grid.N()
	m := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		kernel := distuv.Normal{Mu: grid.At(j), Sigma: sigma}
		var colSum float64
		for i := 0; i < n; i++ {
			p := kernel.Prob(grid.At(i))
			m.Set(i, j, p)
			colSum += p
		}
		for i := 0; i < n; i++ {
			m.Set(i, j, m.At(i, j)/colSum)
		}
	}
	return m
}

func gammaPrior(grid *RGrid, shape float64) []float64 {
	g := distuv.Gamma{Alpha: shape, Beta: 1}
	probs := make([]float64, grid.N())
	var sum float64
	for i := range probs {
		probs[i] = g.Prob(grid.At(i))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// poissonPMF with the degenerate rate handled explicitly: a zero rate puts
// all mass on zero counts.
func poissonPMF(k, lambda float64) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	return distuv.Poisson{Lambda: lambda}.Prob(k)
}

// likelihood of observing k today given yesterday's count, for every R on
// the grid: the expected count under candidate R is
// yesterday·exp((R−1)/τ).
func (e *Engine) likelihood(yesterday, k float64) []float64 {
	grid := e.op.Grid
	out := make([]float64, grid.N())
	for i := range out {
		lambda := yesterday * math.Exp((grid.At(i)-1)/e.op.SerialPeriod)
		out[i] = poissonPMF(k, lambda)
	}
	return out
}

// ReinitPrior returns the normalized reinitialization prior as a
// Distribution.
func (e *Engine) ReinitPrior() Distribution {
	probs := make([]float64, len(e.reinitPrior))
	copy(probs, e.reinitPrior)
	return Distribution{grid: e.op.Grid, probs: probs}
}

// Compute runs the sequential Bayes update over the smoothed series. The
// returned Result is nil (with a nil error) when the series has fewer than
// two points: that observation kind has no usable data.
//
// Each step is a pure fold: (yesterday's posterior, today's count) -> (new
// posterior, output). When today's normalizing constant is exactly zero (the
// series passed through zero, so no candidate R explains the jump) the filter
// restarts from the reinitialization prior instead of propagating NaN through
// the remainder of the series; the restart day is excluded from the
// accumulated log-likelihood.
func (e *Engine) Compute(s ts.Series) (*Result, error) {
	if s.N() < 2 {
		return nil, nil
	}
	if !s.Contiguous() && e.logger != nil {
		// Gaps are tolerated the same way adjacent days are: the update
		// treats consecutive points as one serial step apart.
		e.logger.Warnf("series %v..%v has date gaps over %v points",
			s.Begin().Format("2006-01-02"), s.End().Format("2006-01-02"), s.N())
	}

	grid := e.op.Grid
	n := grid.N()
	vals := s.Values()
	dates := s.Dates()

	result := &Result{
		Dates:      dates[1:],
		Posteriors: make([]Distribution, 0, len(vals)-1),
	}

	current := mat.NewVecDense(n, append([]float64(nil), e.initialPrior...))
	propagated := mat.NewVecDense(n, nil)

	for t := 1; t < len(vals); t++ {
		propagated.MulVec(e.processMatrix, current)

		lik := e.likelihood(vals[t-1], vals[t])
		numerator := make([]float64, n)
		var z float64
		for i := 0; i < n; i++ {
			numerator[i] = lik[i] * propagated.AtVec(i)
			z += numerator[i]
		}

		if z == 0 {
			copy(numerator, e.reinitPrior)
			result.Reinits++
			if e.logger != nil {
				e.logger.Warnf("degenerate posterior on %v (count %v -> %v), restarting from reinit prior",
					dates[t].Format("2006-01-02"), vals[t-1], vals[t])
			}
			utils.EmitCounter("posterior.reinit", 1, nil)
		} else {
			for i := range numerator {
				numerator[i] /= z
			}
			result.LogLikelihood += math.Log(z)
		}

		result.Posteriors = append(result.Posteriors, Distribution{grid: grid, probs: numerator})
		current = mat.NewVecDense(n, numerator)
	}

	return result, nil
}
