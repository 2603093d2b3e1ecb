// Package posterior implements the sequential Bayesian filter that turns a
// smoothed daily count series into a posterior distribution over the
// effective reproduction number R_t for each day. The observation model is
// Poisson with rate k_{t-1}·exp((R−1)/τ); the process model is a Gaussian
// random walk over a fixed discrete R grid.
package posterior

import "fmt"

// RGrid is the fixed, strictly increasing grid of candidate R_t values all
// posteriors for one run are computed over.
type RGrid struct {
	values []float64
}

// NewRGrid builds a grid of n evenly spaced values spanning [min, max].
func NewRGrid(min, max float64, n int) (*RGrid, error) {
	if n < 2 {
		return nil, fmt.Errorf("grid needs at least 2 points, got %v", n)
	}
	if max <= min {
		return nil, fmt.Errorf("invalid grid bounds [%v, %v]", min, max)
	}

	values := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range values {
		values[i] = min + step*float64(i)
	}
	return &RGrid{values: values}, nil
}

// DefaultRGrid is 0 to 10 in 501 steps, a 0.02 resolution.
func DefaultRGrid() *RGrid {
	g, _ := NewRGrid(0, 10, 501)
	return g
}

// N .
func (g *RGrid) N() int {
	return len(g.values)
}

// Values returns the grid values. The slice is shared and must not be
// modified.
func (g *RGrid) Values() []float64 {
	return g.values
}

// At .
func (g *RGrid) At(i int) float64 {
	return g.values[i]
}

// Resolution .
func (g *RGrid) Resolution() float64 {
	return g.values[1] - g.values[0]
}
