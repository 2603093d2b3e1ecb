// Package testtools generates synthetic epidemic observation series for
// tests and local experiments.
package testtools

import (
	"math"
	"math/rand"
	"time"

	"github.com/covid-projections/covid-data-model/ts"
)

// Day2X maps a date to a day offset from some origin.
type Day2X func(date time.Time) float64

// DaysSince .
func DaysSince(origin time.Time) Day2X {
	return func(date time.Time) float64 {
		return date.Sub(origin).Hours() / 24
	}
}

// ConstGener .
type ConstGener struct {
	Value float64
}

// Gen .
func (cg *ConstGener) Gen(date time.Time) float64 {
	return cg.Value
}

// ExpGener generates daily counts of an epidemic holding R constant:
// k(t) = K0 * exp((R-1)/tau * t).
type ExpGener struct {
	K0    float64
	R     float64
	Tau   float64
	Day2X Day2X
}

// Gen .
func (eg *ExpGener) Gen(date time.Time) float64 {
	t := eg.Day2X(date)
	return eg.K0 * math.Exp((eg.R-1)/eg.Tau*t)
}

// NoisyGener adds seeded Gaussian noise on top of another generator and
// floors at zero, so counts stay valid.
type NoisyGener struct {
	Base  Generator
	Sigma float64
	Rand  *rand.Rand
}

// Gen .
func (ng *NoisyGener) Gen(date time.Time) float64 {
	v := ng.Base.Gen(date) + ng.Rand.NormFloat64()*ng.Sigma
	if v < 0 {
		return 0
	}
	return v
}

// Generator .
type Generator interface {
	Gen(date time.Time) float64
}

// GenSeries generates one point per day from begin to end inclusive.
func GenSeries(begin, end time.Time, g Generator) ts.Series {
	var points ts.Points
	for date := begin; !date.After(end); date = date.Add(ts.Day) {
		points = append(points, ts.NewPoint(date, math.Round(g.Gen(date))))
	}
	return ts.NewSeries(points)
}
