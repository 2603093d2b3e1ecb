package ts

import "time"

// Day is the spacing between two adjacent observations.
const Day = time.Hour * 24

// Point represents a single daily observation.
type Point struct {
	Date  time.Time
	Value float64
}

// NewPoint .
func NewPoint(date time.Time, val float64) Point {
	return Point{Date: date.Truncate(Day), Value: val}
}

// Points .
type Points []Point

// Len .
func (p Points) Len() int {
	return len(p)
}

// Less .
func (p Points) Less(i, j int) bool {
	return p[i].Date.Before(p[j].Date)
}

// Swap .
func (p Points) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

// LeftBinSearch find the max pos that date <= target
func (p Points) LeftBinSearch(date time.Time) int {
	left := 0
	right := len(p)
	for left < right {
		mid := (left + right) >> 1
		d := p[mid].Date
		if d.Equal(date) {
			return mid
		} else if date.After(d) {
			left = mid + 1
		} else {
			right = mid
		}
	}

	if left == len(p) {
		left--
	}
	return left
}

// Series represents one daily observation series. A Series is an immutable
// snapshot: every transform returns a new Series and never mutates the source.
type Series struct {
	points Points
}

// NewSeries .
func NewSeries(points Points) Series {
	ps := make(Points, len(points))
	copy(ps, points)
	return Series{points: ps}
}

// FromValues builds a Series of consecutive days beginning at start.
func FromValues(start time.Time, vals []float64) Series {
	points := make(Points, 0, len(vals))
	for i, v := range vals {
		points = append(points, NewPoint(start.Add(Day*time.Duration(i)), v))
	}
	return Series{points: points}
}

// Get .
func (s Series) Get(date time.Time) (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	idx := s.points.LeftBinSearch(date)
	if s.points[idx].Date.Equal(date) {
		return s.points[idx], true
	}
	return Point{}, false
}

// Points .
func (s Series) Points() Points {
	points := make(Points, len(s.points))
	copy(points, s.points)
	return points
}

// Values .
func (s Series) Values() []float64 {
	vals := make([]float64, 0, len(s.points))
	for _, p := range s.points {
		vals = append(vals, p.Value)
	}
	return vals
}

// Dates .
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s.points))
	for _, p := range s.points {
		dates = append(dates, p.Date)
	}
	return dates
}

// Days returns integer day offsets of every point relative to ref.
func (s Series) Days(ref time.Time) []int {
	days := make([]int, 0, len(s.points))
	for _, p := range s.points {
		days = append(days, int(p.Date.Sub(ref)/Day))
	}
	return days
}

// Begin .
func (s Series) Begin() time.Time {
	if len(s.points) == 0 {
		return time.Time{}
	}
	return s.points[0].Date
}

// End .
func (s Series) End() time.Time {
	if len(s.points) == 0 {
		return time.Time{}
	}
	return s.points[len(s.points)-1].Date
}

// N number of observed points
func (s Series) N() int {
	return len(s.points)
}

// Slice returns the sub-series covering positions [from, to).
func (s Series) Slice(from, to int) Series {
	if from < 0 {
		from = 0
	}
	if to > len(s.points) {
		to = len(s.points)
	}
	if from >= to {
		return Series{}
	}
	return NewSeries(s.points[from:to])
}

// WithValues returns a Series with the same dates and the given values.
func (s Series) WithValues(vals []float64) Series {
	points := make(Points, len(s.points))
	for i := range s.points {
		points[i] = Point{Date: s.points[i].Date, Value: vals[i]}
	}
	return Series{points: points}
}

// Contiguous reports whether every adjacent pair of points is one day apart.
func (s Series) Contiguous() bool {
	for i := 1; i < len(s.points); i++ {
		if s.points[i].Date.Sub(s.points[i-1].Date) != Day {
			return false
		}
	}
	return true
}
