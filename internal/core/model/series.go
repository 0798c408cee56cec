package model

import (
	"sort"
	"time"
)

// Peak is the value every completed series is scaled to.
const Peak = 100.0

// Max returns the largest value, or 0 for an empty series.
func (s Series) Max() float64 {
	var m float64
	for i, p := range s {
		if i == 0 || p.Value > m {
			m = p.Value
		}
	}
	return m
}

// PeakPoint returns the first point holding the maximum value.
func (s Series) PeakPoint() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	best := s[0]
	for _, p := range s[1:] {
		if p.Value > best.Value {
			best = p
		}
	}
	return best, true
}

// Sort orders points by time in place.
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time.Before(s[j].Time)
	})
}

// Start returns the time of the first point.
func (s Series) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Time
}

// End returns the time of the last point.
func (s Series) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Time
}

// Window returns the points with from <= t <= to. The series must be sorted.
func (s Series) Window(from, to time.Time) Series {
	lo := sort.Search(len(s), func(i int) bool {
		return !s[i].Time.Before(from)
	})
	hi := sort.Search(len(s), func(i int) bool {
		return s[i].Time.After(to)
	})
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}

// MeanBetween averages the values inside [from, to]. ok is false when no
// point falls inside the range.
func (s Series) MeanBetween(from, to time.Time) (mean float64, ok bool) {
	w := s.Window(from, to)
	if len(w) == 0 {
		return 0, false
	}
	var sum float64
	for _, p := range w {
		sum += p.Value
	}
	return sum / float64(len(w)), true
}

// Normalize returns a copy of s scaled so that its maximum equals Peak.
// A series without any positive value cannot be scaled and yields ErrZeroPeak.
func Normalize(s Series) (Series, error) {
	if len(s) == 0 {
		return Series{}, nil
	}
	m := s.Max()
	if m <= 0 {
		return nil, NewError(KindZeroPeak, "%d points, maximum %g", len(s), m)
	}
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = Point{Time: p.Time, Value: Peak * p.Value / m}
	}
	return out, nil
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// LabelKey is the map key used for timestamp identity. time.Time values
// carry locations and monotonic readings that break == comparisons.
func LabelKey(t time.Time) int64 {
	return t.UnixNano()
}
