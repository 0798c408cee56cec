package model

import (
	"fmt"
	"time"
)

// RawFragment is one result returned by the acquisition collaborator: a
// window and the window-relative samples, without timestamps.
type RawFragment struct {
	RequestID int64     `json:"request_id"`
	Keyword   string    `json:"keyword"`
	Geo       string    `json:"geo"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Values    []float64 `json:"values"`
}

// Window returns the length of the requested timeframe.
func (r RawFragment) Window() time.Duration {
	return r.End.Sub(r.Start)
}

// Key returns the series this fragment belongs to.
func (r RawFragment) Key() SeriesKey {
	return SeriesKey{Keyword: r.Keyword, Geo: r.Geo}
}

// Fragment is a label-restored timeframe: Labels and Values are index aligned.
type Fragment struct {
	Labels []time.Time `json:"labels"`
	Values []float64   `json:"values"`
}

// NewFragment panics when labels and values are not the same non-zero length.
func NewFragment(labels []time.Time, values []float64) Fragment {
	f := Fragment{Labels: labels, Values: values}
	f.MustValidate()
	return f
}

// MustValidate enforces the fragment contract. Violations are programming
// errors, not data conditions.
func (f Fragment) MustValidate() {
	if len(f.Labels) == 0 {
		panic("model: fragment has no samples")
	}
	if len(f.Labels) != len(f.Values) {
		panic(fmt.Sprintf("model: fragment has %d labels but %d values", len(f.Labels), len(f.Values)))
	}
}

// First returns the earliest label.
func (f Fragment) First() time.Time {
	return f.Labels[0]
}

// Last returns the latest label.
func (f Fragment) Last() time.Time {
	return f.Labels[len(f.Labels)-1]
}

// Len returns the number of samples.
func (f Fragment) Len() int {
	return len(f.Labels)
}

// SeriesKey identifies one reconciled series.
type SeriesKey struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
}

func (k SeriesKey) String() string {
	if k.Geo == "" {
		return k.Keyword + "@world"
	}
	return k.Keyword + "@" + k.Geo
}

// Point is one (timestamp, value) sample of a reconciled series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is a sequence of points sorted by time without duplicate timestamps.
type Series []Point

// LabeledFragment is a restored fragment that still carries the request
// metadata it came from.
type LabeledFragment struct {
	RequestID int64         `json:"request_id"`
	Key       SeriesKey     `json:"key"`
	Window    time.Duration `json:"window"`
	Fragment  Fragment      `json:"fragment"`
}
