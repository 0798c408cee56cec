// Package stitch merges overlapping, independently scaled timeframes into
// one series by calibrating each new timeframe against the peak of the
// overlap it shares with the series built so far.
package stitch

import (
	"fmt"
	"sort"
	"time"

	"github.com/penwyp/go-trend-sift/internal/core/model"
)

// Options controls how the stitcher reacts to unusable overlaps.
type Options struct {
	// TolerateNoOverlap appends fragments at scale 1 instead of failing when
	// they share no label with the series, or only zero-valued labels.
	TolerateNoOverlap bool
}

// Gap records a fragment that was appended without calibration.
type Gap struct {
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Reason model.ErrorKind `json:"reason"`
}

// Result is a stitched series. Degraded is set when at least one fragment was
// appended at scale 1, which mixes incomparable scales.
type Result struct {
	Series   model.Series `json:"series"`
	Degraded bool         `json:"degraded"`
	Gaps     []Gap        `json:"gaps,omitempty"`
}

// accumulator holds the series under construction in insertion order.
type accumulator struct {
	labels []time.Time
	values []float64
	index  map[int64]int
}

func newAccumulator(f model.Fragment) *accumulator {
	acc := &accumulator{
		labels: make([]time.Time, 0, f.Len()),
		values: make([]float64, 0, f.Len()),
		index:  make(map[int64]int, f.Len()),
	}
	for i, l := range f.Labels {
		acc.add(l, f.Values[i])
	}
	return acc
}

func (a *accumulator) add(label time.Time, value float64) {
	a.index[model.LabelKey(label)] = len(a.labels)
	a.labels = append(a.labels, label)
	a.values = append(a.values, value)
}

func (a *accumulator) value(label time.Time) (float64, bool) {
	i, ok := a.index[model.LabelKey(label)]
	if !ok {
		return 0, false
	}
	return a.values[i], true
}

func (a *accumulator) series() model.Series {
	s := make(model.Series, len(a.labels))
	for i := range a.labels {
		s[i] = model.Point{Time: a.labels[i], Value: a.values[i]}
	}
	s.Sort()
	return s
}

// Stitch merges fragments into one series normalized to model.Peak.
//
// Fragments are processed by ascending first label, ties broken by
// fragmentLess, so the input order does not matter. Labels shared with the
// series keep the value of the fragment that contributed them first. An
// empty fragment set, or a fragment whose labels and values disagree in
// length, is a caller bug and panics.
func Stitch(fragments []model.Fragment, opts Options) (*Result, error) {
	if len(fragments) == 0 {
		panic("stitch: no fragments")
	}
	for _, f := range fragments {
		f.MustValidate()
	}

	sorted := make([]model.Fragment, len(fragments))
	copy(sorted, fragments)
	sort.Slice(sorted, func(i, j int) bool {
		return fragmentLess(sorted[i], sorted[j])
	})

	result := &Result{}
	acc := newAccumulator(sorted[0])

	for _, f := range sorted[1:] {
		scale, err := calibrate(acc, f)
		if err != nil {
			if !opts.TolerateNoOverlap {
				return nil, err
			}
			scale = 1
			result.Degraded = true
			result.Gaps = append(result.Gaps, Gap{
				Start:  f.First(),
				End:    f.Last(),
				Reason: model.KindOf(err),
			})
		}
		// calibrate reports a zero maximum as ZeroOverlapMax, so this only
		// fires if that contract breaks.
		if scale == 0 {
			panic(fmt.Sprintf("stitch: zero scale for fragment starting %s", f.First()))
		}

		for i, l := range f.Labels {
			if _, seen := acc.value(l); seen {
				continue
			}
			acc.add(l, f.Values[i]*scale)
		}
	}

	series, err := model.Normalize(acc.series())
	if err != nil {
		return nil, err
	}
	result.Series = series
	return result, nil
}

// fragmentLess orders fragments by first label, then last label, length,
// labels and values, so fragments starting together still have one order.
func fragmentLess(a, b model.Fragment) bool {
	if !a.First().Equal(b.First()) {
		return a.First().Before(b.First())
	}
	if !a.Last().Equal(b.Last()) {
		return a.Last().Before(b.Last())
	}
	if a.Len() != b.Len() {
		return a.Len() < b.Len()
	}
	for i := range a.Labels {
		if !a.Labels[i].Equal(b.Labels[i]) {
			return a.Labels[i].Before(b.Labels[i])
		}
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return a.Values[i] < b.Values[i]
		}
	}
	return false
}

// calibrate returns the factor mapping f onto the accumulated scale.
func calibrate(acc *accumulator, f model.Fragment) (float64, error) {
	var (
		overlap  int
		seriesMx float64
		fragMx   float64
	)
	for i, l := range f.Labels {
		v, ok := acc.value(l)
		if !ok {
			continue
		}
		if overlap == 0 || v > seriesMx {
			seriesMx = v
		}
		if overlap == 0 || f.Values[i] > fragMx {
			fragMx = f.Values[i]
		}
		overlap++
	}

	if overlap == 0 {
		return 0, model.NewError(model.KindNoOverlap,
			"fragment %s..%s shares no label with the series", f.First().Format(time.RFC3339), f.Last().Format(time.RFC3339))
	}
	if fragMx == 0 || seriesMx == 0 {
		return 0, model.NewError(model.KindZeroOverlapMax,
			"fragment %s..%s has a zero peak on its %d overlapping labels", f.First().Format(time.RFC3339), f.Last().Format(time.RFC3339), overlap)
	}
	return seriesMx / fragMx, nil
}
