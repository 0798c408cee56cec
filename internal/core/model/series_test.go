package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time {
	return epoch.AddDate(0, 0, i)
}

func seriesOf(values ...float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = Point{Time: day(i), Value: v}
	}
	return s
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Series
		expected []float64
	}{
		{
			name:     "already_normalized",
			input:    seriesOf(0, 50, 100),
			expected: []float64{0, 50, 100},
		},
		{
			name:     "scales_up",
			input:    seriesOf(1, 2, 4),
			expected: []float64{25, 50, 100},
		},
		{
			name:     "scales_down",
			input:    seriesOf(0, 50, 100, 50, 200, 100),
			expected: []float64{0, 25, 50, 25, 100, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Normalize(tt.input)
			require.NoError(t, err)
			require.Len(t, out, len(tt.expected))
			for i, want := range tt.expected {
				assert.InDelta(t, want, out[i].Value, 1e-9)
				assert.Equal(t, tt.input[i].Time, out[i].Time)
			}
			assert.InDelta(t, Peak, out.Max(), 1e-9)
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := seriesOf(1, 2)
	_, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, 2.0, in[1].Value)
}

func TestNormalizeZeroPeak(t *testing.T) {
	_, err := Normalize(seriesOf(0, 0, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZeroPeak))
	assert.True(t, IsUnresolvable(err))
}

func TestNormalizeEmpty(t *testing.T) {
	out, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSeriesWindowAndMean(t *testing.T) {
	s := seriesOf(10, 20, 30, 40, 50)

	w := s.Window(day(1), day(3))
	require.Len(t, w, 3)
	assert.Equal(t, 20.0, w[0].Value)
	assert.Equal(t, 40.0, w[2].Value)

	mean, ok := s.MeanBetween(day(1), day(3))
	assert.True(t, ok)
	assert.InDelta(t, 30.0, mean, 1e-9)

	// Bounds between samples
	mean, ok = s.MeanBetween(day(1).Add(time.Hour), day(2).Add(time.Hour))
	assert.True(t, ok)
	assert.InDelta(t, 30.0, mean, 1e-9)

	_, ok = s.MeanBetween(day(10), day(12))
	assert.False(t, ok)
}

func TestSeriesPeakPointAndBounds(t *testing.T) {
	s := seriesOf(3, 9, 9, 1)
	p, ok := s.PeakPoint()
	require.True(t, ok)
	assert.Equal(t, day(1), p.Time)
	assert.Equal(t, day(0), s.Start())
	assert.Equal(t, day(3), s.End())

	_, ok = Series{}.PeakPoint()
	assert.False(t, ok)
}

func TestSeriesSort(t *testing.T) {
	s := Series{{Time: day(2), Value: 3}, {Time: day(0), Value: 1}, {Time: day(1), Value: 2}}
	s.Sort()
	for i := range s {
		assert.Equal(t, day(i), s[i].Time)
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-9)
}

func TestLabelKeyIgnoresLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	assert.Equal(t, LabelKey(epoch), LabelKey(epoch.In(loc)))
}

func TestReconcileErrorIs(t *testing.T) {
	err := NewError(KindNoOverlap, "fragments %d and %d", 1, 2)
	assert.True(t, errors.Is(err, ErrNoOverlap))
	assert.False(t, errors.Is(err, ErrZeroMean))
	assert.Equal(t, "no_overlap: fragments 1 and 2", err.Error())

	wrapped := fmt.Errorf("stitch keyword: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNoOverlap))
	assert.Equal(t, KindNoOverlap, KindOf(wrapped))
}

func TestIsUnresolvable(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{ErrNoOverlap, true},
		{ErrZeroOverlapMax, true},
		{ErrZeroMean, true},
		{ErrNoBaseline, true},
		{ErrNoBaselineCoverage, true},
		{ErrZeroPeak, true},
		{ErrUnrecognizedSamplingGrid, false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUnresolvable(tt.err))
		})
	}
}

func TestFragmentContract(t *testing.T) {
	assert.Panics(t, func() { NewFragment(nil, nil) })
	assert.Panics(t, func() { NewFragment([]time.Time{day(0)}, []float64{1, 2}) })

	f := NewFragment([]time.Time{day(0), day(1)}, []float64{1, 2})
	assert.Equal(t, day(0), f.First())
	assert.Equal(t, day(1), f.Last())
	assert.Equal(t, 2, f.Len())
}

func TestResolutionOf(t *testing.T) {
	assert.Equal(t, ResolutionFine, ResolutionOf(4*time.Hour))
	assert.Equal(t, ResolutionFine, ResolutionOf(7*24*time.Hour))
	assert.Equal(t, ResolutionCoarse, ResolutionOf(90*24*time.Hour))
}

func TestSeriesKeyString(t *testing.T) {
	assert.Equal(t, "flu@US-CA", SeriesKey{Keyword: "flu", Geo: "US-CA"}.String())
	assert.Equal(t, "flu@world", SeriesKey{Keyword: "flu"}.String())
}

func TestErrorKindMarshalText(t *testing.T) {
	text, err := KindNoOverlap.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "no_overlap", string(text))
}
