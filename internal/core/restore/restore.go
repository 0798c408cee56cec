// Package restore reconstructs the timestamps of trend samples from the
// request window and the number of samples returned.
package restore

import (
	"time"

	"github.com/penwyp/go-trend-sift/internal/core/model"
)

// Restore returns the labels of values for a window [start, end]. An empty
// value slice yields no labels. A window/count pair that matches no known
// grid fails with model.ErrUnrecognizedSamplingGrid.
func Restore(start, end time.Time, values []float64) ([]time.Time, error) {
	if len(values) == 0 {
		return []time.Time{}, nil
	}

	window := end.Sub(start)
	grid, ok := Lookup(window, len(values))
	if !ok {
		return nil, model.NewError(model.KindUnrecognizedSamplingGrid,
			"window %s with %d samples", window, len(values))
	}

	// Only daily grids can disagree: the day count is implied by the window.
	if n := grid.Size(start, end); n != len(values) {
		return nil, model.NewError(model.KindUnrecognizedSamplingGrid,
			"window %s on grid %s yields %d labels for %d samples",
			window, grid.Name, n, len(values))
	}
	return grid.Labels(start, end), nil
}

// RestoreFragment labels a raw fragment and keeps its request metadata.
// Raw fragments without samples fail with ok == false and a nil error.
func RestoreFragment(raw model.RawFragment) (lf model.LabeledFragment, ok bool, err error) {
	labels, err := Restore(raw.Start, raw.End, raw.Values)
	if err != nil {
		return model.LabeledFragment{}, false, err
	}
	if len(labels) == 0 {
		return model.LabeledFragment{}, false, nil
	}

	values := make([]float64, len(raw.Values))
	copy(values, raw.Values)

	return model.LabeledFragment{
		RequestID: raw.RequestID,
		Key:       raw.Key(),
		Window:    raw.Window(),
		Fragment:  model.NewFragment(labels, values),
	}, true, nil
}
