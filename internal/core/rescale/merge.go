// Package rescale merges fine-resolution fragments onto a coarse baseline
// series by matching each fragment's mean to the baseline mean over the
// fragment's span.
package rescale

import (
	"time"

	"github.com/penwyp/go-trend-sift/internal/core/model"
)

// Calibration is the factor applied to one fine fragment.
type Calibration struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	FragmentMean float64   `json:"fragment_mean"`
	BaselineMean float64   `json:"baseline_mean"`
	Scale        float64   `json:"scale"`
}

// Merge rescales every fragment in fine onto baseline and returns the merged
// series normalized to model.Peak. baseline must be sorted by time, as
// returned by stitch.Stitch.
//
// A missing baseline fails with model.ErrNoBaseline, a fragment averaging
// zero fails the whole merge with model.ErrZeroMean. When fragments collide
// on a timestamp the one processed last wins.
func Merge(baseline model.Series, fine []model.Fragment) (model.Series, error) {
	merged, _, err := MergeWithCalibrations(baseline, fine)
	return merged, err
}

// MergeWithCalibrations is Merge that also reports the per-fragment factors.
func MergeWithCalibrations(baseline model.Series, fine []model.Fragment) (model.Series, []Calibration, error) {
	if len(baseline) == 0 {
		return nil, nil, model.ErrNoBaseline
	}

	values := make(map[int64]model.Point)
	calibrations := make([]Calibration, 0, len(fine))

	for _, f := range fine {
		f.MustValidate()

		c, err := calibrate(baseline, f)
		if err != nil {
			return nil, nil, err
		}
		calibrations = append(calibrations, c)

		for i, l := range f.Labels {
			values[model.LabelKey(l)] = model.Point{Time: l, Value: f.Values[i] * c.Scale}
		}
	}

	series := make(model.Series, 0, len(values))
	for _, p := range values {
		series = append(series, p)
	}
	series.Sort()

	normalized, err := model.Normalize(series)
	if err != nil {
		return nil, nil, err
	}
	return normalized, calibrations, nil
}

func calibrate(baseline model.Series, f model.Fragment) (Calibration, error) {
	c := Calibration{
		Start:        f.First(),
		End:          f.Last(),
		FragmentMean: model.Mean(f.Values),
	}

	baselineMean, ok := baseline.MeanBetween(c.Start, c.End)
	if c.FragmentMean == 0 {
		return c, model.NewError(model.KindZeroMean, "fragment %s..%s averages zero",
			c.Start.Format(time.RFC3339), c.End.Format(time.RFC3339))
	}
	if !ok {
		return c, model.NewError(model.KindNoBaselineCoverage, "baseline has no sample in %s..%s",
			c.Start.Format(time.RFC3339), c.End.Format(time.RFC3339))
	}

	c.BaselineMean = baselineMean
	c.Scale = baselineMean / c.FragmentMean
	return c, nil
}
