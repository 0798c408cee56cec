package analyzer

import (
	"time"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/core/rescale"
	"github.com/penwyp/go-trend-sift/internal/core/stitch"
	"github.com/penwyp/go-trend-sift/internal/data/aggregator"
	"github.com/penwyp/go-trend-sift/internal/presentation/formatter"
)

// Window limits the reported part of a series. Zero bounds are open. Last,
// when set and From is not, keeps only that span before the series end.
type Window struct {
	From time.Time
	To   time.Time
	Last time.Duration
}

func (w Window) isOpen() bool {
	return w.From.IsZero() && w.To.IsZero() && w.Last <= 0
}

// apply cuts s to the window and renormalizes the remainder so that its own
// peak is 100 again.
func (w Window) apply(s model.Series) (model.Series, error) {
	if w.isOpen() || len(s) == 0 {
		return s, nil
	}
	from, to := w.From, w.To
	if from.IsZero() {
		from = s.Start()
	}
	if to.IsZero() {
		to = s.End()
	}
	if w.From.IsZero() && w.Last > 0 {
		from = to.Add(-w.Last)
	}
	return model.Normalize(s.Window(from, to))
}

// reconcileGroup builds the series for one key. Coarse fragments are
// stitched into the baseline and fine fragments are merged onto it. Without
// coarse fragments the fine ones are stitched on their own.
func reconcileGroup(g *aggregator.SeriesGroup, opts stitch.Options, window Window) formatter.SeriesResult {
	res := formatter.SeriesResult{
		Key:      g.Key,
		Coarse:   len(g.Coarse),
		Fine:     len(g.Fine),
		Rejected: g.Rejected,
	}

	coarse := aggregator.Fragments(g.Coarse)
	fine := aggregator.Fragments(g.Fine)

	var (
		stitched *stitch.Result
		series   model.Series
		err      error
	)
	switch {
	case len(coarse) == 0 && len(fine) == 0:
		res.Status = formatter.StatusNoData
		return res
	case len(coarse) == 0:
		stitched, err = stitch.Stitch(fine, opts)
		if err == nil {
			series = stitched.Series
		}
	default:
		stitched, err = stitch.Stitch(coarse, opts)
		if err == nil {
			series = stitched.Series
			if len(fine) > 0 {
				series, err = rescale.Merge(series, fine)
			}
		}
	}
	if err == nil {
		series, err = window.apply(series)
	}

	if err != nil {
		res.Status = formatter.StatusFailed
		res.ErrorKind = model.KindOf(err)
		res.Error = err.Error()
		return res
	}

	res.Series = series
	res.Status = formatter.StatusOK
	if stitched.Degraded {
		res.Status = formatter.StatusDegraded
		res.Gaps = stitched.Gaps
	}
	return res
}
