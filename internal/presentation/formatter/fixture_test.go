package formatter

import (
	"time"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/core/stitch"
	"github.com/penwyp/go-trend-sift/internal/data/aggregator"
)

var t0 = time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)

func sampleReport() *Report {
	day := 24 * time.Hour
	return &Report{
		Files:   2,
		Skipped: 1,
		Empty:   3,
		Results: []SeriesResult{
			{
				Key:    model.SeriesKey{Keyword: "flu", Geo: "US"},
				Status: StatusOK,
				Series: model.Series{
					{Time: t0, Value: 50},
					{Time: t0.Add(day), Value: 100},
					{Time: t0.Add(2 * day), Value: 25.5},
				},
				Coarse: 2,
				Fine:   4,
			},
			{
				Key:    model.SeriesKey{Keyword: "cold"},
				Status: StatusDegraded,
				Series: model.Series{
					{Time: t0, Value: 100},
					{Time: t0.Add(day), Value: 10},
				},
				Gaps:   []stitch.Gap{{Start: t0.Add(day), End: t0.Add(day), Reason: model.KindNoOverlap}},
				Coarse: 2,
			},
			{
				Key:       model.SeriesKey{Keyword: "hay fever", Geo: "DE"},
				Status:    StatusFailed,
				ErrorKind: model.KindZeroMean,
				Error:     "zero_mean: fragment 2019-06-01..2019-06-02",
				Fine:      1,
				Rejected: []aggregator.Rejection{
					{RequestID: 9, Key: model.SeriesKey{Keyword: "hay fever", Geo: "DE"}, Window: 5 * time.Hour, Count: 3},
				},
			},
		},
	}
}
