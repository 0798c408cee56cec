package stitch

import (
	"sort"
	"time"

	"github.com/penwyp/go-trend-sift/internal/core/model"
)

// OverlapReport describes how two fragments line up on their shared labels.
type OverlapReport struct {
	Labels   []time.Time `json:"labels"`
	Left     []float64   `json:"left"`
	Right    []float64   `json:"right"`
	Scaled   []float64   `json:"scaled"`
	LeftMax  float64     `json:"left_max"`
	RightMax float64     `json:"right_max"`
	Scale    float64     `json:"scale"`
	Usable   bool        `json:"usable"`
}

// InspectOverlap computes the calibration Stitch would apply to b when b
// follows a. Scaled holds b's overlap values on a's scale when Usable.
func InspectOverlap(a, b model.Fragment) OverlapReport {
	a.MustValidate()
	b.MustValidate()

	left := make(map[int64]float64, a.Len())
	for i, l := range a.Labels {
		left[model.LabelKey(l)] = a.Values[i]
	}

	type pair struct {
		label time.Time
		l, r  float64
	}
	var shared []pair
	for i, l := range b.Labels {
		if v, ok := left[model.LabelKey(l)]; ok {
			shared = append(shared, pair{label: l, l: v, r: b.Values[i]})
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		return shared[i].label.Before(shared[j].label)
	})

	report := OverlapReport{
		Labels: make([]time.Time, len(shared)),
		Left:   make([]float64, len(shared)),
		Right:  make([]float64, len(shared)),
	}
	for i, p := range shared {
		report.Labels[i] = p.label
		report.Left[i] = p.l
		report.Right[i] = p.r
		if i == 0 || p.l > report.LeftMax {
			report.LeftMax = p.l
		}
		if i == 0 || p.r > report.RightMax {
			report.RightMax = p.r
		}
	}

	if len(shared) == 0 || report.LeftMax == 0 || report.RightMax == 0 {
		return report
	}

	report.Usable = true
	report.Scale = report.LeftMax / report.RightMax
	report.Scaled = make([]float64, len(shared))
	for i, v := range report.Right {
		report.Scaled[i] = v * report.Scale
	}
	return report
}
