package aggregator

import (
	"sort"
	"time"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/core/restore"
	"github.com/penwyp/go-trend-sift/internal/util"
)

// Rejection records a raw fragment whose window and sample count match no
// sampling grid. It is reported, never approximated.
type Rejection struct {
	RequestID int64           `json:"request_id"`
	Key       model.SeriesKey `json:"key"`
	Window    time.Duration   `json:"window"`
	Count     int             `json:"count"`
}

// AggregatedData is the restored content of one fragment file plus the
// identity of the file version it was built from.
type AggregatedData struct {
	FilePath           string                  `json:"file_path"`
	Inode              uint64                  `json:"inode"`
	FileSize           int64                   `json:"file_size"`
	LastModified       int64                   `json:"last_modified"`
	ContentFingerprint string                  `json:"content_fingerprint,omitempty"`
	Fragments          []model.LabeledFragment `json:"fragments"`
	Rejected           []Rejection             `json:"rejected,omitempty"`
	Empty              int                     `json:"empty"`   // fragments without samples
	Skipped            int                     `json:"skipped"` // undecodable lines
}

// SeriesGroup holds every usable fragment of one series.
type SeriesGroup struct {
	Key      model.SeriesKey
	Coarse   []model.LabeledFragment
	Fine     []model.LabeledFragment
	Rejected []Rejection
}

// Fragments returns the bare fragments of lfs.
func Fragments(lfs []model.LabeledFragment) []model.Fragment {
	out := make([]model.Fragment, len(lfs))
	for i, lf := range lfs {
		out[i] = lf.Fragment
	}
	return out
}

// Aggregator turns parsed fragment files into per-series groups.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AggregateFile restores the labels of every raw fragment read from path.
func (a *Aggregator) AggregateFile(path string, raws []model.RawFragment, skipped int) *AggregatedData {
	data := &AggregatedData{
		FilePath:  path,
		Fragments: make([]model.LabeledFragment, 0, len(raws)),
		Skipped:   skipped,
	}

	for _, raw := range raws {
		lf, ok, err := restore.RestoreFragment(raw)
		switch {
		case err != nil:
			util.LogDebug("Unrecognized sampling grid",
				util.F("file", path),
				util.F("request_id", raw.RequestID),
				util.F("window", util.FormatWindow(raw.Window())),
				util.F("count", len(raw.Values)))
			data.Rejected = append(data.Rejected, Rejection{
				RequestID: raw.RequestID,
				Key:       raw.Key(),
				Window:    raw.Window(),
				Count:     len(raw.Values),
			})
		case !ok:
			data.Empty++
		default:
			data.Fragments = append(data.Fragments, lf)
		}
	}

	return data
}

// GroupBySeries merges file records into one group per series key, sorted
// by key. Within a group fragments are ordered by first label, then request
// id, so results do not depend on file order.
func (a *Aggregator) GroupBySeries(files []*AggregatedData) []*SeriesGroup {
	groups := make(map[model.SeriesKey]*SeriesGroup)
	get := func(k model.SeriesKey) *SeriesGroup {
		g, ok := groups[k]
		if !ok {
			g = &SeriesGroup{Key: k}
			groups[k] = g
		}
		return g
	}

	for _, f := range files {
		if f == nil {
			continue
		}
		for _, lf := range f.Fragments {
			g := get(lf.Key)
			if model.ResolutionOf(lf.Window) == model.ResolutionCoarse {
				g.Coarse = append(g.Coarse, lf)
			} else {
				g.Fine = append(g.Fine, lf)
			}
		}
		for _, r := range f.Rejected {
			g := get(r.Key)
			g.Rejected = append(g.Rejected, r)
		}
	}

	result := make([]*SeriesGroup, 0, len(groups))
	for _, g := range groups {
		sortFragments(g.Coarse)
		sortFragments(g.Fine)
		sort.Slice(g.Rejected, func(i, j int) bool {
			return g.Rejected[i].RequestID < g.Rejected[j].RequestID
		})
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.String() < result[j].Key.String()
	})
	return result
}

func sortFragments(lfs []model.LabeledFragment) {
	sort.SliceStable(lfs, func(i, j int) bool {
		fi, fj := lfs[i].Fragment.First(), lfs[j].Fragment.First()
		if !fi.Equal(fj) {
			return fi.Before(fj)
		}
		return lfs[i].RequestID < lfs[j].RequestID
	})
}
