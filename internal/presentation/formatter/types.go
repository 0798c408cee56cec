package formatter

import (
	"io"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/core/stitch"
	"github.com/penwyp/go-trend-sift/internal/data/aggregator"
)

// Series status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
	StatusNoData   = "no_data"
)

// SeriesResult is the outcome of reconciling one series.
type SeriesResult struct {
	Key       model.SeriesKey        `json:"key"`
	Status    string                 `json:"status"`
	Series    model.Series           `json:"series"`
	Gaps      []stitch.Gap           `json:"gaps,omitempty"`
	ErrorKind model.ErrorKind        `json:"error_kind,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Coarse    int                    `json:"coarse_fragments"`
	Fine      int                    `json:"fine_fragments"`
	Rejected  []aggregator.Rejection `json:"rejected,omitempty"`
}

// Report is everything one analysis run produced.
type Report struct {
	Files   int            `json:"files"`
	Skipped int            `json:"skipped_lines"`
	Empty   int            `json:"empty_fragments"`
	Results []SeriesResult `json:"results"`
}

// Counts tallies results by status.
func (r *Report) Counts() map[string]int {
	counts := make(map[string]int, 4)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Rejected is the number of fragments dropped for an unknown sampling grid.
func (r *Report) Rejected() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Rejected)
	}
	return n
}

type Formatter interface {
	Format(w io.Writer, report *Report) error
}

// New returns the formatter for an output name, defaulting to the table.
func New(output string) Formatter {
	switch output {
	case model.OutputJSON:
		return NewJSONFormatter()
	case model.OutputCSV:
		return NewCSVFormatter()
	case model.OutputSummary:
		return NewSummaryFormatter()
	default:
		return NewTableFormatter()
	}
}

const timeLayout = "2006-01-02 15:04"
