package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/presentation/layout"
	"github.com/penwyp/go-trend-sift/internal/util"
)

// SummaryFormatter prints run statistics and a sparkline per series.
type SummaryFormatter struct {
	sizer *layout.Sizer
}

// NewSummaryFormatter sizes charts for standard output.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{sizer: layout.NewSizer()}
}

// NewSummaryFormatterWithSizer sizes charts with s.
func NewSummaryFormatterWithSizer(s *layout.Sizer) *SummaryFormatter {
	return &SummaryFormatter{sizer: s}
}

func (f *SummaryFormatter) Format(w io.Writer, report *Report) error {
	var b strings.Builder
	tp := util.GetTimeProvider()
	rule := strings.Repeat("=", 60)

	b.WriteString(rule + "\n")
	b.WriteString("Trend Reconciliation Summary\n")
	b.WriteString(rule + "\n\n")

	counts := report.Counts()
	b.WriteString("Input:\n")
	fmt.Fprintf(&b, "  Files: %s\n", util.FormatNumber(report.Files))
	fmt.Fprintf(&b, "  Skipped lines: %s\n", util.FormatNumber(report.Skipped))
	fmt.Fprintf(&b, "  Empty fragments: %s\n", util.FormatNumber(report.Empty))
	fmt.Fprintf(&b, "  Unrecognized grids: %s\n", util.FormatNumber(report.Rejected()))
	b.WriteString("\n")

	b.WriteString("Series:\n")
	fmt.Fprintf(&b, "  Reconciled: %d\n", counts[StatusOK])
	fmt.Fprintf(&b, "  Degraded: %d\n", counts[StatusDegraded])
	fmt.Fprintf(&b, "  Failed: %d\n", counts[StatusFailed])
	fmt.Fprintf(&b, "  No data: %d\n", counts[StatusNoData])
	b.WriteString("\n")

	if len(report.Results) == 0 {
		b.WriteString("No data to summarize\n\n")
		b.WriteString(rule + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(util.FormatSectionSeparator() + "\n")
	for _, res := range report.Results {
		label := res.Key.String()
		fmt.Fprintf(&b, "\n%s [%s]\n", label, res.Status)

		if len(res.Series) == 0 {
			if res.Status == StatusFailed {
				fmt.Fprintf(&b, "  %s\n", res.Error)
			} else {
				b.WriteString("  no points\n")
			}
			continue
		}

		fmt.Fprintf(&b, "  Range: %s to %s (%s points)\n",
			tp.Format(res.Series.Start(), timeLayout),
			tp.Format(res.Series.End(), timeLayout),
			util.FormatNumber(len(res.Series)))
		if p, ok := res.Series.PeakPoint(); ok {
			fmt.Fprintf(&b, "  Peak: %s at %s\n", util.FormatValue(p.Value), tp.Format(p.Time, timeLayout))
		}
		fmt.Fprintf(&b, "  Mean: %s\n", util.FormatValue(model.Mean(values(res.Series))))
		for _, g := range res.Gaps {
			fmt.Fprintf(&b, "  Gap: %s to %s (%s)\n",
				tp.Format(g.Start, timeLayout), tp.Format(g.End, timeLayout), g.Reason)
		}

		width := f.sizer.ChartWidth("  ")
		fmt.Fprintf(&b, "  %s\n", util.Sparkline(values(res.Series), width, model.Peak))
	}
	b.WriteString("\n" + rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func values(s model.Series) []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}
