package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-trend-sift/internal/util"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{
			"Series", "Status", "Points", "From", "To",
			"Peak At", "Coarse/Fine", "Rejected", "Note",
		},
	}
}

// numeric columns are right aligned
var rightAligned = map[int]bool{2: true, 6: true, 7: true}

func (f *TableFormatter) Format(w io.Writer, report *Report) error {
	rows := make([][]string, 0, len(report.Results)+1)

	var totalPoints, totalCoarse, totalFine, totalRejected int
	for _, res := range report.Results {
		rows = append(rows, f.rowValues(res))
		totalPoints += len(res.Series)
		totalCoarse += res.Coarse
		totalFine += res.Fine
		totalRejected += len(res.Rejected)
	}

	total := []string{
		fmt.Sprintf("Total (%d)", len(report.Results)),
		"",
		util.FormatNumber(totalPoints),
		"", "", "",
		fmt.Sprintf("%d/%d", totalCoarse, totalFine),
		fmt.Sprintf("%d", totalRejected),
		"",
	}

	widths := f.calculateColumnWidths(append(rows, total))

	tw := &tableWriter{w: w}
	tw.border(widths, "top")
	tw.row(f.headers, widths)
	tw.border(widths, "middle")
	for _, r := range rows {
		tw.row(r, widths)
	}
	tw.border(widths, "middle")
	tw.row(total, widths)
	tw.border(widths, "bottom")

	return tw.err
}

func (f *TableFormatter) rowValues(res SeriesResult) []string {
	tp := util.GetTimeProvider()
	from, to, peak := "-", "-", "-"
	if len(res.Series) > 0 {
		from = tp.Format(res.Series.Start(), timeLayout)
		to = tp.Format(res.Series.End(), timeLayout)
		if p, ok := res.Series.PeakPoint(); ok {
			peak = tp.Format(p.Time, timeLayout)
		}
	}

	return []string{
		res.Key.String(),
		res.Status,
		util.FormatNumber(len(res.Series)),
		from,
		to,
		peak,
		fmt.Sprintf("%d/%d", res.Coarse, res.Fine),
		fmt.Sprintf("%d", len(res.Rejected)),
		note(res),
	}
}

func note(res SeriesResult) string {
	switch res.Status {
	case StatusFailed:
		return res.ErrorKind.String()
	case StatusDegraded:
		if len(res.Gaps) == 1 {
			return "1 uncalibrated fragment"
		}
		return fmt.Sprintf("%d uncalibrated fragments", len(res.Gaps))
	case StatusNoData:
		return "no usable fragments"
	default:
		return ""
	}
}

// calculateColumnWidths sizes each column to its widest cell in terminal cells
func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = util.DisplayWidth(header)
	}
	for _, r := range rows {
		for i, value := range r {
			if w := util.DisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// tableWriter keeps the first write error so rendering code stays linear.
type tableWriter struct {
	w   io.Writer
	err error
}

func (t *tableWriter) print(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, s)
}

func (t *tableWriter) border(widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
	t.print(b.String())
}

func (t *tableWriter) row(values []string, widths []int) {
	var b strings.Builder
	b.WriteString("│")
	for i, value := range values {
		b.WriteString(" ")
		b.WriteString(util.PadString(value, widths[i], !rightAligned[i]))
		b.WriteString(" │")
	}
	b.WriteString("\n")
	t.print(b.String())
}
