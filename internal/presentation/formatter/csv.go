package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/penwyp/go-trend-sift/internal/util"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes one row per point of every reconciled series. Failed series
// have no points and contribute no rows.
func (f *CSVFormatter) Format(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	tp := util.GetTimeProvider()

	if err := cw.Write([]string{"keyword", "geo", "time", "value"}); err != nil {
		return err
	}

	for _, res := range report.Results {
		for _, p := range res.Series {
			record := []string{
				res.Key.Keyword,
				res.Key.Geo,
				tp.Format(p.Time, time.RFC3339),
				strconv.FormatFloat(p.Value, 'f', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
