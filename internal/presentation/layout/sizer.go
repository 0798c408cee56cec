package layout

import (
	"os"

	"golang.org/x/term"

	"github.com/penwyp/go-trend-sift/internal/util"
)

const (
	fallbackWidth  = 80
	minChartWidth  = 10
	maxChartWidth  = 120
	chartMarginCol = 4
)

// Sizer measures the terminal a report is written to.
type Sizer struct {
	fd int
}

// NewSizer measures standard output.
func NewSizer() *Sizer {
	return &Sizer{fd: int(os.Stdout.Fd())}
}

// NewSizerForFile measures the terminal behind f, if any.
func NewSizerForFile(f *os.File) *Sizer {
	return &Sizer{fd: int(f.Fd())}
}

// Width returns the terminal width, or 80 columns when the output is not a
// terminal or reports an implausibly narrow size.
func (s *Sizer) Width() int {
	w, _, err := term.GetSize(s.fd)
	if err != nil || w < 40 {
		return fallbackWidth
	}
	return w
}

// ChartWidth is the number of cells left for a sparkline after a label of
// the given display width.
func (s *Sizer) ChartWidth(label string) int {
	w := s.Width() - util.DisplayWidth(label) - chartMarginCol
	if w < minChartWidth {
		w = minChartWidth
	}
	if w > maxChartWidth {
		w = maxChartWidth
	}
	util.LogDebugf("Chart width %d", w)
	return w
}
