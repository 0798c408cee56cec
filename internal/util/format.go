package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// FormatNumber abbreviates counts: 950, 1.2K, 3.4M.
func FormatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatWindow renders a request window the way the trends source names
// them: whole days as "7d", whole hours as "8h", otherwise a Go duration.
func FormatWindow(d time.Duration) string {
	switch {
	case d <= 0:
		return "0"
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return d.String()
	}
}

// FormatValue renders a normalized series value.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// DisplayWidth is the number of terminal cells s occupies.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadString pads s with spaces to width cells.
func PadString(s string, width int, leftAlign bool) string {
	w := DisplayWidth(s)
	if w >= width {
		return s
	}
	padding := strings.Repeat(" ", width-w)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values in at most width cells. Values are bucketed by
// averaging when there are more values than cells; max is the value mapped
// to the tallest tick.
func Sparkline(values []float64, width int, max float64) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		lo := i * len(values) / width
		hi := (i + 1) * len(values) / width
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		avg := sum / float64(hi-lo)

		idx := 0
		if max > 0 {
			idx = int(avg / max * float64(len(sparkTicks)-1))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkTicks) {
			idx = len(sparkTicks) - 1
		}
		b.WriteRune(sparkTicks[idx])
	}
	return b.String()
}

// FormatSectionSeparator returns a horizontal rule for console reports.
func FormatSectionSeparator() string {
	return strings.Repeat("─", 60)
}
