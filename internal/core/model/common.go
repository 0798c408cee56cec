package model

import "time"

// Output formats
const (
	OutputTable   = "table"
	OutputJSON    = "json"
	OutputCSV     = "csv"
	OutputSummary = "summary"
)

// Resolution classes of a fragment
const (
	ResolutionCoarse = "coarse"
	ResolutionFine   = "fine"
)

// CoarseWindowThreshold separates daily-sampled windows from finer ones.
// Windows strictly longer than a week are delivered at one sample per day.
const CoarseWindowThreshold = 7 * 24 * time.Hour

// ResolutionOf classifies a request window.
func ResolutionOf(window time.Duration) string {
	if window > CoarseWindowThreshold {
		return ResolutionCoarse
	}
	return ResolutionFine
}

// FileEvent is emitted by the fragment directory watcher.
type FileEvent struct {
	Path      string
	Operation string
}
