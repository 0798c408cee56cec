package restore

import "time"

// Grid describes one sampling grid used by the trends source: a window of a
// given length delivered as Count samples, the first at Offset and the rest
// Step apart. Daily grids cover every day from window start to window end
// inclusive and match any sample count.
type Grid struct {
	Name   string
	Window time.Duration
	Count  int
	Step   time.Duration
	Offset time.Duration
	Daily  bool
}

const day = 24 * time.Hour

// Grids is checked in order; the first matching entry wins.
var Grids = []Grid{
	{Name: "4h/1m", Window: 4 * time.Hour, Count: 241, Step: time.Minute},
	{Name: "4d/1h", Window: 4 * day, Count: 97, Step: time.Hour},
	{Name: "7d/1h", Window: 7 * day, Count: 169, Step: time.Hour},
	{Name: "8h/8m+4", Window: 8 * time.Hour, Count: 60, Step: 8 * time.Minute, Offset: 4 * time.Minute},
	{Name: "8h/8m", Window: 8 * time.Hour, Count: 61, Step: 8 * time.Minute},
	{Name: "12h/8m+4", Window: 12 * time.Hour, Count: 90, Step: 8 * time.Minute, Offset: 4 * time.Minute},
	{Name: "12h/8m", Window: 12 * time.Hour, Count: 91, Step: 8 * time.Minute},
	{Name: ">7d/1d", Window: 7 * day, Step: day, Daily: true},
}

// Matches reports whether a window of the given length with count samples
// was produced on this grid.
func (g Grid) Matches(window time.Duration, count int) bool {
	if g.Daily {
		return window > g.Window
	}
	return window == g.Window && count == g.Count
}

// Size is the number of labels Labels would generate, without building them.
func (g Grid) Size(start, end time.Time) int {
	if g.Daily {
		if end.Before(start) {
			return 0
		}
		return int(end.Sub(start)/g.Step) + 1
	}
	return g.Count
}

// Labels generates the timestamps of the grid for a window starting at
// start and ending at end.
func (g Grid) Labels(start, end time.Time) []time.Time {
	if g.Daily {
		labels := make([]time.Time, 0, g.Size(start, end))
		for t := start; !t.After(end); t = t.Add(g.Step) {
			labels = append(labels, t)
		}
		return labels
	}

	labels := make([]time.Time, g.Count)
	for i := range labels {
		labels[i] = start.Add(g.Offset + time.Duration(i)*g.Step)
	}
	return labels
}

// Lookup returns the first grid matching the window and sample count.
func Lookup(window time.Duration, count int) (Grid, bool) {
	for _, g := range Grids {
		if g.Matches(window, count) {
			return g, true
		}
	}
	return Grid{}, false
}
