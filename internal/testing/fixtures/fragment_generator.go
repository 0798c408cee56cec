// Package fixtures writes fragment files for tests.
package fixtures

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-trend-sift/internal/core/model"
)

const day = 24 * time.Hour

// FragmentGenerator writes JSONL fragment files below baseDir, one file per
// series at <keyword>/<geo>.jsonl.
type FragmentGenerator struct {
	baseDir string
	nextID  int64
}

func NewFragmentGenerator(baseDir string) *FragmentGenerator {
	return &FragmentGenerator{baseDir: baseDir, nextID: 1}
}

// Daily builds a coarse fragment from start to end inclusive, one sample per
// day, with values produced by fn from the sample index.
func (g *FragmentGenerator) Daily(keyword, geo string, start, end time.Time, fn func(i int) float64) model.RawFragment {
	n := int(end.Sub(start)/day) + 1
	return g.fragment(keyword, geo, start, end, n, fn)
}

// Hourly builds a fine fragment on the 4d/1h or 7d/1h grid.
func (g *FragmentGenerator) Hourly(keyword, geo string, start time.Time, days int, fn func(i int) float64) model.RawFragment {
	end := start.Add(time.Duration(days) * day)
	return g.fragment(keyword, geo, start, end, days*24+1, fn)
}

// Raw builds a fragment with explicit values, e.g. one on no known grid.
func (g *FragmentGenerator) Raw(keyword, geo string, start, end time.Time, values ...float64) model.RawFragment {
	return g.fragment(keyword, geo, start, end, len(values), func(i int) float64 { return values[i] })
}

func (g *FragmentGenerator) fragment(keyword, geo string, start, end time.Time, n int, fn func(i int) float64) model.RawFragment {
	values := make([]float64, n)
	for i := range values {
		values[i] = fn(i)
	}
	id := g.nextID
	g.nextID++
	return model.RawFragment{RequestID: id, Keyword: keyword, Geo: geo, Start: start, End: end, Values: values}
}

// Write appends fragments to the file of their series and returns the paths
// written, in order of first use.
func (g *FragmentGenerator) Write(fragments ...model.RawFragment) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, f := range fragments {
		path := g.PathFor(f.Key())
		if err := g.WriteLines(path, f); err != nil {
			return nil, err
		}
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// PathFor returns the fragment file of a series.
func (g *FragmentGenerator) PathFor(key model.SeriesKey) string {
	return filepath.Join(g.baseDir, key.Keyword, key.Geo+".jsonl")
}

// WriteLines appends the encoded fragments to path, creating it as needed.
func (g *FragmentGenerator) WriteLines(path string, fragments ...model.RawFragment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, f := range fragments {
		line, err := sonic.Marshal(f)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// AppendGarbage appends a line that is not a fragment record.
func (g *FragmentGenerator) AppendGarbage(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString("not a fragment\n")
	return err
}

// GetBaseDir returns the base directory for generated files.
func (g *FragmentGenerator) GetBaseDir() string {
	return g.baseDir
}
