package analyzer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/presentation/formatter"
	"github.com/penwyp/go-trend-sift/internal/testing/fixtures"
)

var jan1 = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

func date(month time.Month, d int) time.Time {
	return time.Date(2019, month, d, 0, 0, 0, 0, time.UTC)
}

func cycle(mul float64) func(int) float64 {
	return func(i int) float64 { return float64(i%10+1) * mul }
}

// fixture writes three series:
//   - flu@US: two overlapping coarse windows plus one 4 day hourly window
//   - cold@US: two coarse windows that do not overlap
//   - hay@US: a single fragment on an unknown grid
func fixture(t *testing.T) string {
	dir := t.TempDir()
	g := fixtures.NewFragmentGenerator(dir)

	_, err := g.Write(
		g.Daily("flu", "US", jan1, date(3, 1), cycle(1)),
		g.Daily("flu", "US", date(2, 1), date(4, 1), cycle(2)),
		g.Hourly("flu", "US", date(2, 10), 4, func(int) float64 { return 50 }),
		g.Daily("cold", "US", jan1, date(1, 31), cycle(1)),
		g.Daily("cold", "US", date(3, 1), date(3, 31), cycle(1)),
		g.Raw("hay", "US", jan1, jan1.Add(5*time.Hour), 1, 2, 3),
	)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	return dir
}

func newTestAnalyzer(t *testing.T, dataDir string, mutate func(*Config)) *Analyzer {
	t.Helper()
	cfg := &Config{
		DataDir:          dataDir,
		CacheDir:         filepath.Join(t.TempDir(), "cache"),
		OutputFormat:     "json",
		Concurrency:      2,
		CompressionLevel: 1,
		Output:           &bytes.Buffer{},
	}
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func resultFor(t *testing.T, r *formatter.Report, key string) formatter.SeriesResult {
	t.Helper()
	for _, res := range r.Results {
		if res.Key.String() == key {
			return res
		}
	}
	t.Fatalf("no result for %s", key)
	return formatter.SeriesResult{}
}

func assertNormalized(t *testing.T, s model.Series) {
	t.Helper()
	require.NotEmpty(t, s)
	assert.InDelta(t, model.Peak, s.Max(), 1e-9)
	for i := 1; i < len(s); i++ {
		assert.True(t, s[i-1].Time.Before(s[i].Time), "series sorted and unique")
	}
}

func TestAnalyze(t *testing.T) {
	a := newTestAnalyzer(t, fixture(t), nil)

	report, err := a.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Files)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "cold@US", report.Results[0].Key.String(), "results sorted by key")

	flu := resultFor(t, report, "flu@US")
	assert.Equal(t, formatter.StatusOK, flu.Status)
	assert.Equal(t, 2, flu.Coarse)
	assert.Equal(t, 1, flu.Fine)
	assert.Len(t, flu.Series, 97, "merged output is the fine resolution series")
	assertNormalized(t, flu.Series)
	assert.Equal(t, date(2, 10), flu.Series.Start())

	cold := resultFor(t, report, "cold@US")
	assert.Equal(t, formatter.StatusFailed, cold.Status)
	assert.Equal(t, model.KindNoOverlap, cold.ErrorKind)
	assert.Empty(t, cold.Series)

	hay := resultFor(t, report, "hay@US")
	assert.Equal(t, formatter.StatusNoData, hay.Status)
	require.Len(t, hay.Rejected, 1)
	assert.Equal(t, 5*time.Hour, hay.Rejected[0].Window)
	assert.Equal(t, 1, report.Rejected())
}

func TestAnalyzeToleratesNoOverlap(t *testing.T) {
	a := newTestAnalyzer(t, fixture(t), func(c *Config) { c.TolerateNoOverlap = true })

	report, err := a.Analyze(context.Background())
	require.NoError(t, err)

	cold := resultFor(t, report, "cold@US")
	assert.Equal(t, formatter.StatusDegraded, cold.Status)
	require.Len(t, cold.Gaps, 1)
	assert.Equal(t, date(3, 1), cold.Gaps[0].Start)
	assert.Equal(t, model.KindNoOverlap, cold.Gaps[0].Reason)
	assert.Len(t, cold.Series, 31+31)
	assertNormalized(t, cold.Series)
}

func TestAnalyzeFilters(t *testing.T) {
	a := newTestAnalyzer(t, fixture(t), func(c *Config) {
		c.Keyword = "FLU"
		c.Geo = "us"
	})

	report, err := a.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "flu@US", report.Results[0].Key.String())
}

func TestAnalyzeWindow(t *testing.T) {
	a := newTestAnalyzer(t, fixture(t), func(c *Config) {
		c.Window = Window{From: date(2, 11), To: date(2, 12)}
	})

	report, err := a.Analyze(context.Background())
	require.NoError(t, err)

	flu := resultFor(t, report, "flu@US")
	require.Equal(t, formatter.StatusOK, flu.Status)
	assert.Len(t, flu.Series, 25, "hourly points from Feb 11 00:00 through Feb 12 00:00")
	assertNormalized(t, flu.Series)
}

func TestAnalyzeUsesCache(t *testing.T) {
	dataDir := fixture(t)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	mutate := func(c *Config) { c.CacheDir = cacheDir }

	first, err := newTestAnalyzer(t, dataDir, mutate).Analyze(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "one cache entry per fragment file")

	second, err := newTestAnalyzer(t, dataDir, mutate).Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Status, second.Results[i].Status)
		assert.Equal(t, len(first.Results[i].Series), len(second.Results[i].Series))
	}
}

func TestAnalyzeResetCache(t *testing.T) {
	a := newTestAnalyzer(t, fixture(t), nil)
	_, err := a.Analyze(context.Background())
	require.NoError(t, err)

	require.NoError(t, a.ResetCache())
	mem, files := a.cache.GetCacheStats()
	assert.Zero(t, mem)
	assert.Zero(t, files)
}

func TestAnalyzeNoFiles(t *testing.T) {
	a := newTestAnalyzer(t, t.TempDir(), nil)

	_, err := a.Analyze(context.Background())
	assert.True(t, errors.Is(err, ErrNoFragmentFiles))
}

func TestAnalyzeCanceled(t *testing.T) {
	a := newTestAnalyzer(t, fixture(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWritesOutput(t *testing.T) {
	var out bytes.Buffer
	a := newTestAnalyzer(t, fixture(t), func(c *Config) {
		c.OutputFormat = "csv"
		c.Output = &out
	})

	require.NoError(t, a.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "keyword,geo,time,value", lines[0])
	assert.Len(t, lines, 1+97, "only flu@US has points")
}

func TestParseSpan(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "", expected: 0},
		{input: "12h", expected: 12 * time.Hour},
		{input: "90d", expected: 90 * 24 * time.Hour},
		{input: "2w", expected: 14 * 24 * time.Hour},
		{input: "3m", expected: 90 * 24 * time.Hour},
		{input: "1y", expected: 365 * 24 * time.Hour},
		{input: "1y6m", expected: (365 + 180) * 24 * time.Hour},
		{input: "abc", wantErr: true},
		{input: "5x", wantErr: true},
		{input: "5d junk", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSpan(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	d, err := ParseDate("2019-02-10", tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 2, 10, 0, 0, 0, 0, tokyo), d)

	d, err = ParseDate("2019-02-10T06:00:00Z", tokyo)
	require.NoError(t, err)
	assert.True(t, d.Equal(date(2, 10).Add(6*time.Hour)))

	d, err = ParseDate("", tokyo)
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("10/02/2019", tokyo)
	assert.Error(t, err)
}

func TestAnalyzeReparsesChangedFile(t *testing.T) {
	dataDir := fixture(t)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	mutate := func(c *Config) { c.CacheDir = cacheDir }

	first, err := newTestAnalyzer(t, dataDir, mutate).Analyze(context.Background())
	require.NoError(t, err)
	assert.Zero(t, first.Skipped)

	g := fixtures.NewFragmentGenerator(dataDir)
	require.NoError(t, g.AppendGarbage(g.PathFor(model.SeriesKey{Keyword: "cold", Geo: "US"})))

	second, err := newTestAnalyzer(t, dataDir, mutate).Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
}

func TestLoadFilesStopsWhenCanceled(t *testing.T) {
	dataDir := fixture(t)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	a := newTestAnalyzer(t, dataDir, func(c *Config) { c.CacheDir = cacheDir })

	files, err := a.scanner.Scan()
	require.NoError(t, err)
	require.Len(t, files, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loaded, err := a.loadFiles(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, loaded)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing parsed or cached after cancel")
}
