package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/penwyp/go-trend-sift/internal/core/stitch"
	"github.com/penwyp/go-trend-sift/internal/data/aggregator"
	"github.com/penwyp/go-trend-sift/internal/data/cache"
	"github.com/penwyp/go-trend-sift/internal/data/parser"
	"github.com/penwyp/go-trend-sift/internal/data/scanner"
	"github.com/penwyp/go-trend-sift/internal/presentation/formatter"
	"github.com/penwyp/go-trend-sift/internal/util"
)

// ErrNoFragmentFiles is returned when the data directory holds no fragment files.
var ErrNoFragmentFiles = errors.New("no fragment files found")

type Config struct {
	DataDir           string
	CacheDir          string
	OutputFormat      string
	TolerateNoOverlap bool
	Concurrency       int
	CompressionLevel  int
	Keyword           string // only reconcile series of this keyword
	Geo               string // only reconcile series of this geo
	Window            Window
	Output            io.Writer
}

type Analyzer struct {
	config     *Config
	cache      *cache.FileCache
	scanner    *scanner.FileScanner
	parser     *parser.Parser
	aggregator *aggregator.Aggregator
}

func New(config *Config) (*Analyzer, error) {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}

	fileCache, err := cache.NewFileCache(config.CacheDir, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", config.CacheDir, err)
	}

	return &Analyzer{
		config:     config,
		cache:      fileCache,
		scanner:    scanner.NewFileScanner(config.DataDir),
		parser:     parser.NewParser(config.Concurrency),
		aggregator: aggregator.NewAggregator(),
	}, nil
}

// Close releases the cache.
func (a *Analyzer) Close() {
	a.cache.Close()
}

// ResetCache drops every cached fragment file.
func (a *Analyzer) ResetCache() error {
	return a.cache.Clear()
}

// Run analyzes the data directory and writes the report.
func (a *Analyzer) Run(ctx context.Context) error {
	report, err := a.Analyze(ctx)
	if err != nil {
		return err
	}

	outputStart := time.Now()
	err = formatter.New(a.config.OutputFormat).Format(a.config.Output, report)
	util.LogDebugf("Output phase - duration: %v", time.Since(outputStart))
	return err
}

// Analyze loads every fragment file, restores and groups the fragments and
// reconciles each series. Series that cannot be reconciled are reported in
// the result with their error kind; only I/O and cancellation fail the run.
func (a *Analyzer) Analyze(ctx context.Context) (*formatter.Report, error) {
	startTime := time.Now()
	util.LogInfo("Starting trend reconciliation", util.F("dir", a.config.DataDir))

	// Phase 1: Preload cache into memory
	preloadStart := time.Now()
	if err := a.cache.Preload(); err != nil {
		util.LogWarnf("Cache preload failed: %v", err)
	}
	preloadDuration := time.Since(preloadStart)
	util.LogDebugf("Phase 1 - Cache preload duration: %v", preloadDuration)

	// Phase 2: Scan files
	scanStart := time.Now()
	files, err := a.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", a.config.DataDir, err)
	}
	scanDuration := time.Since(scanStart)
	util.LogDebugf("Phase 2 - File scan duration: %v, found %d files", scanDuration, len(files))

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFragmentFiles, a.config.DataDir)
	}

	// Phase 3: Load files from cache or parse and restore them
	loadStart := time.Now()
	loaded, err := a.loadFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	loadDuration := time.Since(loadStart)
	util.LogDebugf("Phase 3 - Load duration: %v, %d files", loadDuration, len(loaded))

	// Phase 4: Group by series
	groupStart := time.Now()
	groups := a.filterGroups(a.aggregator.GroupBySeries(loaded))
	groupDuration := time.Since(groupStart)
	util.LogDebugf("Phase 4 - Grouping duration: %v, %d series", groupDuration, len(groups))

	// Phase 5: Reconcile series concurrently
	reconcileStart := time.Now()
	results, err := a.reconcile(ctx, groups)
	if err != nil {
		return nil, err
	}
	reconcileDuration := time.Since(reconcileStart)
	util.LogDebugf("Phase 5 - Reconcile duration: %v", reconcileDuration)

	report := &formatter.Report{Files: len(loaded), Results: results}
	for _, d := range loaded {
		report.Skipped += d.Skipped
		report.Empty += d.Empty
	}

	counts := report.Counts()
	util.LogInfo("Reconciliation finished",
		util.F("series", len(results)),
		util.F("ok", counts[formatter.StatusOK]),
		util.F("degraded", counts[formatter.StatusDegraded]),
		util.F("failed", counts[formatter.StatusFailed]),
		util.F("rejected", report.Rejected()),
		util.F("duration", time.Since(startTime)))
	util.LogDebugf("Total duration: %v (preload:%v scan:%v load:%v group:%v reconcile:%v)",
		time.Since(startTime), preloadDuration, scanDuration, loadDuration, groupDuration, reconcileDuration)

	return report, nil
}

// loadFiles returns the restored content of every readable file. Cache hits
// skip parsing entirely; misses are parsed concurrently and cached.
func (a *Analyzer) loadFiles(ctx context.Context, files []string) ([]*aggregator.AggregatedData, error) {
	stats := NewCacheStats()
	loaded := make([]*aggregator.AggregatedData, 0, len(files))

	var filesToParse []string
	missReasons := make(map[string]cache.CacheMissReason)

	for _, file := range files {
		result := a.cache.Get(file)
		if result.Found {
			stats.IncrementTotal()
			stats.IncrementHit()
			loaded = append(loaded, result.Data)
			continue
		}
		filesToParse = append(filesToParse, file)
		missReasons[file] = result.MissReason
	}

	util.LogDebugf("Cache hit for %d files, need to parse %d files", len(loaded), len(filesToParse))

	if len(filesToParse) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		processed := int64(len(loaded))
		results := a.parser.ParseFiles(filesToParse)
	collect:
		for {
			var result parser.ParseResult
			select {
			case <-ctx.Done():
				// Workers still running report into a buffered channel and exit.
				util.LogInfo("Loading interrupted", util.F("processed", processed), util.F("files", len(files)))
				return nil, ctx.Err()
			case r, ok := <-results:
				if !ok {
					break collect
				}
				result = r
			}

			stats.IncrementTotal()
			processed++

			if result.Error != nil {
				stats.IncrementFailure()
				util.LogWarn("Failed to parse fragment file", util.F("file", result.File), util.F("error", result.Error))
				continue
			}
			stats.IncrementMiss(result.File, missReasons[result.File])

			data := a.aggregator.AggregateFile(result.File, result.Content.Fragments, result.Content.Skipped)
			if err := a.cache.Set(data); err != nil {
				util.LogWarn("Failed to save cache", util.F("file", result.File), util.F("error", err))
			}
			loaded = append(loaded, data)

			if processed%100 == 0 {
				stats.LogProgress(processed)
			}
		}
	}

	stats.LogFinalStats()
	return loaded, ctx.Err()
}

func (a *Analyzer) filterGroups(groups []*aggregator.SeriesGroup) []*aggregator.SeriesGroup {
	if a.config.Keyword == "" && a.config.Geo == "" {
		return groups
	}
	filtered := groups[:0]
	for _, g := range groups {
		if a.config.Keyword != "" && !strings.EqualFold(g.Key.Keyword, a.config.Keyword) {
			continue
		}
		if a.config.Geo != "" && !strings.EqualFold(g.Key.Geo, a.config.Geo) {
			continue
		}
		filtered = append(filtered, g)
	}
	return filtered
}

// reconcile runs reconcileGroup for every group with at most Concurrency
// groups in flight. Results keep the order of groups.
func (a *Analyzer) reconcile(ctx context.Context, groups []*aggregator.SeriesGroup) ([]formatter.SeriesResult, error) {
	results := make([]formatter.SeriesResult, len(groups))
	opts := stitch.Options{TolerateNoOverlap: a.config.TolerateNoOverlap}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)

	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = reconcileGroup(group, opts, a.config.Window)

			res := results[i]
			if res.Status == formatter.StatusFailed {
				util.LogWarn("Series could not be reconciled",
					util.F("series", res.Key.String()),
					util.F("kind", res.ErrorKind.String()),
					util.F("error", res.Error))
			} else {
				util.LogDebug("Series reconciled",
					util.F("series", res.Key.String()),
					util.F("status", res.Status),
					util.F("points", len(res.Series)),
					util.F("duration", time.Since(start)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
