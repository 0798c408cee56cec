package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-trend-sift/internal/analyzer"
	"github.com/penwyp/go-trend-sift/internal/config"
	"github.com/penwyp/go-trend-sift/internal/util"
	"github.com/penwyp/go-trend-sift/internal/watch"
)

var (
	// Logging related
	debug   bool
	logFile string

	// Configuration
	cfgFile string

	// Data paths
	dataDir  string
	cacheDir string

	// Output related
	outputFormat string
	timezone     string

	// Reconciliation
	tolerateGaps bool
	concurrency  int

	// Filtering
	keyword  string
	geo      string
	fromDate string
	toDate   string
	last     string

	reset     bool
	watchMode bool

	rootCmd = &cobra.Command{
		Use:   "go-trend-sift [flags]",
		Short: "Search trend fragment reconciliation tool",
		Long: `go-trend-sift reconciles interest-over-time fragments into one comparable series per keyword and geo.

Fragments are read from JSONL files below the data directory, one request per line.
Overlapping daily windows are stitched into a baseline and finer windows are rescaled onto it.

Examples:
  go-trend-sift                                   # Reconcile with settings from ~/.go-trend-sift/config.yaml
  go-trend-sift --dir ./fragments -o json         # Reconcile a directory and print JSON
  go-trend-sift --keyword flu --geo US -o csv     # One series as CSV
  go-trend-sift --last 90d -o summary             # Last 90 days of every series
  go-trend-sift --from 2019-01-01 --to 2019-06-30 # Date range
  go-trend-sift --tolerate-gaps                   # Append non-overlapping fragments unscaled
  go-trend-sift --watch                           # Re-run when fragment files change`,
		SilenceUsage: true,
		RunE:         runReconcile,
	}
)

const (
	defaultLogFile   = "~/.go-trend-sift/logs/app.log"
	watchDebounce    = 500 * time.Millisecond
	watchClearScreen = "\033[H\033[2J"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default ~/.go-trend-sift/config.yaml)")

	// Input data configuration
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", "",
		"Fragment directory path")
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "",
		"Cache directory path")

	// Filtering
	rootCmd.Flags().StringVarP(&keyword, "keyword", "k", "",
		"Only reconcile series of this keyword")
	rootCmd.Flags().StringVarP(&geo, "geo", "g", "",
		"Only reconcile series of this geo")
	rootCmd.Flags().StringVar(&fromDate, "from", "",
		"Report from this date (YYYY-MM-DD or RFC 3339)")
	rootCmd.Flags().StringVar(&toDate, "to", "",
		"Report up to this date (YYYY-MM-DD or RFC 3339)")
	rootCmd.Flags().StringVarP(&last, "last", "l", "",
		"Report only this span before the end of each series (e.g., 12h, 90d, 2w, 1y6m)")

	// Reconciliation
	rootCmd.Flags().BoolVar(&tolerateGaps, "tolerate-gaps", false,
		"Append fragments without overlap at scale 1 instead of failing the series")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0,
		"Number of files parsed and series reconciled in parallel")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "",
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&outputFormat, "format", "",
		"Alias for --output")
	rootCmd.Flags().StringVar(&timezone, "timezone", "",
		"Timezone for displayed times (e.g., UTC, Local, Europe/Berlin)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (default ~/.go-trend-sift/logs/app.log)")
	rootCmd.Flags().BoolVarP(&reset, "reset", "r", false,
		"Clear cache before reconciliation")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false,
		"Re-run whenever fragment files change")
}

// loadConfig reads the config file and environment, then applies every flag
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if flags.Changed("output") || flags.Changed("format") {
		cfg.Output = outputFormat
	}
	if flags.Changed("timezone") {
		cfg.Timezone = timezone
	}
	if flags.Changed("tolerate-gaps") {
		cfg.TolerateNoOverlap = tolerateGaps
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.CacheDir = expandPath(cfg.CacheDir)
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = expandPath(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupRuntime initializes logging and the display timezone.
func setupRuntime(cfg *config.Config) error {
	if err := ensureDir(filepath.Dir(cfg.LogFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(cfg.LogLevel, cfg.LogFile, util.LogFormat(cfg.LogFormat), debug); err != nil {
		return err
	}
	return util.InitializeTimeProvider(cfg.Timezone)
}

// buildWindow turns --from, --to and --last into an analyzer window.
func buildWindow(loc *time.Location) (analyzer.Window, error) {
	var (
		w   analyzer.Window
		err error
	)
	if w.From, err = analyzer.ParseDate(fromDate, loc); err != nil {
		return w, fmt.Errorf("--from: %w", err)
	}
	if w.To, err = analyzer.ParseDate(toDate, loc); err != nil {
		return w, fmt.Errorf("--to: %w", err)
	}
	if w.Last, err = analyzer.ParseSpan(last); err != nil {
		return w, fmt.Errorf("--last: %w", err)
	}
	if !w.From.IsZero() && w.Last > 0 {
		return w, fmt.Errorf("--from and --last cannot be combined")
	}
	if !w.From.IsZero() && !w.To.IsZero() && w.To.Before(w.From) {
		return w, fmt.Errorf("--to %s is before --from %s", toDate, fromDate)
	}
	return w, nil
}

func newAnalyzerConfig(cfg *config.Config, window analyzer.Window, out io.Writer) *analyzer.Config {
	return &analyzer.Config{
		DataDir:           cfg.DataDir,
		CacheDir:          cfg.CacheDir,
		OutputFormat:      cfg.Output,
		TolerateNoOverlap: cfg.TolerateNoOverlap,
		Concurrency:       cfg.Concurrency,
		CompressionLevel:  cfg.CompressionLevel,
		Keyword:           keyword,
		Geo:               geo,
		Window:            window,
		Output:            out,
	}
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupRuntime(cfg); err != nil {
		return err
	}

	window, err := buildWindow(util.GetTimeProvider().Location())
	if err != nil {
		return err
	}

	// Ensure cache directory exists
	if err := ensureDir(cfg.CacheDir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	a, err := analyzer.New(newAnalyzerConfig(cfg, window, cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	defer a.Close()

	// Clear cache if needed
	if reset {
		if err := a.ResetCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !watchMode {
		return a.Run(ctx)
	}
	return runWatch(ctx, a, cfg.DataDir, cmd.OutOrStdout())
}

// runWatch reruns the analysis after every burst of fragment file changes
// until ctx is canceled.
func runWatch(ctx context.Context, a *analyzer.Analyzer, dir string, out io.Writer) error {
	fw, err := watch.NewFileWatcher(dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer fw.Close()

	rerun := func(changed []string) {
		fmt.Fprint(out, watchClearScreen)
		fmt.Fprintf(out, "%s  %d file(s) changed\n\n",
			util.GetTimeProvider().Now().Format("2006-01-02 15:04:05"), len(changed))
		if err := a.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	util.LogInfo("Watching fragment files", util.F("dir", dir))

	watch.Debounce(ctx, fw.Events(), watchDebounce, rerun)
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
