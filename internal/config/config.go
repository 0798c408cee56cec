package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/util"
)

const (
	appDir    = ".go-trend-sift"
	envPrefix = "SIFT"
)

// Config holds settings shared by every command.
type Config struct {
	DataDir           string `mapstructure:"data_dir" yaml:"data_dir"`
	CacheDir          string `mapstructure:"cache_dir" yaml:"cache_dir"`
	Output            string `mapstructure:"output" yaml:"output"`
	Timezone          string `mapstructure:"timezone" yaml:"timezone"`
	TolerateNoOverlap bool   `mapstructure:"tolerate_no_overlap" yaml:"tolerate_no_overlap"`
	Concurrency       int    `mapstructure:"concurrency" yaml:"concurrency"`
	CompressionLevel  int    `mapstructure:"compression_level" yaml:"compression_level"`
	LogLevel          string `mapstructure:"log_level" yaml:"log_level"`
	LogFile           string `mapstructure:"log_file" yaml:"log_file"`
	LogFormat         string `mapstructure:"log_format" yaml:"log_format"`
}

// DefaultPath is ~/.go-trend-sift/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, appDir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("data_dir", filepath.Join(home, appDir, "fragments"))
	v.SetDefault("cache_dir", filepath.Join(home, appDir, "cache"))
	v.SetDefault("output", model.OutputTable)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("tolerate_no_overlap", false)
	v.SetDefault("concurrency", 4)
	v.SetDefault("compression_level", 2)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_format", string(util.FormatText))
}

// Load reads configuration from defaults, the config file and SIFT_*
// environment variables. Precedence: env > config file > defaults.
// A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}

	v := newViper(home)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(filepath.Join(home, appDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Defaults returns the built-in settings with SIFT_* environment overrides
// applied, ignoring any config file.
func Defaults() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}

	v := newViper(home)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func newViper(home string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v, home)
	return v
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Output {
	case model.OutputTable, model.OutputJSON, model.OutputCSV, model.OutputSummary:
	default:
		return fmt.Errorf("invalid output format: %s (use table, json, csv or summary)", c.Output)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.CompressionLevel < 1 || c.CompressionLevel > 4 {
		return fmt.Errorf("compression_level must be between 1 and 4, got %d", c.CompressionLevel)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	switch util.LogFormat(c.LogFormat) {
	case util.FormatText, util.FormatJSON:
	default:
		return fmt.Errorf("invalid log_format: %s (use text or json)", c.LogFormat)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if err := (&util.TimeProvider{}).SetTimezone(c.Timezone); err != nil {
		return err
	}
	return nil
}

// Save writes c as YAML to cfgFile, or to DefaultPath when cfgFile is empty.
func Save(c *Config, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set assigns one key from its string form, as used by "config set".
func (c *Config) Set(key, val string) error {
	switch key {
	case "data_dir":
		c.DataDir = val
	case "cache_dir":
		c.CacheDir = val
	case "output":
		c.Output = val
	case "timezone":
		c.Timezone = val
	case "log_level":
		c.LogLevel = val
	case "log_file":
		c.LogFile = val
	case "log_format":
		c.LogFormat = val
	case "tolerate_no_overlap":
		switch strings.ToLower(val) {
		case "true", "yes", "1":
			c.TolerateNoOverlap = true
		case "false", "no", "0":
			c.TolerateNoOverlap = false
		default:
			return fmt.Errorf("invalid bool for tolerate_no_overlap: %s", val)
		}
	case "concurrency":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for concurrency: %s", val)
		}
		c.Concurrency = i
	case "compression_level":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for compression_level: %s", val)
		}
		c.CompressionLevel = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return c.Validate()
}
