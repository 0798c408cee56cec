package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 2, cfg.CompressionLevel)
	assert.False(t, cfg.TolerateNoOverlap)
	assert.Contains(t, cfg.DataDir, ".go-trend-sift")
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
data_dir: /srv/trends
output: csv
concurrency: 8
tolerate_no_overlap: true
`)
	t.Setenv("SIFT_OUTPUT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/trends", cfg.DataDir)
	assert.Equal(t, "json", cfg.Output, "env overrides file")
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.TolerateNoOverlap)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, "output: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DataDir:          "/data",
			Output:           "table",
			Timezone:         "UTC",
			Concurrency:      1,
			CompressionLevel: 1,
			LogLevel:         "info",
			LogFormat:        "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad output", mutate: func(c *Config) { c.Output = "xml" }, wantErr: "invalid output format"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: "concurrency"},
		{name: "compression too high", mutate: func(c *Config) { c.CompressionLevel = 5 }, wantErr: "compression_level"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log_format"},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: "data_dir"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "invalid timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Set("output", "summary"))
	require.NoError(t, cfg.Set("concurrency", "2"))
	require.NoError(t, cfg.Set("tolerate_no_overlap", "yes"))
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "summary", loaded.Output)
	assert.Equal(t, 2, loaded.Concurrency)
	assert.True(t, loaded.TolerateNoOverlap)
}

func TestSetRejects(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Error(t, cfg.Set("concurrency", "many"))
	assert.Error(t, cfg.Set("tolerate_no_overlap", "maybe"))
	assert.Error(t, cfg.Set("nope", "1"))
	assert.Error(t, cfg.Set("compression_level", "9"))
}

func TestDefaultsIgnoresConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".go-trend-sift"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".go-trend-sift", "config.yaml"), []byte("output: json\n"), 0o644))
	t.Setenv("SIFT_CONCURRENCY", "7")

	cfg, err := Defaults()
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, 7, cfg.Concurrency)
}
