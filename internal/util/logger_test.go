package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn)
	logger.AddOutput(NewConsoleOutput(&buf, FormatText))

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown", F("series", "flu@US-CA"))
	logger.Errorf("failed %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown series=flu@US-CA")
	assert.Contains(t, out, "[ERROR] failed 3")
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelDebug).With(F("component", "analyzer"))
	logger.AddOutput(NewConsoleOutput(&buf, FormatJSON))

	logger.Info("stitched", F("points", 90))

	var entry LogEntry
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "stitched", entry.Message)
	assert.Equal(t, "analyzer", entry.Fields["component"])
	assert.EqualValues(t, 90, entry.Fields["points"])
}

func TestLoggerTextFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.AddOutput(NewConsoleOutput(&buf, FormatText))

	logger.Info("msg", F("b", 2), F("a", 1))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(buf.String()), "msg a=1 b=2"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelError, ParseLogLevel("error"))
	assert.Equal(t, LevelInfo, ParseLogLevel("bogus"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, InitLogger("info", path, FormatText, false))
	defer SetLogger(nil)

	LogInfo("hello", F("k", "v"))
	LogDebug("not written")
	require.NoError(t, GetLogger().Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] hello k=v")
	assert.NotContains(t, string(data), "not written")
}

func TestGlobalHelpersWithoutLogger(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		LogInfo("noop")
		LogWarnf("noop %d", 1)
	})
}
