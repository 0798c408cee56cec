package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-trend-sift/internal/core/stitch"
	"github.com/penwyp/go-trend-sift/internal/util"
)

func TestTableFormatter(t *testing.T) {
	require.NoError(t, util.InitializeTimeProvider("UTC"))

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, sampleReport()))
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// top, header, sep, 3 rows, sep, total, bottom
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.True(t, strings.HasPrefix(lines[8], "└"))

	width := util.DisplayWidth(lines[0])
	for i, line := range lines {
		assert.Equal(t, width, util.DisplayWidth(line), "line %d misaligned", i)
	}

	assert.Contains(t, lines[3], "flu@US")
	assert.Contains(t, lines[3], "2019-06-02 00:00", "peak time")
	assert.Contains(t, lines[4], "cold@world")
	assert.Contains(t, lines[4], "1 uncalibrated fragment")
	assert.Contains(t, lines[5], "zero_mean")
	assert.Contains(t, lines[7], "Total (3)")
	assert.Contains(t, lines[7], "4/5")
}

func TestTableFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, &Report{}))
	assert.Contains(t, buf.String(), "Total (0)")
}

func TestNote(t *testing.T) {
	assert.Equal(t, "", note(SeriesResult{Status: StatusOK}))
	assert.Equal(t, "no usable fragments", note(SeriesResult{Status: StatusNoData}))
	assert.Equal(t, "2 uncalibrated fragments", note(SeriesResult{Status: StatusDegraded, Gaps: make([]stitch.Gap, 2)}))
}
