package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMetricCard(t *testing.T) {
	result := stripANSI(renderMetricCard("Active Users", "1,204", []float64{1, 2, 3}, 30, colorGreen))

	assert.Contains(t, result, "Active Users")
	assert.Contains(t, result, "1,204")
	assert.Contains(t, result, "█")
	assert.Contains(t, result, "╭")
}

func TestRenderMetricCard_MinWidthEnforced(t *testing.T) {
	result := renderMetricCard("Events", "3", nil, 2, colorPurple)
	require.NotEmpty(t, result)
	assert.Contains(t, stripANSI(result), "3")
}

func TestRenderMetricCard_LongTitleTruncated(t *testing.T) {
	result := stripANSI(renderMetricCard("Screen Page Views Per Session", "9", nil, 16, colorCyan))
	assert.Contains(t, result, "...")
	assert.NotContains(t, result, "Session")
}

func TestRenderMetricsRow_NilResponse(t *testing.T) {
	app := newTestApp()
	app.width = 120
	assert.Equal(t, "", renderMetricsRow(app))
}

func TestRenderMetricsRow_WithHistory(t *testing.T) {
	app := newTestApp()
	app.width = 120
	for i := 0; i < 4; i++ {
		app.applySnapshot(makeFixtureResponse(fixtureTime.Add(time.Duration(i)*10*time.Second), float64(10+i)))
	}

	stripped := stripANSI(renderMetricsRow(app))
	assert.Contains(t, stripped, "Trend (last 4 snapshots)")
	assert.Contains(t, stripped, "Active Users")
	assert.Contains(t, stripped, "Page Views")
	assert.Contains(t, stripped, "Events")
	assert.Contains(t, stripped, "13")
	// eventCount is not part of the fixture.
	assert.Contains(t, stripped, "---")
}

func TestRenderMetricsRow_NarrowStacksCards(t *testing.T) {
	app := newTestApp()
	app.width = 60
	app.applySnapshot(makeFixtureResponse(fixtureTime, 10))

	stripped := stripANSI(renderMetricsRow(app))
	// label plus three bordered cards of five lines each
	assert.Equal(t, 16, strings.Count(stripped, "\n")+1)
}
