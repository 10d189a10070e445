package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listical/ga4-realtime/internal/client"
	"github.com/listical/ga4-realtime/internal/feed"
	"github.com/listical/ga4-realtime/internal/model"
)

var fixtureTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// fakeFeed is a feed.Fetcher returning canned results.
type fakeFeed struct {
	resp  *model.RealtimeResponse
	err   error
	calls int
}

func (f *fakeFeed) Fetch(context.Context) (*model.RealtimeResponse, error) {
	f.calls++
	return f.resp, f.err
}

func (f *fakeFeed) BaseURL() string { return "http://localhost:8080" }

// makeFixtureResponse returns a response with a country breakdown.
func makeFixtureResponse(at time.Time, activeUsers float64) *model.RealtimeResponse {
	total := int64(123456)
	updated := at.Add(-time.Minute)
	return &model.RealtimeResponse{
		DimensionHeaders: []string{"country"},
		MetricHeaders: []client.MetricHeader{
			{Name: metricActiveUsers, Type: "TYPE_INTEGER"},
			{Name: metricPageViews, Type: "TYPE_INTEGER"},
		},
		Rows: []client.Row{
			{Dimensions: map[string]string{"country": "Germany"}, Metrics: map[string]float64{metricActiveUsers: activeUsers - 1, metricPageViews: 40}},
			{Dimensions: map[string]string{"country": "Chile"}, Metrics: map[string]float64{metricActiveUsers: 1, metricPageViews: 2}},
		},
		RowCount:                 2,
		Totals:                   map[string]float64{metricActiveUsers: activeUsers, metricPageViews: 42},
		FetchedAt:                at,
		TotalVisitors:            &total,
		TotalVisitorsLastUpdated: &updated,
	}
}

func newTestApp() *App {
	app := NewApp(&fakeFeed{}, 10*time.Second)
	app.now = func() time.Time { return fixtureTime }
	return app
}

func TestApp_SnapshotMsgUpdatesState(t *testing.T) {
	app := newTestApp()
	app.consecutiveFails = 3
	app.lastError = errors.New("boom")
	app.nextRetryAt = fixtureTime.Add(time.Minute)

	resp := makeFixtureResponse(fixtureTime, 10)
	newModel, cmd := app.Update(SnapshotMsg{Response: resp, ReceivedAt: fixtureTime})
	updated := newModel.(*App)

	assert.Same(t, resp, updated.current)
	assert.False(t, updated.fetching)
	assert.Equal(t, 0, updated.consecutiveFails)
	assert.Nil(t, updated.lastError)
	assert.True(t, updated.nextRetryAt.IsZero())
	assert.Equal(t, stateConnected, updated.connState)
	assert.Equal(t, fixtureTime, updated.lastUpdated)
	assert.Equal(t, 1, updated.history.Len())
	assert.Len(t, updated.rows.rows, 2)
	require.NotNil(t, cmd)
}

func TestApp_HistoryOnlyGrowsOnNewData(t *testing.T) {
	app := newTestApp()

	// The service refreshes less often than we poll: the same snapshot
	// arrives twice before a new one.
	for _, at := range []time.Time{fixtureTime, fixtureTime, fixtureTime.Add(10 * time.Second)} {
		newModel, _ := app.Update(SnapshotMsg{Response: makeFixtureResponse(at, 5)})
		app = newModel.(*App)
	}

	require.Equal(t, 2, app.history.Len())
	assert.Equal(t, []float64{5, 5}, app.history.Values("activeUsers"))
	assert.Equal(t, []float64{42, 42}, app.history.Values("pageViews"))
}

func TestApp_FetchErrorBacksOff(t *testing.T) {
	app := newTestApp()

	for i := 1; i <= 3; i++ {
		newModel, cmd := app.Update(FetchErrorMsg{Err: errors.New("connection refused")})
		app = newModel.(*App)
		require.NotNil(t, cmd)
		assert.Equal(t, i, app.consecutiveFails)
	}
	assert.Equal(t, stateDisconnected, app.connState)
	assert.Equal(t, fixtureTime.Add(8*time.Second), app.nextRetryAt)
	assert.False(t, app.fetching)
}

func TestApp_NotReadyIsWarmingNotFailure(t *testing.T) {
	app := newTestApp()
	app.consecutiveFails = 2

	newModel, cmd := app.Update(FetchErrorMsg{Err: feed.ErrNotReady})
	updated := newModel.(*App)

	require.NotNil(t, cmd)
	assert.Equal(t, stateWarming, updated.connState)
	assert.Equal(t, 0, updated.consecutiveFails)
	assert.True(t, updated.nextRetryAt.IsZero())
	assert.Contains(t, stripANSI(renderHeader(updated)), "WARMING UP")
}

func TestApp_FetchErrorKeepsLastSnapshot(t *testing.T) {
	app := newTestApp()
	resp := makeFixtureResponse(fixtureTime, 10)
	newModel, _ := app.Update(SnapshotMsg{Response: resp})
	app = newModel.(*App)

	newModel, _ = app.Update(FetchErrorMsg{Err: errors.New("connection refused")})
	app = newModel.(*App)

	assert.Same(t, resp, app.current)
	assert.Contains(t, stripANSI(app.View()), "Active Users")
}

func TestApp_TickSkippedWhileFetching(t *testing.T) {
	app := newTestApp()
	app.fetching = true

	_, cmd := app.Update(TickMsg(fixtureTime))
	assert.Nil(t, cmd)

	app.fetching = false
	_, cmd = app.Update(TickMsg(fixtureTime))
	require.NotNil(t, cmd)
	assert.True(t, app.fetching)
}

func TestFetchCmd(t *testing.T) {
	resp := makeFixtureResponse(fixtureTime, 3)
	msg := fetchCmd(&fakeFeed{resp: resp}, 10*time.Second)()
	snap, ok := msg.(SnapshotMsg)
	require.True(t, ok, "got %T", msg)
	assert.Same(t, resp, snap.Response)

	msg = fetchCmd(&fakeFeed{err: feed.ErrNotReady}, 10*time.Second)()
	fe, ok := msg.(FetchErrorMsg)
	require.True(t, ok, "got %T", msg)
	assert.ErrorIs(t, fe.Err, feed.ErrNotReady)
}

func TestApp_WindowSizeStored(t *testing.T) {
	app := newTestApp()

	newModel, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := newModel.(*App)

	assert.Equal(t, 120, updated.width)
	assert.Equal(t, 40, updated.height)
	assert.Nil(t, cmd)
}

func TestApp_QuitKey(t *testing.T) {
	app := newTestApp()

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestApp_QuitKeyTypedIntoSearch(t *testing.T) {
	app := newTestApp()
	app.rows.searching = true

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		_, isQuit := cmd().(tea.QuitMsg)
		assert.False(t, isQuit, "q must not quit while searching")
	}
}

func TestApp_RefreshKey(t *testing.T) {
	app := newTestApp()
	app.fetching = false

	newModel, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, newModel.(*App).fetching)

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd, "refresh is a no-op while a fetch is in flight")
}

func TestApp_HelpToggle(t *testing.T) {
	app := newTestApp()
	app.width = 120
	app.applySnapshot(makeFixtureResponse(fixtureTime, 10))

	newModel, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	app = newModel.(*App)
	require.True(t, app.showHelp)
	footer := stripANSI(renderFooter(app))
	assert.Contains(t, footer, "r: refresh")
	assert.Contains(t, footer, "1: country")

	newModel, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.False(t, newModel.(*App).showHelp)
}

func TestApp_DigitKeySortsRows(t *testing.T) {
	app := newTestApp()
	app.applySnapshot(makeFixtureResponse(fixtureTime, 10))

	newModel, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	app = newModel.(*App)

	assert.Equal(t, 0, app.rows.sortCol)
	rows := app.rows.visibleRows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Chile", rows[0].Dimensions["country"])
}

func TestApp_ViewWithSnapshot(t *testing.T) {
	app := newTestApp()
	app.width = 120
	newModel, _ := app.Update(SnapshotMsg{Response: makeFixtureResponse(fixtureTime, 10)})
	app = newModel.(*App)

	view := stripANSI(app.View())
	for _, want := range []string{"LIVE", "Active Users", "Total Visitors", "123.5k", "Germany", "Breakdown (2 rows)", "? for help"} {
		assert.Contains(t, view, want)
	}
}

func TestApp_ViewBeforeFirstSnapshot(t *testing.T) {
	app := newTestApp()
	app.width = 80

	view := stripANSI(app.View())
	assert.Contains(t, view, "Connecting to http://localhost:8080")
	assert.NotContains(t, view, "Breakdown")
}

func TestBackoffDuration(t *testing.T) {
	cases := []struct {
		fails    int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second},
		{10, 60 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, backoffDuration(tc.fails), "fails=%d", tc.fails)
	}
}

func TestRenderOverview(t *testing.T) {
	app := newTestApp()
	app.width = 120
	assert.Equal(t, "", renderOverview(app))

	resp := makeFixtureResponse(fixtureTime, 12345)
	resp.TotalVisitors = nil
	app.current = resp

	stripped := stripANSI(renderOverview(app))
	assert.Contains(t, stripped, "12.3k")
	assert.Contains(t, stripped, "42")
	// eventCount was not fetched and there is no total yet.
	assert.Equal(t, 2, strings.Count(stripped, "---"))
}

func TestRenderOverview_NarrowGrid(t *testing.T) {
	app := newTestApp()
	app.width = 60
	app.current = makeFixtureResponse(fixtureTime, 10)

	out := stripANSI(renderOverview(app))
	lines := strings.Split(out, "\n")
	assert.Equal(t, 4, len(lines), "two rows of two-line cards")
}

// stripANSI removes ANSI escape sequences for plain-text content assertions.
// Handles all CSI sequences (not just SGR m-terminated ones).
func stripANSI(s string) string {
	var out strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if r >= 0x40 && r <= 0x7E && r != '[' {
				inEscape = false
			}
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
