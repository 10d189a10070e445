package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/listical/ga4-realtime/internal/feed"
	"github.com/listical/ga4-realtime/internal/model"
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnected
	stateWarming
)

// App is the root Bubble Tea model for ga4rt-watch.
type App struct {
	feed         feed.Fetcher
	pollInterval time.Duration

	// Poll state
	fetching bool // true while a fetchCmd goroutine is in-flight
	current  *model.RealtimeResponse
	history  *model.SparklineHistory
	rows     RowsTableModel

	// Connection state
	connState        connState
	consecutiveFails int
	lastError        error
	lastUpdated      time.Time
	nextRetryAt      time.Time

	now func() time.Time

	// Layout
	width, height int

	showHelp bool
}

// NewApp creates a new App polling f every interval.
func NewApp(f feed.Fetcher, interval time.Duration) *App {
	return &App{
		feed:         f,
		pollInterval: interval,
		history:      model.NewSparklineHistory(0),
		rows:         NewRowsTable(),
		connState:    stateDisconnected,
		fetching:     true, // Init() always issues an immediate fetchCmd
		now:          time.Now,
	}
}

func (app *App) clock() time.Time {
	if app.now == nil {
		return time.Now()
	}
	return app.now()
}

// Init implements tea.Model. Starts the first fetch immediately on launch.
func (app *App) Init() tea.Cmd {
	return fetchCmd(app.feed, app.pollInterval)
}

// Update implements tea.Model.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case SnapshotMsg:
		app.fetching = false
		app.applySnapshot(msg.Response)
		app.consecutiveFails = 0
		app.lastError = nil
		app.nextRetryAt = time.Time{}
		app.connState = stateConnected
		return app, tickCmd(app.pollInterval)

	case FetchErrorMsg:
		app.fetching = false
		app.lastError = msg.Err
		// A service that is up but still warming is polled at the normal rate.
		if errors.Is(msg.Err, feed.ErrNotReady) {
			app.connState = stateWarming
			app.consecutiveFails = 0
			app.nextRetryAt = time.Time{}
			return app, tickCmd(app.pollInterval)
		}
		app.consecutiveFails++
		app.connState = stateDisconnected
		backoff := backoffDuration(app.consecutiveFails)
		app.nextRetryAt = app.clock().Add(backoff)
		return app, tickCmd(backoff)

	case TickMsg:
		if app.fetching {
			return app, nil
		}
		app.fetching = true
		return app, fetchCmd(app.feed, app.pollInterval)

	case tea.KeyMsg:
		if app.rows.searching {
			var cmd tea.Cmd
			app.rows, cmd = app.rows.Update(msg)
			return app, cmd
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return app, tea.Quit
		case key.Matches(msg, keys.Refresh):
			if app.fetching {
				return app, nil
			}
			app.fetching = true
			return app, fetchCmd(app.feed, app.pollInterval)
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
		default:
			var cmd tea.Cmd
			app.rows, cmd = app.rows.Update(msg)
			return app, cmd
		}
	}

	return app, nil
}

// applySnapshot stores resp and records a history point when the service
// has fetched new data since the last poll.
func (app *App) applySnapshot(resp *model.RealtimeResponse) {
	if resp == nil {
		return
	}
	last, ok := app.history.Last()
	if !ok || !last.Timestamp.Equal(resp.FetchedAt) {
		app.history.Push(model.SparklinePoint{
			Timestamp:   resp.FetchedAt,
			ActiveUsers: resp.Totals[metricActiveUsers],
			PageViews:   resp.Totals[metricPageViews],
			EventCount:  resp.Totals[metricEvents],
		})
	}
	app.current = resp
	app.lastUpdated = resp.FetchedAt
	app.rows.SetData(resp)
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	var parts []string

	if h := renderHeader(app); h != "" {
		parts = append(parts, h)
	}
	if o := renderOverview(app); o != "" {
		parts = append(parts, o)
	}
	if m := renderMetricsRow(app); m != "" {
		parts = append(parts, m)
	}
	if app.current != nil {
		if t := app.rows.renderTable(app.width); t != "" {
			parts = append(parts, t)
		}
	}
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

// tickCmd schedules the next poll after duration d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchCmd polls the service once and returns a SnapshotMsg or FetchErrorMsg.
func fetchCmd(f feed.Fetcher, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		timeout := interval - 500*time.Millisecond
		if timeout < 500*time.Millisecond {
			timeout = 500 * time.Millisecond
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		resp, err := f.Fetch(ctx)
		if err != nil {
			return FetchErrorMsg{Err: err}
		}
		return SnapshotMsg{Response: resp, ReceivedAt: time.Now()}
	}
}

// backoffDuration returns min(2^fails * time.Second, 60*time.Second).
// At fails=1: 2s, fails=2: 4s, fails=3: 8s, ..., fails>=6: 60s.
func backoffDuration(fails int) time.Duration {
	const maxBackoff = 60 * time.Second
	if fails <= 0 {
		return time.Second
	}
	if fails >= 6 {
		return maxBackoff
	}
	return time.Duration(1<<fails) * time.Second
}
